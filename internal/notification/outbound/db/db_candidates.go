package db

import (
	"context"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/jackc/pgx/v5"
)

const sqlListRenewalCandidates = `
SELECT id, subscription, subscription_expires_at
FROM users
WHERE subscription IN ('smart', 'pro')
  AND subscription_expires_at >= $1
  AND subscription_expires_at < $2
ORDER BY subscription_expires_at
LIMIT $3
`

func (s *DB) ListRenewalCandidates(ctx context.Context, start, end time.Time, limit int) (_ []entity.RenewalCandidate, err error) {
	ctx, span := s.startSpan(ctx, "ListRenewalCandidates")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, sqlListRenewalCandidates, start, end, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var candidates []entity.RenewalCandidate
	for rows.Next() {
		var c entity.RenewalCandidate
		if err = rows.Scan(&c.UserID, &c.Subscription, &c.ExpiresAt); err != nil {
			return nil, s.mapError(err)
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return candidates, nil
}

const sqlListRecentReferrals = `
SELECT id, referrer_id, referee_id, verified_whatsapp, registered_at, verified_at
FROM referrals
WHERE registered_at >= $1
ORDER BY registered_at DESC
LIMIT $2
`

const sqlListRecentVerifiedReferrals = `
SELECT id, referrer_id, referee_id, verified_whatsapp, registered_at, verified_at
FROM referrals
WHERE verified_whatsapp = TRUE AND verified_at >= $1
ORDER BY verified_at DESC
LIMIT $2
`

func (s *DB) ListRecentReferrals(ctx context.Context, verifiedOnly bool, since time.Time, limit int) (_ []entity.Referral, err error) {
	ctx, span := s.startSpan(ctx, "ListRecentReferrals")
	defer func() { s.endSpan(span, err) }()

	query := sqlListRecentReferrals
	if verifiedOnly {
		query = sqlListRecentVerifiedReferrals
	}

	rows, err := s.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	referrals, err := s.scanReferrals(rows)
	return referrals, err
}

const sqlGetReferralsByIDs = `
SELECT id, referrer_id, referee_id, verified_whatsapp, registered_at, verified_at
FROM referrals
WHERE id = ANY($1)
`

const sqlGetVerifiedReferralsByIDs = `
SELECT id, referrer_id, referee_id, verified_whatsapp, registered_at, verified_at
FROM referrals
WHERE id = ANY($1) AND verified_whatsapp = TRUE
`

func (s *DB) GetReferralsByIDs(ctx context.Context, ids []int64, verifiedOnly bool) (_ []entity.Referral, err error) {
	ctx, span := s.startSpan(ctx, "GetReferralsByIDs")
	defer func() { s.endSpan(span, err) }()

	query := sqlGetReferralsByIDs
	if verifiedOnly {
		query = sqlGetVerifiedReferralsByIDs
	}

	rows, err := s.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	referrals, err := s.scanReferrals(rows)
	return referrals, err
}

func (s *DB) scanReferrals(rows pgx.Rows) ([]entity.Referral, error) {
	var referrals []entity.Referral
	for rows.Next() {
		var r entity.Referral
		if err := rows.Scan(&r.ID, &r.ReferrerID, &r.RefereeID, &r.VerifiedWhatsApp, &r.RegisteredAt, &r.VerifiedAt); err != nil {
			return nil, s.mapError(err)
		}
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return referrals, nil
}

const sqlGetPreferences = `
SELECT user_id, push_enabled, reminder_enabled, quiet_hours_enabled,
       quiet_start_minute, quiet_end_minute, utc_offset_minutes, quiet_categories
FROM notification_preferences
WHERE user_id = ANY($1)
`

// GetPreferences returns preference rows keyed by user. Users without a row
// are absent from the map and default to everything enabled.
func (s *DB) GetPreferences(ctx context.Context, userIDs []int64) (_ map[int64]entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "GetPreferences")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, sqlGetPreferences, userIDs)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	prefs := make(map[int64]entity.Preference)
	for rows.Next() {
		var (
			p          entity.Preference
			categories []string
		)
		if err = rows.Scan(
			&p.UserID, &p.PushEnabled, &p.ReminderEnabled, &p.QuietHoursEnabled,
			&p.QuietStartMinute, &p.QuietEndMinute, &p.UTCOffsetMinutes, &categories,
		); err != nil {
			return nil, s.mapError(err)
		}

		p.QuietCategories = make([]entity.NotificationCategory, 0, len(categories))
		for _, c := range categories {
			p.QuietCategories = append(p.QuietCategories, entity.NotificationCategory(c))
		}
		prefs[p.UserID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return prefs, nil
}

const sqlGetActiveTokens = `
SELECT device_token
FROM user_devices
WHERE user_id = $1 AND is_active = TRUE
`

func (s *DB) GetActiveTokens(ctx context.Context, userID int64) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveTokens")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, sqlGetActiveTokens, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err = rows.Scan(&token); err != nil {
			return nil, s.mapError(err)
		}
		tokens = append(tokens, token)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return tokens, nil
}
