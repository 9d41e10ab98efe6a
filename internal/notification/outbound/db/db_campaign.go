package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/jackc/pgx/v5"
)

const sqlGetCampaign = `
SELECT id, title, body, COALESCE(image_url, ''), COALESCE(data, '{}'::jsonb),
       campaign_type, COALESCE(filters, '{}'::jsonb), status,
       target_users, sent_count, failed_count, delivered_count, opened_count, clicked_count,
       created_by, sent_at, updated_at
FROM notification_campaigns
WHERE id = $1
`

func (s *DB) GetCampaign(ctx context.Context, id int64) (_ *entity.Campaign, err error) {
	ctx, span := s.startSpan(ctx, "GetCampaign")
	defer func() { s.endSpan(span, err) }()

	var (
		c       entity.Campaign
		filters []byte
	)
	err = s.conn.QueryRow(ctx, sqlGetCampaign, id).Scan(
		&c.ID, &c.Title, &c.Body, &c.ImageURL, &c.Data,
		&c.CampaignType, &filters, &c.Status,
		&c.TargetUsers, &c.SentCount, &c.FailedCount, &c.DeliveredCount, &c.OpenedCount, &c.ClickedCount,
		&c.CreatedBy, &c.SentAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	if err = json.Unmarshal(filters, &c.Filters); err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}

const sqlClaimCampaignSending = `
UPDATE notification_campaigns
SET status = 'sending', updated_at = now()
WHERE id = $1 AND status = 'scheduled'
`

// ClaimCampaignSending atomically moves a scheduled campaign to sending.
// It returns false when the campaign is in any other state, so concurrent
// executions collapse to a single winner.
func (s *DB) ClaimCampaignSending(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ClaimCampaignSending")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, sqlClaimCampaignSending, id)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

const sqlFinishCampaign = `
UPDATE notification_campaigns
SET status = $2, target_users = $3, sent_count = $4, failed_count = $5,
    delivered_count = $6, sent_at = $7, updated_at = now()
WHERE id = $1
`

func (s *DB) FinishCampaign(ctx context.Context, id int64, status entity.CampaignStatus, counts entity.CampaignCounts, sentAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "FinishCampaign")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, sqlFinishCampaign, id, status.String(),
		counts.TargetUsers, counts.Sent, counts.Failed, counts.Delivered, sentAt)
	return s.mapError(err)
}

const sqlRevertCampaignToScheduled = `
UPDATE notification_campaigns
SET status = 'scheduled', updated_at = now()
WHERE id = $1 AND status = 'sending'
`

func (s *DB) RevertCampaignToScheduled(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevertCampaignToScheduled")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, sqlRevertCampaignToScheduled, id)
	return s.mapError(err)
}

// ResolveSegment resolves a campaign's target users and their active device
// tokens. Users opted out of push are dropped silently; users inside their
// quiet window are dropped and counted.
func (s *DB) ResolveSegment(ctx context.Context, filters entity.SegmentFilter, category entity.NotificationCategory) (_ *entity.SegmentResult, err error) {
	ctx, span := s.startSpan(ctx, "ResolveSegment")
	defer func() { s.endSpan(span, err) }()

	users, err := s.listSegmentUsers(ctx, filters)
	if err != nil {
		return nil, err
	}

	result := &entity.SegmentResult{UsersMatched: len(users)}
	now := time.Now().UTC()

	reachable := make([]int64, 0, len(users))
	for _, pref := range users {
		if !pref.PushEnabled {
			continue
		}
		if pref.InQuietHours(category, now) {
			result.QuietHoursFilteredUsers++
			continue
		}
		reachable = append(reachable, pref.UserID)
	}

	if len(reachable) == 0 {
		return result, nil
	}

	result.Tokens, err = s.listSegmentTokens(ctx, reachable, filters.Platforms)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *DB) listSegmentUsers(ctx context.Context, filters entity.SegmentFilter) ([]entity.Preference, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filters.Subscriptions) > 0 {
		conds = append(conds, "u.subscription = ANY("+arg(filters.Subscriptions)+")")
	}
	if len(filters.UserIDs) > 0 {
		conds = append(conds, "u.id = ANY("+arg(filters.UserIDs)+")")
	}
	if filters.LastActiveDays > 0 {
		since := time.Now().UTC().AddDate(0, 0, -filters.LastActiveDays)
		conds = append(conds, "u.last_active_at >= "+arg(since))
	}

	query := `
SELECT u.id,
       COALESCE(p.push_enabled, TRUE), COALESCE(p.reminder_enabled, TRUE),
       COALESCE(p.quiet_hours_enabled, FALSE),
       COALESCE(p.quiet_start_minute, 0), COALESCE(p.quiet_end_minute, 0),
       COALESCE(p.utc_offset_minutes, 0), COALESCE(p.quiet_categories, '{}')
FROM users u
LEFT JOIN notification_preferences p ON p.user_id = u.id
`
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var users []entity.Preference
	for rows.Next() {
		var (
			p          entity.Preference
			categories []string
		)
		if err := rows.Scan(
			&p.UserID, &p.PushEnabled, &p.ReminderEnabled, &p.QuietHoursEnabled,
			&p.QuietStartMinute, &p.QuietEndMinute, &p.UTCOffsetMinutes, &categories,
		); err != nil {
			return nil, s.mapError(err)
		}

		p.QuietCategories = make([]entity.NotificationCategory, 0, len(categories))
		for _, c := range categories {
			p.QuietCategories = append(p.QuietCategories, entity.NotificationCategory(c))
		}
		users = append(users, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return users, nil
}

const sqlListSegmentTokens = `
SELECT user_id, device_token
FROM user_devices
WHERE is_active = TRUE AND user_id = ANY($1)
`

const sqlListSegmentTokensByPlatform = `
SELECT user_id, device_token
FROM user_devices
WHERE is_active = TRUE AND user_id = ANY($1) AND platform = ANY($2)
`

func (s *DB) listSegmentTokens(ctx context.Context, userIDs []int64, platforms []string) ([]entity.TargetToken, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(platforms) > 0 {
		rows, err = s.conn.Query(ctx, sqlListSegmentTokensByPlatform, userIDs, platforms)
	} else {
		rows, err = s.conn.Query(ctx, sqlListSegmentTokens, userIDs)
	}
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var tokens []entity.TargetToken
	for rows.Next() {
		var t entity.TargetToken
		if err := rows.Scan(&t.UserID, &t.Token); err != nil {
			return nil, s.mapError(err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return tokens, nil
}
