package db

import (
	"context"
	"strconv"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/jackc/pgx/v5"
)

const sqlGetTriggerConfig = `
SELECT trigger_key, is_active, settings, updated_at
FROM notification_triggers
WHERE trigger_key = $1
`

func (s *DB) GetTriggerConfig(ctx context.Context, key entity.TriggerKey) (_ *entity.TriggerConfig, err error) {
	ctx, span := s.startSpan(ctx, "GetTriggerConfig")
	defer func() { s.endSpan(span, err) }()

	var cfg entity.TriggerConfig
	err = s.conn.QueryRow(ctx, sqlGetTriggerConfig, key.String()).
		Scan(&cfg.TriggerKey, &cfg.IsActive, &cfg.Settings, &cfg.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cfg, nil
}

const sqlSaveTriggerConfig = `
INSERT INTO notification_triggers (trigger_key, is_active, settings, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (trigger_key) DO UPDATE
SET is_active = EXCLUDED.is_active,
    settings = EXCLUDED.settings,
    updated_at = EXCLUDED.updated_at
`

func (s *DB) SaveTriggerConfig(ctx context.Context, cfg entity.TriggerConfig) (err error) {
	ctx, span := s.startSpan(ctx, "SaveTriggerConfig")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, sqlSaveTriggerConfig, cfg.TriggerKey.String(), cfg.IsActive, cfg.Settings, cfg.UpdatedAt)
	return s.mapError(err)
}

const sqlAppendTriggerLog = `
INSERT INTO notification_trigger_logs (id, trigger_key, user_id, context, sent_at)
VALUES ($1, $2, $3, $4, $5)
`

func (s *DB) AppendTriggerLogs(ctx context.Context, entries []entity.TriggerLogEntry) (err error) {
	ctx, span := s.startSpan(ctx, "AppendTriggerLogs")
	defer func() { s.endSpan(span, err) }()

	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(sqlAppendTriggerLog, e.ID, e.TriggerKey.String(), e.UserID, e.Context, e.SentAt)
	}

	results := s.conn.SendBatch(ctx, batch)
	for range entries {
		if _, execErr := results.Exec(); execErr != nil {
			err = s.mapError(execErr)
			_ = results.Close()
			return err
		}
	}

	err = s.mapError(results.Close())
	return err
}

const sqlListProcessedUserIDs = `
SELECT DISTINCT user_id
FROM notification_trigger_logs
WHERE trigger_key = $1 AND user_id = ANY($2) AND sent_at >= $3
`

func (s *DB) ListProcessedUserIDs(ctx context.Context, key entity.TriggerKey, userIDs []int64, since time.Time) (_ map[int64]struct{}, err error) {
	ctx, span := s.startSpan(ctx, "ListProcessedUserIDs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, sqlListProcessedUserIDs, key.String(), userIDs, since)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	processed := make(map[int64]struct{})
	for rows.Next() {
		var userID int64
		if err = rows.Scan(&userID); err != nil {
			return nil, s.mapError(err)
		}
		processed[userID] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return processed, nil
}

const sqlListProcessedReferralPairs = `
SELECT user_id, context->>'referido_id'
FROM notification_trigger_logs
WHERE trigger_key = $1 AND user_id = ANY($2) AND context ? 'referido_id'
`

// ListProcessedReferralPairs returns the referrer/referee pairs already in the
// ledger for the given referrers, keyed as "<referrerID>:<refereeID>". Scoping
// to the batch's referrers keeps the scan O(batch) as the ledger grows.
func (s *DB) ListProcessedReferralPairs(ctx context.Context, key entity.TriggerKey, referrerIDs []int64) (_ map[string]struct{}, err error) {
	ctx, span := s.startSpan(ctx, "ListProcessedReferralPairs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, sqlListProcessedReferralPairs, key.String(), referrerIDs)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	processed := make(map[string]struct{})
	for rows.Next() {
		var (
			referrerID int64
			refereeID  string
		)
		if err = rows.Scan(&referrerID, &refereeID); err != nil {
			return nil, s.mapError(err)
		}
		processed[strconv.FormatInt(referrerID, 10)+":"+refereeID] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return processed, nil
}

const sqlLastTriggerLog = `
SELECT id, trigger_key, user_id, context, sent_at
FROM notification_trigger_logs
WHERE trigger_key = $1
ORDER BY sent_at DESC
LIMIT 1
`

func (s *DB) LastTriggerLog(ctx context.Context, key entity.TriggerKey) (_ *entity.TriggerLogEntry, err error) {
	ctx, span := s.startSpan(ctx, "LastTriggerLog")
	defer func() { s.endSpan(span, err) }()

	var entry entity.TriggerLogEntry
	err = s.conn.QueryRow(ctx, sqlLastTriggerLog, key.String()).
		Scan(&entry.ID, &entry.TriggerKey, &entry.UserID, &entry.Context, &entry.SentAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entry, nil
}
