package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
	"github.com/samber/lo"
)

// TriggerReferralInvitedForIDs runs the invited trigger against specific
// referral rows, bypassing the lookback scan. Used by the event consumer so a
// fresh registration notifies immediately instead of waiting for the cron.
func (s *Usecase) TriggerReferralInvitedForIDs(ctx context.Context, ids []int64) (*entity.TriggerRunResult, error) {
	return s.runReferralForIDs(ctx, entity.TriggerKeyReferralInvited, ids)
}

// TriggerReferralVerifiedForIDs runs the verified trigger against specific
// referral rows, bypassing the lookback scan.
func (s *Usecase) TriggerReferralVerifiedForIDs(ctx context.Context, ids []int64) (*entity.TriggerRunResult, error) {
	return s.runReferralForIDs(ctx, entity.TriggerKeyReferralVerified, ids)
}

func (s *Usecase) runReferralForIDs(ctx context.Context, key entity.TriggerKey, ids []int64) (*entity.TriggerRunResult, error) {
	ctx, span := s.startSpan(ctx, "runReferralForIDs")
	defer span.End()

	reg := s.registry[key]

	cfg := s.triggerConfig(ctx, reg.def)
	settings := decodeSettings(reg.def, cfg.Settings)

	if !cfg.IsActive {
		return &entity.TriggerRunResult{
			TriggerKey: key,
			Success:    true,
			Settings:   settings.ToMap(),
		}, nil
	}

	result := s.runReferral(ctx, key, settings.(entity.ReferralSettings), ids)
	result.Settings = settings.ToMap()

	return &result, nil
}

// runReferral handles both referral triggers. A non-empty ids slice switches
// to direct mode, otherwise recent referrals are scanned inside the lookback
// window.
//
// Dedup is permanent and keyed on the referrer/referee pair. Skip entries
// count too: a pair skipped once is retired for good.
func (s *Usecase) runReferral(ctx context.Context, key entity.TriggerKey, settings entity.ReferralSettings, ids []int64) entity.TriggerRunResult {
	ctx, span := s.startSpan(ctx, "runReferral")
	defer span.End()

	result := entity.TriggerRunResult{TriggerKey: key}
	verifiedOnly := key == entity.TriggerKeyReferralVerified

	var (
		referrals []entity.Referral
		err       error
	)
	if len(ids) > 0 {
		referrals, err = s.repoDB.GetReferralsByIDs(ctx, ids, verifiedOnly)
	} else {
		since := s.clock.Now().UTC().AddDate(0, 0, -settings.LookbackDays)
		referrals, err = s.repoDB.ListRecentReferrals(ctx, verifiedOnly, since, settings.Limit)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to list referrals", "trigger", key, "error", err)
		result.Error = "failed to list referrals"

		return result
	}

	result.EvaluatedUsers = len(referrals)
	if len(referrals) == 0 {
		result.Success = true

		return result
	}

	referrerIDs := lo.Uniq(lo.Map(referrals, func(r entity.Referral, _ int) int64 { return r.ReferrerID }))

	processed, err := s.repoDB.ListProcessedReferralPairs(ctx, key, referrerIDs)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load referral ledger", "trigger", key, "error", err)
		result.Error = "failed to load processed referrals"

		return result
	}

	prefs, err := s.repoDB.GetPreferences(ctx, referrerIDs)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load notification preferences", "trigger", key, "error", err)
		result.Error = "failed to load notification preferences"

		return result
	}

	event := "invited"
	title, body := referralInvitedCopy()
	if verifiedOnly {
		event = "verified"
		title, body = referralVerifiedCopy()
	}

	entries := make([]entity.TriggerLogEntry, 0, len(referrals))

	for _, ref := range referrals {
		pair := fmt.Sprintf("%d:%d", ref.ReferrerID, ref.RefereeID)
		if _, ok := processed[pair]; ok {
			result.AlreadyProcessed++
			continue
		}
		result.EligibleUsers++

		logCtx := valueobject.JSONMap{
			entity.LogKeyEvent:     event,
			entity.LogKeyRefereeID: ref.RefereeID,
		}

		// Quiet hours deliberately do not apply here. Referral skips retire the
		// pair for good, and a referrer should not lose the notification forever
		// just because the run landed inside their window.
		pref, hasPref := prefs[ref.ReferrerID]
		if hasPref && !pref.PushEnabled {
			result.Skipped.OptOut++
			logCtx[entity.LogKeySkippedReason] = entity.SkipReasonOptOut
			entries = append(entries, s.newLogEntry(key, ref.ReferrerID, logCtx))

			continue
		}

		tokens, err := s.repoDB.GetActiveTokens(ctx, ref.ReferrerID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load device tokens", "user_id", ref.ReferrerID, "error", err)
		}
		if len(tokens) == 0 {
			result.Skipped.NoTokens++
			logCtx[entity.LogKeySkippedReason] = entity.SkipReasonNoTokens
			entries = append(entries, s.newLogEntry(key, ref.ReferrerID, logCtx))

			continue
		}

		sent := 0
		for _, token := range tokens {
			result.NotificationAttempts++

			msg := entity.PushMessage{
				Token:    token,
				Title:    title,
				Body:     body,
				Category: entity.CategoryReferral,
				UserID:   ref.ReferrerID,
				Data: valueobject.JSONMap{
					"type":       key.String(),
					"referralId": ref.ID,
				},
			}
			if err := s.pusher.Send(ctx, msg); err != nil {
				result.FailedAttempts++
				slog.ErrorContext(ctx, "referral push failed",
					"trigger", key, "user_id", ref.ReferrerID, "error", err)

				continue
			}

			result.SuccessfulAttempts++
			sent++
		}

		if sent > 0 {
			result.NotifiedUsers++
		}
		logCtx[entity.LogKeySent] = sent
		entries = append(entries, s.newLogEntry(key, ref.ReferrerID, logCtx))
	}

	if len(entries) > 0 {
		if err := s.repoDB.AppendTriggerLogs(ctx, entries); err != nil {
			slog.ErrorContext(ctx, "failed to append trigger logs", "trigger", key, "error", err)
		}
	}

	result.Success = true

	return result
}

func referralInvitedCopy() (string, string) {
	return "🎉 ¡Tu invitación funcionó!",
		"Alguien se registró en Ahorro365 con tu código de referido. Te avisaremos cuando verifique su cuenta."
}

func referralVerifiedCopy() (string, string) {
	return "✅ ¡Referido verificado!",
		"Tu referido verificó su WhatsApp. ¡Gracias por compartir Ahorro365!"
}
