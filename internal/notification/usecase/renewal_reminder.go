package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
	"github.com/samber/lo"
)

// runRenewalReminder notifies smart/pro users whose subscription expires
// inside the configured target day.
//
// The target window is [today+daysBefore 00:00 UTC, +24h). Dedup is windowed:
// only ledger entries written since the start of the run day count, so a user
// reminded on an earlier day becomes eligible again and gets at most one
// reminder per target day, not one ever.
func (s *Usecase) runRenewalReminder(ctx context.Context, settings entity.RenewalSettings) entity.TriggerRunResult {
	ctx, span := s.startSpan(ctx, "runRenewalReminder")
	defer span.End()

	result := entity.TriggerRunResult{TriggerKey: entity.TriggerKeyRenewalReminder}

	now := s.clock.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	targetStart := today.AddDate(0, 0, settings.DaysBefore)
	targetEnd := targetStart.Add(24 * time.Hour)

	candidates, err := s.repoDB.ListRenewalCandidates(ctx, targetStart, targetEnd, settings.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list renewal candidates", "error", err)
		result.Error = "failed to list renewal candidates"

		return result
	}

	result.EvaluatedUsers = len(candidates)
	if len(candidates) == 0 {
		result.Success = true

		return result
	}

	userIDs := lo.Map(candidates, func(c entity.RenewalCandidate, _ int) int64 { return c.UserID })

	processed, err := s.repoDB.ListProcessedUserIDs(ctx, entity.TriggerKeyRenewalReminder, userIDs, today)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load renewal ledger", "error", err)
		result.Error = "failed to load processed users"

		return result
	}

	prefs, err := s.repoDB.GetPreferences(ctx, userIDs)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load notification preferences", "error", err)
		result.Error = "failed to load notification preferences"

		return result
	}

	targetDate := targetStart.Format("2006-01-02")
	entries := make([]entity.TriggerLogEntry, 0, len(candidates))

	for _, cand := range candidates {
		if _, ok := processed[cand.UserID]; ok {
			result.AlreadyProcessed++
			continue
		}
		result.EligibleUsers++

		pref, hasPref := prefs[cand.UserID]
		if hasPref && (!pref.PushEnabled || !pref.ReminderEnabled) {
			result.Skipped.OptOut++
			entries = append(entries, s.newLogEntry(entity.TriggerKeyRenewalReminder, cand.UserID, valueobject.JSONMap{
				entity.LogKeySkippedReason: entity.SkipReasonOptOut,
				entity.LogKeyTargetDate:    targetDate,
			}))

			continue
		}
		if hasPref && pref.InQuietHours(entity.CategoryReminder, now) {
			result.Skipped.QuietHours++
			entries = append(entries, s.newLogEntry(entity.TriggerKeyRenewalReminder, cand.UserID, valueobject.JSONMap{
				entity.LogKeySkippedReason: entity.SkipReasonQuietHours,
				entity.LogKeyTargetDate:    targetDate,
			}))

			continue
		}

		tokens, err := s.repoDB.GetActiveTokens(ctx, cand.UserID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load device tokens", "user_id", cand.UserID, "error", err)
		}
		if len(tokens) == 0 {
			result.Skipped.NoTokens++
			entries = append(entries, s.newLogEntry(entity.TriggerKeyRenewalReminder, cand.UserID, valueobject.JSONMap{
				entity.LogKeySkippedReason: entity.SkipReasonNoTokens,
				entity.LogKeyTargetDate:    targetDate,
			}))

			continue
		}

		daysRemaining := int(math.Ceil(cand.ExpiresAt.Sub(now).Hours() / 24))
		title, body := renewalCopy(cand.Subscription, daysRemaining)

		sent := 0
		for _, token := range tokens {
			result.NotificationAttempts++

			msg := entity.PushMessage{
				Token:    token,
				Title:    title,
				Body:     body,
				Category: entity.CategoryReminder,
				UserID:   cand.UserID,
				Data: valueobject.JSONMap{
					"type":      "renewal_reminder",
					"expiresAt": cand.ExpiresAt.Format(time.RFC3339),
				},
			}
			if err := s.pusher.Send(ctx, msg); err != nil {
				result.FailedAttempts++
				slog.ErrorContext(ctx, "renewal reminder push failed", "user_id", cand.UserID, "error", err)

				continue
			}

			result.SuccessfulAttempts++
			sent++
		}

		if sent > 0 {
			result.NotifiedUsers++
		}
		entries = append(entries, s.newLogEntry(entity.TriggerKeyRenewalReminder, cand.UserID, valueobject.JSONMap{
			entity.LogKeyTargetDate: targetDate,
			entity.LogKeyAttempts:   len(tokens),
			entity.LogKeySent:       sent,
		}))
	}

	// Ledger writes are best effort. Losing them risks a duplicate reminder on
	// the next run, never a lost one.
	if len(entries) > 0 {
		if err := s.repoDB.AppendTriggerLogs(ctx, entries); err != nil {
			slog.ErrorContext(ctx, "failed to append trigger logs",
				"trigger", entity.TriggerKeyRenewalReminder, "error", err)
		}
	}

	result.Success = true

	return result
}

func renewalCopy(subscription string, daysRemaining int) (string, string) {
	plan := "Smart"
	if subscription == entity.SubscriptionPro {
		plan = "Pro"
	}

	switch {
	case daysRemaining <= 0:
		return "⏰ Tu plan " + plan + " vence hoy",
			"Renueva ahora para seguir registrando tus gastos sin interrupciones."
	case daysRemaining == 1:
		return "⏰ Tu plan " + plan + " vence mañana",
			"Renueva hoy y no pierdas el acceso a tus funciones " + plan + "."
	default:
		return fmt.Sprintf("⏰ Tu plan %s vence en %d días", plan, daysRemaining),
			"Renueva antes de la fecha de vencimiento y sigue disfrutando tus beneficios."
	}
}
