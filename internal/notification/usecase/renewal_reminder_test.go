package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
)

func TestRunRenewalReminder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	settings := entity.RenewalSettings{DaysBefore: 3, Limit: 100}
	expires := now.AddDate(0, 0, 3)

	t.Run("CountsAndLedger", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			candidates: []entity.RenewalCandidate{
				{UserID: 1, Subscription: entity.SubscriptionSmart, ExpiresAt: expires},
				{UserID: 2, Subscription: entity.SubscriptionPro, ExpiresAt: expires},
				{UserID: 3, Subscription: entity.SubscriptionSmart, ExpiresAt: expires},
			},
			logs: []entity.TriggerLogEntry{
				// user 1 already handled earlier today
				{TriggerKey: entity.TriggerKeyRenewalReminder, UserID: 1, SentAt: now.Add(-time.Hour)},
			},
			prefs: map[int64]entity.Preference{
				2: {UserID: 2, PushEnabled: false, ReminderEnabled: true},
			},
			tokens: map[int64][]string{
				3: {"tok-a", "tok-b"},
			},
		}
		pusher := &fakePusher{failTokens: map[string]error{"tok-b": errors.New("boom")}}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result := s.runRenewalReminder(context.Background(), settings)

		// Assert
		if !result.Success {
			t.Fatalf("expected success, got error %q", result.Error)
		}
		if result.EvaluatedUsers != 3 || result.AlreadyProcessed != 1 || result.EligibleUsers != 2 {
			t.Fatalf("unexpected evaluation counters: %+v", result)
		}
		if result.Skipped.OptOut != 1 || result.Skipped.NoTokens != 0 || result.Skipped.QuietHours != 0 {
			t.Fatalf("unexpected skip counters: %+v", result.Skipped)
		}
		if result.NotifiedUsers != 1 || result.NotificationAttempts != 2 ||
			result.SuccessfulAttempts != 1 || result.FailedAttempts != 1 {
			t.Fatalf("unexpected delivery counters: %+v", result)
		}

		// one skip entry for user 2, one send entry for user 3
		newEntries := repo.logs[1:]
		if len(newEntries) != 2 {
			t.Fatalf("expected 2 new ledger entries, got %d", len(newEntries))
		}
		if newEntries[0].UserID != 2 || newEntries[0].Context[entity.LogKeySkippedReason] != entity.SkipReasonOptOut {
			t.Fatalf("expected opt_out skip entry for user 2, got %+v", newEntries[0])
		}
		if newEntries[1].UserID != 3 || newEntries[1].Context[entity.LogKeySent] != 1 {
			t.Fatalf("expected send entry for user 3, got %+v", newEntries[1])
		}
	})

	t.Run("EarlierDayEntryDoesNotDedup", func(t *testing.T) {
		// Arrange: reminded yesterday for a different target day
		repo := &fakeRepo{
			candidates: []entity.RenewalCandidate{
				{UserID: 1, Subscription: entity.SubscriptionSmart, ExpiresAt: expires},
			},
			logs: []entity.TriggerLogEntry{
				{TriggerKey: entity.TriggerKeyRenewalReminder, UserID: 1, SentAt: now.AddDate(0, 0, -1)},
			},
			tokens: map[int64][]string{1: {"tok"}},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result := s.runRenewalReminder(context.Background(), settings)

		// Assert
		if result.AlreadyProcessed != 0 || result.NotifiedUsers != 1 {
			t.Fatalf("yesterday's entry must not retire today's reminder, got %+v", result)
		}
	})

	t.Run("TargetWindow", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		s.runRenewalReminder(context.Background(), settings)

		// Assert
		wantStart := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
		if got := repo.listCandArgs[0].(time.Time); !got.Equal(wantStart) {
			t.Fatalf("expected window start %v, got %v", wantStart, got)
		}
		if got := repo.listCandArgs[1].(time.Time); !got.Equal(wantStart.Add(24*time.Hour)) {
			t.Fatalf("expected 24h window end, got %v", got)
		}
		if repo.listCandArgs[2].(int) != 100 {
			t.Fatalf("expected limit 100, got %v", repo.listCandArgs[2])
		}
	})

	t.Run("QuietHours", func(t *testing.T) {
		// Arrange: quiet window 22:00-07:00, user local time equals UTC noon + 600 = 22:00
		repo := &fakeRepo{
			candidates: []entity.RenewalCandidate{
				{UserID: 7, Subscription: entity.SubscriptionPro, ExpiresAt: expires},
			},
			prefs: map[int64]entity.Preference{
				7: {
					UserID:            7,
					PushEnabled:       true,
					ReminderEnabled:   true,
					QuietHoursEnabled: true,
					QuietStartMinute:  22 * 60,
					QuietEndMinute:    7 * 60,
					UTCOffsetMinutes:  600,
				},
			},
			tokens: map[int64][]string{7: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result := s.runRenewalReminder(context.Background(), settings)

		// Assert
		if result.Skipped.QuietHours != 1 || result.NotificationAttempts != 0 {
			t.Fatalf("expected quiet hours skip without attempts, got %+v", result)
		}
		if len(pusher.sent) != 0 {
			t.Fatalf("expected no push, got %d", len(pusher.sent))
		}
	})

	t.Run("NoTokensSkip", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			candidates: []entity.RenewalCandidate{
				{UserID: 9, Subscription: entity.SubscriptionSmart, ExpiresAt: expires},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result := s.runRenewalReminder(context.Background(), settings)

		// Assert
		if result.Skipped.NoTokens != 1 || result.NotifiedUsers != 0 {
			t.Fatalf("expected no_tokens skip, got %+v", result)
		}
		if len(repo.logs) != 1 || repo.logs[0].Context[entity.LogKeySkippedReason] != entity.SkipReasonNoTokens {
			t.Fatalf("expected no_tokens ledger entry, got %+v", repo.logs)
		}
	})

	t.Run("CandidateQueryFailure", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{candidatesErr: errors.New("db down")}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result := s.runRenewalReminder(context.Background(), settings)

		// Assert
		if result.Success || result.Error == "" {
			t.Fatalf("expected failed result, got %+v", result)
		}
	})
}

func TestRenewalCopy(t *testing.T) {
	t.Run("ExpiresToday", func(t *testing.T) {
		title, _ := renewalCopy(entity.SubscriptionSmart, 0)
		if title != "⏰ Tu plan Smart vence hoy" {
			t.Fatalf("unexpected title: %q", title)
		}
	})

	t.Run("ExpiresTomorrow", func(t *testing.T) {
		title, _ := renewalCopy(entity.SubscriptionPro, 1)
		if title != "⏰ Tu plan Pro vence mañana" {
			t.Fatalf("unexpected title: %q", title)
		}
	})

	t.Run("ExpiresLater", func(t *testing.T) {
		title, _ := renewalCopy(entity.SubscriptionPro, 3)
		if title != "⏰ Tu plan Pro vence en 3 días" {
			t.Fatalf("unexpected title: %q", title)
		}
	})
}
