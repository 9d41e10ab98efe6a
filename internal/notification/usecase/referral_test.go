package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
)

func TestRunReferral(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	settings := entity.ReferralSettings{Limit: 100, LookbackDays: 7}

	t.Run("NotifiesReferrer", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if !result.Success || result.NotifiedUsers != 1 || result.SuccessfulAttempts != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}
		if len(pusher.sent) != 1 {
			t.Fatalf("expected 1 push, got %d", len(pusher.sent))
		}
		msg := pusher.sent[0]
		if msg.UserID != 100 || msg.Category != entity.CategoryReferral {
			t.Fatalf("unexpected push target: %+v", msg)
		}
		if msg.Data["type"] != "referral_invited" || msg.Data["referralId"] != int64(10) {
			t.Fatalf("unexpected push data: %v", msg.Data)
		}
		if len(repo.logs) != 1 || repo.logs[0].UserID != 100 ||
			repo.logs[0].Context[entity.LogKeyEvent] != "invited" {
			t.Fatalf("unexpected ledger: %+v", repo.logs)
		}
	})

	t.Run("SecondRunDedups", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		first := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)
		second := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if first.NotifiedUsers != 1 {
			t.Fatalf("first run should notify, got %+v", first)
		}
		if second.AlreadyProcessed != 1 || second.NotifiedUsers != 0 {
			t.Fatalf("second run should dedup the pair, got %+v", second)
		}
		if len(pusher.sent) != 1 {
			t.Fatalf("expected exactly 1 push across both runs, got %d", len(pusher.sent))
		}
	})

	t.Run("SkipRetiresPairPermanently", func(t *testing.T) {
		// Arrange: referrer with no tokens on the first run, a device on the second
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		first := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)
		repo.tokens = map[int64][]string{100: {"tok"}}
		second := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if first.Skipped.NoTokens != 1 {
			t.Fatalf("first run should skip for missing tokens, got %+v", first)
		}
		if second.AlreadyProcessed != 1 || second.NotifiedUsers != 0 {
			t.Fatalf("skipped pair must stay retired, got %+v", second)
		}
		if len(pusher.sent) != 0 {
			t.Fatalf("expected no pushes, got %d", len(pusher.sent))
		}
	})

	t.Run("SeparateLedgerPerTrigger", func(t *testing.T) {
		// Arrange: the same pair notified as invited must still fire as verified
		verifiedAt := now
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, VerifiedWhatsApp: true, RegisteredAt: now, VerifiedAt: &verifiedAt},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		invited := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)
		verified := s.runReferral(context.Background(), entity.TriggerKeyReferralVerified, settings, nil)

		// Assert
		if invited.NotifiedUsers != 1 || verified.NotifiedUsers != 1 {
			t.Fatalf("both triggers should notify once: invited=%+v verified=%+v", invited, verified)
		}
		if len(pusher.sent) != 2 {
			t.Fatalf("expected 2 pushes, got %d", len(pusher.sent))
		}
	})

	t.Run("OptOutSkips", func(t *testing.T) {
		// Arrange: referral pushes ignore the reminder flag, only push_enabled counts
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
			prefs: map[int64]entity.Preference{
				100: {UserID: 100, PushEnabled: false, ReminderEnabled: true},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if result.Skipped.OptOut != 1 || result.NotifiedUsers != 0 {
			t.Fatalf("expected opt-out skip, got %+v", result)
		}
		if len(repo.logs) != 1 || repo.logs[0].Context[entity.LogKeySkippedReason] != entity.SkipReasonOptOut {
			t.Fatalf("expected opt_out skip entry, got %+v", repo.logs)
		}
	})

	t.Run("QuietWindowStillNotifies", func(t *testing.T) {
		// Arrange: referrer inside their quiet window at run time. A skip here
		// would retire the pair forever, so the window must not apply.
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
			prefs: map[int64]entity.Preference{
				100: {
					UserID:            100,
					PushEnabled:       true,
					QuietHoursEnabled: true,
					QuietStartMinute:  0,
					QuietEndMinute:    23*60 + 59,
				},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if result.Skipped.QuietHours != 0 || result.NotifiedUsers != 1 {
			t.Fatalf("quiet window must not skip referral pushes, got %+v", result)
		}
		if len(pusher.sent) != 1 {
			t.Fatalf("expected 1 push, got %d", len(pusher.sent))
		}
	})

	t.Run("LedgerQueryScopedToBatch", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
				{ID: 11, ReferrerID: 101, RefereeID: 201, RegisteredAt: now},
				{ID: 12, ReferrerID: 100, RefereeID: 202, RegisteredAt: now},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if len(repo.pairArgs) != 2 || repo.pairArgs[0] != 100 || repo.pairArgs[1] != 101 {
			t.Fatalf("ledger lookup must be scoped to the batch's referrers, got %v", repo.pairArgs)
		}
	})

	t.Run("ListFailure", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{referralsErr: errors.New("db down")}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result := s.runReferral(context.Background(), entity.TriggerKeyReferralInvited, settings, nil)

		// Assert
		if result.Success || result.Error == "" {
			t.Fatalf("expected failed result, got %+v", result)
		}
	})
}

func TestTriggerReferralForIDs(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("DirectModeTargetsGivenRow", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
				{ID: 11, ReferrerID: 101, RefereeID: 201, RegisteredAt: now},
			},
			tokens: map[int64][]string{100: {"tok"}, 101: {"tok2"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result, err := s.TriggerReferralInvitedForIDs(context.Background(), []int64{11})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.EvaluatedUsers != 1 || result.NotifiedUsers != 1 {
			t.Fatalf("expected exactly the requested row, got %+v", result)
		}
		if len(pusher.sent) != 1 || pusher.sent[0].UserID != 101 {
			t.Fatalf("expected push to referrer 101, got %+v", pusher.sent)
		}
	})

	t.Run("VerifiedFiltersUnverifiedRows", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			referrals: []entity.Referral{
				{ID: 10, ReferrerID: 100, RefereeID: 200, RegisteredAt: now},
			},
			tokens: map[int64][]string{100: {"tok"}},
		}
		pusher := &fakePusher{}
		s := newTestEngine(repo, pusher, &fakeLocker{}, now)

		// Act
		result, err := s.TriggerReferralVerifiedForIDs(context.Background(), []int64{10})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.EvaluatedUsers != 0 || len(pusher.sent) != 0 {
			t.Fatalf("unverified referral must not notify, got %+v", result)
		}
	})

	t.Run("InactiveTrigger", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			configs: map[entity.TriggerKey]entity.TriggerConfig{
				entity.TriggerKeyReferralInvited: {
					TriggerKey: entity.TriggerKeyReferralInvited,
					IsActive:   false,
				},
			},
			referralsErr: errors.New("must not be queried"),
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result, err := s.TriggerReferralInvitedForIDs(context.Background(), []int64{10})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success || result.EvaluatedUsers != 0 {
			t.Fatalf("expected successful all-zero result, got %+v", result)
		}
	})
}
