package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

func TestUpdateTrigger(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	boolPtr := func(v bool) *bool { return &v }

	t.Run("UnknownKey", func(t *testing.T) {
		// Arrange
		s := newTestEngine(&fakeRepo{}, &fakePusher{}, &fakeLocker{}, now)

		// Act
		_, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{Key: "nope"})

		// Assert
		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("DeactivatesTrigger", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		st, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{
			Key:      entity.TriggerKeyRenewalReminder,
			IsActive: boolPtr(false),
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.IsActive {
			t.Fatalf("expected trigger deactivated")
		}
		saved := repo.configs[entity.TriggerKeyRenewalReminder]
		if saved.IsActive {
			t.Fatalf("expected persisted config inactive, got %+v", saved)
		}
	})

	t.Run("RejectsUnknownSetting", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		_, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{
			Key:      entity.TriggerKeyRenewalReminder,
			Settings: valueobject.JSONMap{"frequency": 2},
		})

		// Assert
		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("SanitizesBeforePersisting", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		st, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{
			Key:      entity.TriggerKeyRenewalReminder,
			Settings: valueobject.JSONMap{"daysBefore": 999, "limit": 10000},
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := st.Settings.GetInt("daysBefore"); got != entity.RenewalDaysBeforeMax {
			t.Fatalf("expected daysBefore clamped to %d, got %d", entity.RenewalDaysBeforeMax, got)
		}
		saved := repo.configs[entity.TriggerKeyRenewalReminder]
		if got := saved.Settings.GetInt("limit"); got != entity.TriggerLimitMax {
			t.Fatalf("expected persisted limit clamped to %d, got %d", entity.TriggerLimitMax, got)
		}
	})

	t.Run("PartialUpdateKeepsOtherSettings", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			configs: map[entity.TriggerKey]entity.TriggerConfig{
				entity.TriggerKeyRenewalReminder: {
					TriggerKey: entity.TriggerKeyRenewalReminder,
					IsActive:   true,
					Settings:   valueobject.JSONMap{"daysBefore": 7},
				},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		st, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{
			Key:      entity.TriggerKeyRenewalReminder,
			Settings: valueobject.JSONMap{"limit": 50},
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.Settings.GetInt("daysBefore") != 7 || st.Settings.GetInt("limit") != 50 {
			t.Fatalf("expected merged settings, got %v", st.Settings)
		}
	})

	t.Run("SaveFailure", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{saveCfgErr: errors.New("db down")}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		_, err := s.UpdateTrigger(context.Background(), UpdateTriggerInput{
			Key:      entity.TriggerKeyRenewalReminder,
			IsActive: boolPtr(false),
		})

		// Assert
		if err == nil {
			t.Fatalf("expected error when save fails")
		}
	})
}

func TestTriggerStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("ListMaterializesDefaults", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		statuses, err := s.ListTriggerStatuses(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(statuses) != 3 {
			t.Fatalf("expected 3 triggers, got %d", len(statuses))
		}
		if statuses[0].Key != entity.TriggerKeyRenewalReminder {
			t.Fatalf("expected registration order, got %v first", statuses[0].Key)
		}
		for _, st := range statuses {
			if !st.IsActive {
				t.Fatalf("trigger %s should default to active", st.Key)
			}
		}
		if len(repo.savedConfigs) != 3 {
			t.Fatalf("expected lazy default rows for all 3 triggers, got %d", len(repo.savedConfigs))
		}
	})

	t.Run("GetIncludesLastRun", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			logs: []entity.TriggerLogEntry{
				{
					TriggerKey: entity.TriggerKeyRenewalReminder,
					UserID:     5,
					Context:    valueobject.JSONMap{entity.LogKeySent: 1},
					SentAt:     now.Add(-time.Hour),
				},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		st, err := s.GetTriggerStatus(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.LastRun == nil || !st.LastRun.SentAt.Equal(now.Add(-time.Hour)) {
			t.Fatalf("expected last run from ledger, got %+v", st.LastRun)
		}
	})

	t.Run("ConfigReadFailureFallsBackToDefaults", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{getCfgErr: errors.New("db down")}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		st, err := s.GetTriggerStatus(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !st.IsActive || st.Settings.GetInt("daysBefore") != 3 {
			t.Fatalf("expected default settings fallback, got %+v", st)
		}
		if len(repo.savedConfigs) != 0 {
			t.Fatalf("read failure must not materialize a row")
		}
	})
}
