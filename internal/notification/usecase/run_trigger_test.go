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

func TestRunTriggerByKey(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("UnknownKey", func(t *testing.T) {
		// Arrange
		s := newTestEngine(&fakeRepo{}, &fakePusher{}, &fakeLocker{}, now)

		// Act
		_, err := s.RunTriggerByKey(context.Background(), entity.TriggerKey("nope"))

		// Assert
		if err == nil {
			t.Fatalf("expected error for unknown trigger key")
		}
		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeNotFound {
			t.Fatalf("expected not found code, got %v", err)
		}
	})

	t.Run("LockHeld", func(t *testing.T) {
		// Arrange
		s := newTestEngine(&fakeRepo{}, &fakePusher{}, &fakeLocker{held: true}, now)

		// Act
		_, err := s.RunTriggerByKey(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeConflict {
			t.Fatalf("expected conflict when lock is held, got %v", err)
		}
	})

	t.Run("InactiveTrigger", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			configs: map[entity.TriggerKey]entity.TriggerConfig{
				entity.TriggerKeyRenewalReminder: {
					TriggerKey: entity.TriggerKeyRenewalReminder,
					IsActive:   false,
					Settings:   valueobject.JSONMap{"daysBefore": 5},
				},
			},
			candidatesErr: errors.New("must not be queried"),
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result, err := s.RunTriggerByKey(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success || result.EvaluatedUsers != 0 || result.NotifiedUsers != 0 {
			t.Fatalf("expected successful all-zero result, got %+v", result)
		}
		if repo.listCandArgs != nil {
			t.Fatalf("inactive trigger must not query candidates")
		}
		if result.Settings.GetInt("daysBefore") != 5 {
			t.Fatalf("expected effective settings in result, got %v", result.Settings)
		}
	})

	t.Run("ReleasesLockAfterRun", func(t *testing.T) {
		// Arrange
		locker := &fakeLocker{}
		repo := &fakeRepo{
			configs: map[entity.TriggerKey]entity.TriggerConfig{
				entity.TriggerKeyRenewalReminder: {
					TriggerKey: entity.TriggerKeyRenewalReminder,
					IsActive:   true,
					Settings:   valueobject.JSONMap{},
				},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, locker, now)

		// Act
		_, err := s.RunTriggerByKey(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(locker.released) != 1 || locker.released[0] != "trigger-run:renewal_reminder" {
			t.Fatalf("expected run lock released, got %v", locker.released)
		}
	})

	t.Run("SanitizesPersistedSettings", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			configs: map[entity.TriggerKey]entity.TriggerConfig{
				entity.TriggerKeyRenewalReminder: {
					TriggerKey: entity.TriggerKeyRenewalReminder,
					IsActive:   true,
					Settings:   valueobject.JSONMap{"daysBefore": 999, "limit": 0},
				},
			},
		}
		s := newTestEngine(repo, &fakePusher{}, &fakeLocker{}, now)

		// Act
		result, err := s.RunTriggerByKey(context.Background(), entity.TriggerKeyRenewalReminder)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := result.Settings.GetInt("daysBefore"); got != entity.RenewalDaysBeforeMax {
			t.Fatalf("expected daysBefore clamped to %d, got %d", entity.RenewalDaysBeforeMax, got)
		}
		if got := result.Settings.GetInt("limit"); got != entity.TriggerLimitMin {
			t.Fatalf("expected limit clamped to %d, got %d", entity.TriggerLimitMin, got)
		}
	})
}
