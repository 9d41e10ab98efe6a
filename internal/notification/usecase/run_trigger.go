package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
)

// runLockTTL bounds how long a crashed run can keep its lock.
const runLockTTL = 5 * time.Minute

// RunTriggerByKey executes one trigger run end to end.
//
// Each key is guarded by a distributed lock so overlapping cron invocations
// produce a conflict instead of a duplicate run. An inactive trigger returns
// a successful all-zero result without touching the database.
func (s *Usecase) RunTriggerByKey(ctx context.Context, key entity.TriggerKey) (*entity.TriggerRunResult, error) {
	ctx, span := s.startSpan(ctx, "RunTriggerByKey")
	defer span.End()

	reg, ok := s.registry[key]
	if !ok {
		return nil, goerror.NewBusiness("Trigger not found", goerror.CodeNotFound)
	}

	lockKey := "trigger-run:" + key.String()

	acquired, err := s.locker.Acquire(ctx, lockKey, runLockTTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire trigger run lock", "trigger", key, "error", err)

		return nil, goerror.NewServer(err)
	}
	if !acquired {
		return nil, goerror.NewBusiness("Trigger run already in progress", goerror.CodeConflict)
	}
	defer func() {
		if relErr := s.locker.Release(ctx, lockKey); relErr != nil {
			slog.WarnContext(ctx, "failed to release trigger run lock", "trigger", key, "error", relErr)
		}
	}()

	cfg := s.triggerConfig(ctx, reg.def)
	settings := decodeSettings(reg.def, cfg.Settings)

	if !cfg.IsActive {
		return &entity.TriggerRunResult{
			TriggerKey: key,
			Success:    true,
			Settings:   settings.ToMap(),
		}, nil
	}

	result := reg.run(ctx, settings)
	result.TriggerKey = key
	result.Settings = settings.ToMap()

	return &result, nil
}
