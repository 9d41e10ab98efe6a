package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
)

// triggerConfig loads the persisted configuration of a trigger, materializing
// a default row on first read.
//
// The persisted settings are sparse overrides. They are merged over the
// definition defaults so the returned config always carries every key. A
// failure to read or to materialize the row never fails the caller; the
// in-memory defaults are authoritative enough to run with.
func (s *Usecase) triggerConfig(ctx context.Context, def entity.TriggerDefinition) entity.TriggerConfig {
	row, err := s.repoDB.GetTriggerConfig(ctx, def.Key)
	if err == nil && row != nil {
		merged := def.DefaultSettings.ToMap()
		for k, v := range row.Settings {
			merged[k] = v
		}
		row.Settings = merged

		return *row
	}

	cfg := entity.TriggerConfig{
		TriggerKey: def.Key,
		IsActive:   true,
		Settings:   def.DefaultSettings.ToMap(),
		UpdatedAt:  s.clock.Now().UTC(),
	}

	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to load trigger config, falling back to defaults",
			"trigger", def.Key, "error", err)

		return cfg
	}

	if saveErr := s.repoDB.SaveTriggerConfig(ctx, cfg); saveErr != nil {
		slog.ErrorContext(ctx, "failed to materialize default trigger config",
			"trigger", def.Key, "error", saveErr)
	}

	return cfg
}
