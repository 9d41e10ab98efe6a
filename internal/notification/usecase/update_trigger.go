package usecase

import (
	"context"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

// UpdateTriggerInput carries a partial trigger configuration update. Nil
// IsActive and empty Settings leave the respective part untouched.
type UpdateTriggerInput struct {
	Key      entity.TriggerKey `validate:"required"`
	IsActive *bool
	Settings valueobject.JSONMap
}

// UpdateTrigger merges a partial update into the persisted trigger config.
//
// Settings keys outside the trigger schema are rejected; accepted values are
// sanitized before persisting so the stored row is always in range.
func (s *Usecase) UpdateTrigger(ctx context.Context, in UpdateTriggerInput) (*entity.TriggerStatus, error) {
	ctx, span := s.startSpan(ctx, "UpdateTrigger")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	reg, ok := s.registry[in.Key]
	if !ok {
		return nil, goerror.NewBusiness("Trigger not found", goerror.CodeNotFound)
	}

	cfg := s.triggerConfig(ctx, reg.def)

	if in.IsActive != nil {
		cfg.IsActive = *in.IsActive
	}

	if len(in.Settings) > 0 {
		allowed := make(map[string]struct{}, len(reg.def.Schema))
		for _, f := range reg.def.Schema {
			allowed[f.Key] = struct{}{}
		}

		for k, v := range in.Settings {
			if _, ok := allowed[k]; !ok {
				return nil, goerror.NewInvalidInput(nil, k, "unknown setting")
			}
			cfg.Settings[k] = v
		}

		cfg.Settings = decodeSettings(reg.def, cfg.Settings).ToMap()
	}

	cfg.UpdatedAt = s.clock.Now().UTC()

	if err := s.repoDB.SaveTriggerConfig(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "failed to save trigger config", "trigger", in.Key, "error", err)

		return nil, goerror.NewServer(err)
	}

	st := s.triggerStatus(ctx, reg)

	return &st, nil
}
