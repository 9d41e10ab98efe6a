package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
)

// GetTriggerStatus returns the current state of one registered trigger.
func (s *Usecase) GetTriggerStatus(ctx context.Context, key entity.TriggerKey) (*entity.TriggerStatus, error) {
	ctx, span := s.startSpan(ctx, "GetTriggerStatus")
	defer span.End()

	reg, ok := s.registry[key]
	if !ok {
		return nil, goerror.NewBusiness("Trigger not found", goerror.CodeNotFound)
	}

	st := s.triggerStatus(ctx, reg)

	return &st, nil
}

// ListTriggerStatuses returns every registered trigger in registration order.
func (s *Usecase) ListTriggerStatuses(ctx context.Context) ([]entity.TriggerStatus, error) {
	ctx, span := s.startSpan(ctx, "ListTriggerStatuses")
	defer span.End()

	out := make([]entity.TriggerStatus, 0, len(s.registryKeys))
	for _, key := range s.registryKeys {
		out = append(out, s.triggerStatus(ctx, s.registry[key]))
	}

	return out, nil
}

// triggerStatus builds the external view of one trigger: sanitized effective
// settings plus the most recent ledger entry.
func (s *Usecase) triggerStatus(ctx context.Context, reg registryEntry) entity.TriggerStatus {
	cfg := s.triggerConfig(ctx, reg.def)
	settings := decodeSettings(reg.def, cfg.Settings)

	st := entity.TriggerStatus{
		Key:          reg.def.Key,
		Label:        reg.def.Label,
		Description:  reg.def.Description,
		IsActive:     cfg.IsActive,
		Settings:     settings.ToMap(),
		SettingsMeta: reg.def.Schema,
	}

	last, err := s.repoDB.LastTriggerLog(ctx, reg.def.Key)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "failed to load last trigger log", "trigger", reg.def.Key, "error", err)
	}
	if last != nil {
		st.LastRun = &entity.TriggerLastRun{SentAt: last.SentAt, Summary: last.Context}
	}

	return st
}
