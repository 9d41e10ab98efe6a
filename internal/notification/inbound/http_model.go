package inbound

import (
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

type UpdateTriggerRequest struct {
	IsActive *bool               `json:"is_active"`
	Settings valueobject.JSONMap `json:"settings" swaggertype:"object"`
}

type TriggerSettingFieldResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Step  int    `json:"step"`
}

type TriggerLastRunResponse struct {
	SentAt  time.Time           `json:"sent_at"`
	Summary valueobject.JSONMap `json:"summary" swaggertype:"object"`
}

type TriggerStatusResponse struct {
	Key          string                        `json:"key"`
	Label        string                        `json:"label"`
	Description  string                        `json:"description"`
	IsActive     bool                          `json:"is_active"`
	Settings     valueobject.JSONMap           `json:"settings" swaggertype:"object"`
	SettingsMeta []TriggerSettingFieldResponse `json:"settings_meta"`
	LastRun      *TriggerLastRunResponse       `json:"last_run,omitempty"`
}

type TriggerStatusesResponse struct {
	Triggers []TriggerStatusResponse `json:"triggers"`
}

func toTriggerStatusResponse(st entity.TriggerStatus) TriggerStatusResponse {
	meta := make([]TriggerSettingFieldResponse, 0, len(st.SettingsMeta))
	for _, f := range st.SettingsMeta {
		meta = append(meta, TriggerSettingFieldResponse{
			Key:   f.Key,
			Label: f.Label,
			Kind:  string(f.Kind),
			Min:   f.Min,
			Max:   f.Max,
			Step:  f.Step,
		})
	}

	resp := TriggerStatusResponse{
		Key:          st.Key.String(),
		Label:        st.Label,
		Description:  st.Description,
		IsActive:     st.IsActive,
		Settings:     st.Settings,
		SettingsMeta: meta,
	}
	if st.LastRun != nil {
		resp.LastRun = &TriggerLastRunResponse{SentAt: st.LastRun.SentAt, Summary: st.LastRun.Summary}
	}

	return resp
}
