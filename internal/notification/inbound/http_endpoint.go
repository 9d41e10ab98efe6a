package inbound

import (
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/usecase"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListTriggers returns every registered notification trigger.
// @Summary List notification triggers
// @Description Returns every registered trigger with its effective settings and last run.
// @Tags Trigger
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=TriggerStatusesResponse} "Trigger list"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/triggers [get]
func (h *HTTPEndpoint) ListTriggers(r *router.Request) (any, error) {
	items, err := h.uc.ListTriggerStatuses(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]TriggerStatusResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toTriggerStatusResponse(item))
	}

	return TriggerStatusesResponse{Triggers: resp}, nil
}

// GetTrigger returns a single notification trigger.
// @Summary Get notification trigger
// @Description Returns one trigger with its effective settings and last run.
// @Tags Trigger
// @Security BearerAuth
// @Produce json
// @Param key path string true "Trigger key"
// @Success 200 {object} router.successResponse{data=TriggerStatusResponse} "Trigger detail"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Trigger not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/triggers/{key} [get]
func (h *HTTPEndpoint) GetTrigger(r *router.Request) (any, error) {
	st, err := h.uc.GetTriggerStatus(r.Context(), entity.TriggerKey(r.GetParam("key")))
	if err != nil {
		return nil, err
	}

	return toTriggerStatusResponse(*st), nil
}

// UpdateTrigger partially updates a trigger configuration.
// @Summary Update notification trigger
// @Description Updates the activation flag and settings overrides of a trigger.
// @Tags Trigger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param key path string true "Trigger key"
// @Param request body UpdateTriggerRequest true "Trigger update payload"
// @Success 200 {object} router.successResponse{data=TriggerStatusResponse} "Updated trigger"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Trigger not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/triggers/{key} [patch]
func (h *HTTPEndpoint) UpdateTrigger(r *router.Request) (any, error) {
	var req UpdateTriggerRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	st, err := h.uc.UpdateTrigger(r.Context(), usecase.UpdateTriggerInput{
		Key:      entity.TriggerKey(r.GetParam("key")),
		IsActive: req.IsActive,
		Settings: req.Settings,
	})
	if err != nil {
		return nil, err
	}

	return toTriggerStatusResponse(*st), nil
}

// RunTrigger executes one trigger run.
// @Summary Run notification trigger
// @Description Executes the trigger immediately and returns its run counters.
// @Tags Trigger
// @Security BearerAuth
// @Produce json
// @Param key path string true "Trigger key"
// @Success 200 {object} router.successResponse{data=entity.TriggerRunResult} "Run result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Trigger not found"
// @Failure 409 {object} router.errorResponse "Run already in progress"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/triggers/{key}/run [post]
func (h *HTTPEndpoint) RunTrigger(r *router.Request) (any, error) {
	return h.uc.RunTriggerByKey(r.Context(), entity.TriggerKey(r.GetParam("key")))
}

// ExecuteCampaign executes a scheduled campaign.
// @Summary Execute campaign
// @Description Claims a scheduled campaign and fans its pushes out to the resolved segment.
// @Tags Campaign
// @Security BearerAuth
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} router.successResponse{data=entity.CampaignExecutionResult} "Execution result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Campaign not found"
// @Failure 409 {object} router.errorResponse "Campaign not schedulable"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/campaigns/{id}/execute [post]
func (h *HTTPEndpoint) ExecuteCampaign(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return h.uc.ExecuteCampaign(r.Context(), id)
}
