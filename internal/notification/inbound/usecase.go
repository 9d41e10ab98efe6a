package inbound

import (
	"context"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/usecase"
)

type ucConsumer interface {
	TriggerReferralInvitedForIDs(ctx context.Context, ids []int64) (*entity.TriggerRunResult, error)
	TriggerReferralVerifiedForIDs(ctx context.Context, ids []int64) (*entity.TriggerRunResult, error)
}

type uc interface {
	ucConsumer

	ListTriggerStatuses(ctx context.Context) ([]entity.TriggerStatus, error)
	GetTriggerStatus(ctx context.Context, key entity.TriggerKey) (*entity.TriggerStatus, error)
	UpdateTrigger(ctx context.Context, in usecase.UpdateTriggerInput) (*entity.TriggerStatus, error)
	RunTriggerByKey(ctx context.Context, key entity.TriggerKey) (*entity.TriggerRunResult, error)
	ExecuteCampaign(ctx context.Context, id int64) (*entity.CampaignExecutionResult, error)
}
