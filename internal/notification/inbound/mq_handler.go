package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/messaging"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/uid"
	"github.com/ahorro365app-prog/ahorro-notify/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) ReferralCreatedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ReferralCreatedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: referral created notification", "msg_body", string(body))

	var payload event.ReferralCreatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of referral created notification", "msg_body", string(body), "error", err)
		return nil
	}

	result, err := h.uc.TriggerReferralInvitedForIDs(ctx, []int64{payload.ReferralID})
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume referral created", "msg_body", string(body), "error", err)
		return err
	}
	if !result.Success {
		slog.ErrorContext(ctx, "referral created run finished with error", "msg_body", string(body), "run_error", result.Error)
	}

	return nil
}

func (h *MQHandler) ReferralVerifiedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ReferralVerifiedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: referral verified notification", "msg_body", string(body))

	var payload event.ReferralVerifiedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of referral verified notification", "msg_body", string(body), "error", err)
		return nil
	}

	result, err := h.uc.TriggerReferralVerifiedForIDs(ctx, []int64{payload.ReferralID})
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume referral verified", "msg_body", string(body), "error", err)
		return err
	}
	if !result.Success {
		slog.ErrorContext(ctx, "referral verified run finished with error", "msg_body", string(body), "run_error", result.Error)
	}

	return nil
}
