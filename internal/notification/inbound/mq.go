package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/config"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goroutine"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/messaging"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/uid"
	"github.com/ahorro365app-prog/ahorro-notify/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.ReferralCreatedConsumerNotification,
			topic:   event.ReferralCreatedDestination,
			handler: mqHandler.ReferralCreatedNotification,
		},
		{
			name:    event.ReferralVerifiedConsumerNotification,
			topic:   event.ReferralVerifiedDestination,
			handler: mqHandler.ReferralVerifiedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithGroup(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
				)
			})
		}
	}
}
