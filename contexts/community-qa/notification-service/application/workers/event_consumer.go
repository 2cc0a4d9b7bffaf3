package workers

import (
	"context"
	"errors"
	"log/slog"

	application "stackit/contexts/community-qa/notification-service/application"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
	"stackit/contexts/community-qa/notification-service/ports"
)

const defaultConsumerGroupName = "notification-service-cg"

// EventConsumer subscribes the notifier to every notifiable Q&A topic.
type EventConsumer struct {
	Subscriber    ports.EventSubscriber
	Service       application.Service
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c EventConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := c.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroupName
	}
	for _, topic := range ports.NotifiableTopics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			logger.Error("notification consumer subscribe failed",
				"event", "notification_consumer_subscribe_failed",
				"module", "community-qa/notification-service",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("notification consumer subscribed",
		"event", "notification_consumer_subscribed",
		"module", "community-qa/notification-service",
		"layer", "worker",
		"topics", len(ports.NotifiableTopics),
		"consumer_group", group,
	)
	return nil
}

func (c EventConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	result, err := c.Service.Ingest(ctx, event)
	if err != nil {
		// Malformed events are dropped; redelivery cannot fix them.
		if errors.Is(err, domainerrors.ErrInvalidRequest) || errors.Is(err, domainerrors.ErrUnsupportedEventType) {
			logger.Warn("notification event rejected",
				"event", "notification_event_rejected",
				"module", "community-qa/notification-service",
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return nil
		}
		logger.Error("notification ingestion failed",
			"event", "notification_ingestion_failed",
			"module", "community-qa/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if !result.Created {
		logger.Debug("notification event skipped",
			"event", "notification_event_skipped",
			"module", "community-qa/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
			"reason", result.Reason,
		)
	}
	return nil
}
