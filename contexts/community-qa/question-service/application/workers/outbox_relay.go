package workers

import (
	"context"
	"log/slog"

	application "stackit/contexts/community-qa/question-service/application"
	"stackit/contexts/community-qa/question-service/ports"
	"stackit/internal/shared/outbox"
)

// OutboxRelay publishes persisted content events to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	relay := outbox.Relay{
		Store:     r.Outbox,
		Publisher: r.Publisher,
		BatchSize: r.BatchSize,
		Logger:    application.ResolveLogger(r.Logger),
		Module:    "community-qa/question-service",
		Prefix:    "question",
	}
	if r.Clock != nil {
		relay.Now = r.Clock.Now
	}
	return relay.RunOnce(ctx)
}
