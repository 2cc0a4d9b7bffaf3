package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stackit/internal/shared/events"
)

type Store interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

const defaultBatchSize = 100

// Relay moves pending rows from a Store to a Publisher. Prefix names the
// log events ("ledger" yields "ledger_outbox_relay_completed") and Module is
// logged as the owning module.
type Relay struct {
	Store     Store
	Publisher Publisher
	Now       func() time.Time
	BatchSize int
	Logger    *slog.Logger
	Module    string
	Prefix    string
}

// RunOnce publishes a bounded batch of pending rows and marks each row
// published only after the publish succeeds. It stops on the first failure
// so the next cycle reprocesses the remaining rows.
func (r Relay) RunOnce(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", r.Module, "layer", "worker")
	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultBatchSize
	}

	pending, err := r.Store.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error(r.Prefix+" outbox list failed",
			"event", r.Prefix+"_outbox_list_failed",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug(r.Prefix+" outbox relay found no pending rows",
			"event", r.Prefix+"_outbox_relay_noop",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Now != nil {
		now = r.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error(r.Prefix+" outbox decode failed",
				"event", r.Prefix+"_outbox_decode_failed",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error(r.Prefix+" outbox publish failed",
				"event", r.Prefix+"_outbox_publish_failed",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Store.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error(r.Prefix+" outbox mark published failed",
				"event", r.Prefix+"_outbox_mark_published_failed",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info(r.Prefix+" outbox relay cycle completed",
		"event", r.Prefix+"_outbox_relay_completed",
		"published_count", len(pending),
	)
	return nil
}
