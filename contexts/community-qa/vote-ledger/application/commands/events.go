package commands

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stackit/contexts/community-qa/vote-ledger/ports"
)

const sourceService = "vote-ledger"

var errNoEventIDGenerator = errors.New("ledger event id generator is not configured")

func newLedgerEnvelope(
	eventID string,
	eventType string,
	questionID string,
	occurredAt time.Time,
	data ports.NotifiablePayload,
) (ports.EventEnvelope, error) {
	// Ledger events are partitioned by question so one thread's votes and
	// acceptance stay ordered for consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "question_id",
		PartitionKey:     questionID,
		Data:             payload,
	}, nil
}

// appendLedgerEvent writes one notifier event to the outbox. A nil outbox
// disables emission; an outbox without an id generator is an error.
func appendLedgerEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	occurredAt time.Time,
	data ports.NotifiablePayload,
) (string, error) {
	if outbox == nil {
		return "", nil
	}
	if idGen == nil {
		return "", errNoEventIDGenerator
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	data.OccurredAt = occurredAt.UTC()
	envelope, err := newLedgerEnvelope(eventID, eventType, data.QuestionID, occurredAt, data)
	if err != nil {
		return "", err
	}
	if err := outbox.AppendOutbox(ctx, envelope); err != nil {
		return "", err
	}
	return eventID, nil
}
