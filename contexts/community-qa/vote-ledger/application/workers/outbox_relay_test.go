package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

type recordingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	failAt int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failAt > 0 && len(p.events)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	base := time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC)
	for i, id := range ids {
		err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:      id,
			EventType:    ports.EventTypeVoteAdded,
			OccurredAt:   base.Add(time.Duration(i) * time.Second),
			PartitionKey: "q-1",
		})
		if err != nil {
			t.Fatalf("append outbox failed: %v", err)
		}
	}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1", "evt-2")
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.events) != 2 || publisher.events[0].EventID != "evt-1" || publisher.events[1].EventID != "evt-2" {
		t.Fatalf("unexpected published events: %+v", publisher.events)
	}
	if publisher.topics[0] != ports.EventTypeVoteAdded {
		t.Fatalf("expected topic %s, got %s", ports.EventTypeVoteAdded, publisher.topics[0])
	}
	if pending := store.PendingEvents(); len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle run failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected no republish, got %d events", len(publisher.events))
	}
}

func TestOutboxRelayKeepsRowsAfterPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1", "evt-2", "evt-3")
	publisher := &recordingPublisher{failAt: 2}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure")
	}
	pending := store.PendingEvents()
	if len(pending) != 2 || pending[0].EventID != "evt-2" {
		t.Fatalf("expected evt-2 and evt-3 pending, got %+v", pending)
	}

	publisher.failAt = 0
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	if len(publisher.events) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(publisher.events))
	}
}
