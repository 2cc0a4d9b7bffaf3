package workers

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"stackit/contexts/community-qa/question-service/adapters/memory"
	"stackit/contexts/community-qa/question-service/ports"
)

type topicPublisher struct {
	topics []string
}

func (p *topicPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

func TestOutboxRelayPublishesContentEvents(t *testing.T) {
	store := memory.NewStore()
	for _, envelope := range []ports.EventEnvelope{
		{EventID: "evt-1", EventType: ports.EventTypeAnswerPosted},
		{EventID: "evt-2", EventType: ports.EventTypeCommentAdded},
	} {
		if err := store.AppendOutbox(context.Background(), envelope); err != nil {
			t.Fatalf("append outbox failed: %v", err)
		}
	}
	var logs bytes.Buffer
	publisher := &topicPublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Logger:    slog.New(slog.NewJSONHandler(&logs, nil)),
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.topics) != 2 || publisher.topics[1] != ports.EventTypeCommentAdded {
		t.Fatalf("unexpected topics: %v", publisher.topics)
	}
	if pending := store.PendingEvents(); len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
	if out := logs.String(); !strings.Contains(out, `"event":"question_outbox_relay_completed"`) || !strings.Contains(out, `"module":"community-qa/question-service"`) {
		t.Fatalf("expected question-service completion log, got %s", out)
	}
}
