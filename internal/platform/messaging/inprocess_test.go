package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"stackit/internal/shared/events"
)

func TestInProcessBusDeliversToSubscribers(t *testing.T) {
	bus := NewInProcessBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	received := make([]string, 0)
	done := make(chan struct{}, 2)
	handler := func(_ context.Context, event events.Envelope) error {
		mu.Lock()
		received = append(received, event.EventID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}
	if err := bus.Subscribe(ctx, events.TypeVoteAdded, "group-a", handler); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := bus.Subscribe(ctx, events.TypeVoteAdded, "group-b", handler); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := bus.Publish(ctx, events.TypeVoteAdded, events.Envelope{EventID: "evt-1", EventType: events.TypeVoteAdded}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.Publish(ctx, events.TypeCommentAdded, events.Envelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish to topic without subscribers failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 || received[0] != "evt-1" || received[1] != "evt-1" {
		t.Fatalf("expected evt-1 delivered twice, got %v", received)
	}
}

func TestInProcessBusRemovesSubscriberOnCancel(t *testing.T) {
	bus := NewInProcessBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := bus.Subscribe(ctx, events.TypeAnswerPosted, "group", func(context.Context, events.Envelope) error { return nil }); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if bus.SubscriberCount(events.TypeAnswerPosted) != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount(events.TypeAnswerPosted) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber to be removed after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDurableNameStripsSubjectTokens(t *testing.T) {
	if got := DurableName("notification-service-cg", "qa.vote.added"); got != "notification-service-cg-qa_vote_added" {
		t.Fatalf("unexpected durable name %q", got)
	}
}
