package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"stackit/contexts/community-qa/notification-service/adapters/memory"
	"stackit/contexts/community-qa/notification-service/application"
	"stackit/contexts/community-qa/notification-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
	"stackit/contexts/community-qa/notification-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type staticDirectory map[string]string

func (d staticDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	name, ok := d[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return name, nil
}

func newService(store *memory.Store) application.Service {
	return application.Service{
		Repository: store,
		Directory:  staticDirectory{"helper-1": "helper", "asker-1": "asker"},
		Clock:      fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		IDGen:      store,
	}
}

func envelope(t *testing.T, eventID string, eventType string, payload ports.NotifiablePayload) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: payload.OccurredAt,
		Data:       data,
	}
}

func TestIngestCreatesAnswerNotification(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	occurredAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	result, err := service.Ingest(context.Background(), envelope(t, "evt-1", "qa.answer.posted", ports.NotifiablePayload{
		PostID:      "a-1",
		QuestionID:  "q-1",
		ActorID:     "helper-1",
		RecipientID: "asker-1",
		Excerpt:     "How do I close a channel?",
		OccurredAt:  occurredAt,
	}))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !result.Created {
		t.Fatalf("expected notification to be created, got reason %q", result.Reason)
	}
	if result.Notification.Type != entities.NotificationTypeAnswer {
		t.Fatalf("expected answer notification, got %s", result.Notification.Type)
	}
	if result.Notification.Message != "helper answered your question: How do I close a channel?" {
		t.Fatalf("unexpected message %q", result.Notification.Message)
	}
	if !result.Notification.CreatedAt.Equal(occurredAt) {
		t.Fatalf("expected created_at %s, got %s", occurredAt, result.Notification.CreatedAt)
	}
}

func TestIngestSkipsSelfActionAndDuplicates(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	ctx := context.Background()

	self, err := service.Ingest(ctx, envelope(t, "evt-self", "qa.vote.added", ports.NotifiablePayload{
		PostID: "q-1", QuestionID: "q-1", ActorID: "asker-1", RecipientID: "asker-1",
	}))
	if err != nil {
		t.Fatalf("ingest self failed: %v", err)
	}
	if self.Created || self.Reason != "self_action" {
		t.Fatalf("expected self action skip, got %+v", self)
	}

	event := envelope(t, "evt-2", "qa.vote.added", ports.NotifiablePayload{
		PostID: "q-1", QuestionID: "q-1", ActorID: "helper-1", RecipientID: "asker-1",
	})
	if _, err := service.Ingest(ctx, event); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	replay, err := service.Ingest(ctx, event)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.Created || replay.Reason != "duplicate_event" {
		t.Fatalf("expected duplicate skip, got %+v", replay)
	}

	count, err := service.UnreadCount(ctx, "asker-1")
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread notification, got %d", count)
	}
}

func TestIngestRejectsUnknownAndMalformedEvents(t *testing.T) {
	service := newService(memory.NewStore())
	ctx := context.Background()

	if _, err := service.Ingest(ctx, ports.EventEnvelope{EventID: "evt-x", EventType: "qa.question.created", Data: []byte(`{}`)}); !errors.Is(err, domainerrors.ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported event type, got %v", err)
	}
	if _, err := service.Ingest(ctx, ports.EventEnvelope{EventID: "evt-y", EventType: "qa.answer.accepted", Data: []byte(`{`)}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for malformed payload, got %v", err)
	}
	if _, err := service.Ingest(ctx, ports.EventEnvelope{EventType: "qa.answer.accepted", Data: []byte(`{}`)}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for missing event id, got %v", err)
	}
}

func TestUnknownActorUsesAnonymousName(t *testing.T) {
	service := newService(memory.NewStore())
	result, err := service.Ingest(context.Background(), envelope(t, "evt-3", "qa.answer.accepted", ports.NotifiablePayload{
		PostID: "a-1", QuestionID: "q-1", ActorID: "stranger", RecipientID: "helper-1",
	}))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Notification.Message != "Someone accepted your answer" {
		t.Fatalf("unexpected message %q", result.Notification.Message)
	}
}

func TestListNewestFirstWithLimitAndUnreadFilter(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		_, err := service.Ingest(ctx, envelope(t, fmt.Sprintf("evt-%02d", i), "qa.comment.added", ports.NotifiablePayload{
			PostID:      "a-1",
			QuestionID:  "q-1",
			ActorID:     "asker-1",
			RecipientID: "helper-1",
			OccurredAt:  base.Add(time.Duration(i) * time.Minute),
		}))
		if err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}
	}

	items, err := service.List(ctx, "helper-1", false, 500)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != ports.MaxListLimit {
		t.Fatalf("expected %d items, got %d", ports.MaxListLimit, len(items))
	}
	if !items[0].CreatedAt.Equal(base.Add(59 * time.Minute)) {
		t.Fatalf("expected newest first, got %s", items[0].CreatedAt)
	}

	if err := service.MarkRead(ctx, "helper-1", items[0].NotificationID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	unread, err := service.List(ctx, "helper-1", true, 0)
	if err != nil {
		t.Fatalf("list unread failed: %v", err)
	}
	if len(unread) != ports.DefaultListLimit {
		t.Fatalf("expected default limit %d, got %d", ports.DefaultListLimit, len(unread))
	}
	for _, item := range unread {
		if item.NotificationID == items[0].NotificationID {
			t.Fatalf("expected read notification to be filtered out")
		}
	}
}

func TestMarkReadRequiresOwnership(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	ctx := context.Background()

	result, err := service.Ingest(ctx, envelope(t, "evt-4", "qa.vote.added", ports.NotifiablePayload{
		PostID: "a-1", QuestionID: "q-1", ActorID: "asker-1", RecipientID: "helper-1",
	}))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	err = service.MarkRead(ctx, "asker-1", result.Notification.NotificationID)
	if !errors.Is(err, domainerrors.ErrNotificationNotFound) {
		t.Fatalf("expected not found for foreign notification, got %v", err)
	}
	if err := service.MarkRead(ctx, "helper-1", result.Notification.NotificationID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if err := service.MarkRead(ctx, "helper-1", result.Notification.NotificationID); err != nil {
		t.Fatalf("expected repeated mark read to succeed, got %v", err)
	}
	if _, err := service.UnreadCount(ctx, ""); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without recipient, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := service.Ingest(ctx, envelope(t, fmt.Sprintf("evt-all-%d", i), "qa.vote.added", ports.NotifiablePayload{
			PostID: "a-1", QuestionID: "q-1", ActorID: "asker-1", RecipientID: "helper-1",
		}))
		if err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
	}
	updated, err := service.MarkAllRead(ctx, "helper-1")
	if err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected 3 updated, got %d", updated)
	}
	count, err := service.UnreadCount(ctx, "helper-1")
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
	updated, err = service.MarkAllRead(ctx, "helper-1")
	if err != nil || updated != 0 {
		t.Fatalf("expected second mark all read to update nothing, got %d, %v", updated, err)
	}
}
