package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/community-qa/notification-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
	"stackit/contexts/community-qa/notification-service/domain/services"
	"stackit/contexts/community-qa/notification-service/ports"
)

type Service struct {
	Repository ports.Repository
	Directory  ports.UserDirectory
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// IngestResult reports whether an event produced a new notification.
type IngestResult struct {
	Notification entities.Notification
	Created      bool
	Reason       string
}

const (
	skipSelfAction   = "self_action"
	skipNoRecipient  = "no_recipient"
	skipDuplicate    = "duplicate_event"
	createdReasonNew = "created"
)

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// Ingest turns one bus event into a notification. Self actions and replays
// of an already recorded event are skipped without error.
func (s Service) Ingest(ctx context.Context, event ports.EventEnvelope) (IngestResult, error) {
	logger := ResolveLogger(s.Logger)
	kind, err := services.TypeForEvent(event.EventType)
	if err != nil {
		return IngestResult{}, err
	}
	if strings.TrimSpace(event.EventID) == "" {
		return IngestResult{}, fmt.Errorf("%w: event_id is required", domainerrors.ErrInvalidRequest)
	}
	var payload ports.NotifiablePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return IngestResult{}, fmt.Errorf("%w: decode payload: %w", domainerrors.ErrInvalidRequest, err)
	}

	recipientID := strings.TrimSpace(payload.RecipientID)
	actorID := strings.TrimSpace(payload.ActorID)
	if recipientID == "" {
		return IngestResult{Reason: skipNoRecipient}, nil
	}
	if recipientID == actorID {
		return IngestResult{Reason: skipSelfAction}, nil
	}

	notificationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	createdAt := payload.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = event.OccurredAt.UTC()
	}
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	notification := entities.Notification{
		NotificationID: notificationID,
		RecipientID:    recipientID,
		ActorID:        actorID,
		Type:           kind,
		PostID:         payload.PostID,
		QuestionID:     payload.QuestionID,
		Message:        services.Message(kind, s.displayName(ctx, actorID), payload.PostID, payload.QuestionID, payload.Excerpt),
		EventID:        event.EventID,
		CreatedAt:      createdAt,
	}
	if err := s.Repository.CreateNotification(ctx, notification); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateEvent) {
			return IngestResult{Reason: skipDuplicate}, nil
		}
		return IngestResult{}, err
	}

	logger.Info("notification created",
		"event", "notification_created",
		"module", "community-qa/notification-service",
		"layer", "application",
		"notification_id", notification.NotificationID,
		"recipient_id", recipientID,
		"type", string(kind),
		"source_event_id", event.EventID,
	)
	return IngestResult{Notification: notification, Created: true, Reason: createdReasonNew}, nil
}

func (s Service) displayName(ctx context.Context, userID string) string {
	if s.Directory == nil || userID == "" {
		return ""
	}
	name, err := s.Directory.DisplayName(ctx, userID)
	if err != nil {
		ResolveLogger(s.Logger).Warn("notification actor lookup failed",
			"event", "notification_actor_lookup_failed",
			"module", "community-qa/notification-service",
			"layer", "application",
			"actor_id", userID,
			"error", err.Error(),
		)
		return ""
	}
	return name
}

func requireRecipient(recipientID string) (string, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return "", domainerrors.ErrUnauthorized
	}
	return recipientID, nil
}

func (s Service) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]entities.Notification, error) {
	recipientID, err := requireRecipient(recipientID)
	if err != nil {
		return nil, err
	}
	return s.Repository.ListNotifications(ctx, recipientID, unreadOnly, ports.ClampLimit(limit))
}

func (s Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	recipientID, err := requireRecipient(recipientID)
	if err != nil {
		return 0, err
	}
	return s.Repository.CountUnread(ctx, recipientID)
}

// MarkRead reports ErrNotificationNotFound for notifications owned by
// someone else.
func (s Service) MarkRead(ctx context.Context, recipientID string, notificationID string) error {
	recipientID, err := requireRecipient(recipientID)
	if err != nil {
		return err
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repository.MarkRead(ctx, recipientID, notificationID, s.now())
}

func (s Service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	recipientID, err := requireRecipient(recipientID)
	if err != nil {
		return 0, err
	}
	updated, err := s.Repository.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return 0, err
	}
	ResolveLogger(s.Logger).Debug("notifications marked read",
		"event", "notifications_marked_read",
		"module", "community-qa/notification-service",
		"layer", "application",
		"recipient_id", recipientID,
		"updated", updated,
	)
	return updated, nil
}
