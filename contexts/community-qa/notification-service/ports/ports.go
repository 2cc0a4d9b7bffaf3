package ports

import (
	"context"
	"time"

	"stackit/contexts/community-qa/notification-service/domain/entities"
	"stackit/internal/shared/events"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 50
)

// ClampLimit keeps list sizes within [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Repository stores notifications. CreateNotification returns
// domainerrors.ErrDuplicateEvent when a row with the same EventID exists.
type Repository interface {
	CreateNotification(ctx context.Context, notification entities.Notification) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]entities.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID string, notificationID string, readAt time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int, error)
}

// UserDirectory resolves display names for notification messages.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type EventEnvelope = events.Envelope

type NotifiablePayload = events.NotifiablePayload

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Topics consumed by the notifier.
var NotifiableTopics = []string{
	events.TypeVoteAdded,
	events.TypeAnswerAccepted,
	events.TypeAnswerPosted,
	events.TypeCommentAdded,
}
