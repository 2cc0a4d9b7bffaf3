package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stackit/contexts/community-qa/notification-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
	"stackit/contexts/community-qa/notification-service/ports"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Store struct {
	mu sync.RWMutex

	notifications map[string]entities.Notification
	byEvent       map[string]string
}

func NewStore() *Store {
	return &Store{
		notifications: make(map[string]entities.Notification),
		byEvent:       make(map[string]string),
	}
}

func (s *Store) CreateNotification(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEvent[notification.EventID]; exists {
		return domainerrors.ErrDuplicateEvent
	}
	s.notifications[notification.NotificationID] = notification
	s.byEvent[notification.EventID] = notification.NotificationID
	return nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID string, unreadOnly bool, limit int) ([]entities.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := lo.Filter(lo.Values(s.notifications), func(item entities.Notification, _ int) bool {
		return item.RecipientID == recipientID && (!unreadOnly || !item.IsRead)
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].NotificationID > items[j].NotificationID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.CountBy(lo.Values(s.notifications), func(item entities.Notification) bool {
		return item.RecipientID == recipientID && !item.IsRead
	}), nil
}

func (s *Store) MarkRead(_ context.Context, recipientID string, notificationID string, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.notifications[strings.TrimSpace(notificationID)]
	if !ok || item.RecipientID != recipientID {
		return domainerrors.ErrNotificationNotFound
	}
	if item.IsRead {
		return nil
	}
	readAt = readAt.UTC()
	item.IsRead = true
	item.ReadAt = &readAt
	s.notifications[item.NotificationID] = item
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, recipientID string, readAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	readAt = readAt.UTC()
	updated := 0
	for id, item := range s.notifications {
		if item.RecipientID != recipientID || item.IsRead {
			continue
		}
		at := readAt
		item.IsRead = true
		item.ReadAt = &at
		s.notifications[id] = item
		updated++
	}
	return updated, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
