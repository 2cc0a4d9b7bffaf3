package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"stackit/contexts/community-qa/notification-service/application"
	"stackit/contexts/community-qa/notification-service/domain/entities"
	httptransport "stackit/contexts/community-qa/notification-service/transport/http"

	"github.com/samber/lo"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ListNotificationsHandler(
	ctx context.Context,
	recipientID string,
	unreadOnly bool,
	limit int,
) (httptransport.ListNotificationsResponse, error) {
	items, err := h.Service.List(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return httptransport.ListNotificationsResponse{}, err
	}
	unread, err := h.Service.UnreadCount(ctx, recipientID)
	if err != nil {
		return httptransport.ListNotificationsResponse{}, err
	}
	return httptransport.ListNotificationsResponse{
		Notifications: lo.Map(items, func(item entities.Notification, _ int) httptransport.NotificationResponse {
			return toNotificationResponse(item)
		}),
		UnreadCount: unread,
	}, nil
}

func (h Handler) UnreadCountHandler(ctx context.Context, recipientID string) (httptransport.UnreadCountResponse, error) {
	count, err := h.Service.UnreadCount(ctx, recipientID)
	if err != nil {
		return httptransport.UnreadCountResponse{}, err
	}
	return httptransport.UnreadCountResponse{UnreadCount: count}, nil
}

func (h Handler) MarkReadHandler(ctx context.Context, recipientID string, notificationID string) error {
	return h.Service.MarkRead(ctx, recipientID, notificationID)
}

func (h Handler) MarkAllReadHandler(ctx context.Context, recipientID string) (httptransport.MarkAllReadResponse, error) {
	updated, err := h.Service.MarkAllRead(ctx, recipientID)
	if err != nil {
		return httptransport.MarkAllReadResponse{}, err
	}
	return httptransport.MarkAllReadResponse{Updated: updated}, nil
}

func toNotificationResponse(item entities.Notification) httptransport.NotificationResponse {
	response := httptransport.NotificationResponse{
		NotificationID: item.NotificationID,
		Type:           string(item.Type),
		ActorID:        item.ActorID,
		PostID:         item.PostID,
		QuestionID:     item.QuestionID,
		Message:        item.Message,
		IsRead:         item.IsRead,
		CreatedAt:      item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.ReadAt != nil {
		response.ReadAt = item.ReadAt.UTC().Format(time.RFC3339)
	}
	return response
}
