package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/community-qa/notification-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
	"stackit/contexts/community-qa/notification-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type notificationModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	RecipientID string     `gorm:"column:recipient_id;not null;index:idx_qa_notifications_recipient,priority:1"`
	ActorID     string     `gorm:"column:actor_id;not null"`
	Type        string     `gorm:"column:type;not null"`
	PostID      string     `gorm:"column:post_id"`
	QuestionID  string     `gorm:"column:question_id"`
	Message     string     `gorm:"column:message;not null"`
	IsRead      bool       `gorm:"column:is_read;not null;default:false"`
	EventID     string     `gorm:"column:event_id;not null;uniqueIndex"`
	CreatedAt   time.Time  `gorm:"column:created_at;index:idx_qa_notifications_recipient,priority:2"`
	ReadAt      *time.Time `gorm:"column:read_at"`
}

func (notificationModel) TableName() string {
	return "qa_notifications"
}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&notificationModel{}); err != nil {
		return r.logError("notification_repo_automigrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateNotification(ctx context.Context, notification entities.Notification) error {
	row := notificationModel{
		ID:          notification.NotificationID,
		RecipientID: notification.RecipientID,
		ActorID:     notification.ActorID,
		Type:        string(notification.Type),
		PostID:      notification.PostID,
		QuestionID:  notification.QuestionID,
		Message:     notification.Message,
		IsRead:      notification.IsRead,
		EventID:     notification.EventID,
		CreatedAt:   notification.CreatedAt.UTC(),
		ReadAt:      notification.ReadAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateEvent
		}
		return r.logError("notification_repo_create_failed", err, "event_id", notification.EventID)
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]entities.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []notificationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("notification_repo_list_failed", err, "recipient_id", recipientID)
	}
	return lo.Map(rows, func(row notificationModel, _ int) entities.Notification {
		return entities.Notification{
			NotificationID: row.ID,
			RecipientID:    row.RecipientID,
			ActorID:        row.ActorID,
			Type:           entities.NotificationType(row.Type),
			PostID:         row.PostID,
			QuestionID:     row.QuestionID,
			Message:        row.Message,
			IsRead:         row.IsRead,
			EventID:        row.EventID,
			CreatedAt:      row.CreatedAt.UTC(),
			ReadAt:         row.ReadAt,
		}
	}), nil
}

func (r *Repository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, r.logError("notification_repo_count_unread_failed", err, "recipient_id", recipientID)
	}
	return int(count), nil
}

func (r *Repository) MarkRead(ctx context.Context, recipientID string, notificationID string, readAt time.Time) error {
	var row notificationModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", strings.TrimSpace(notificationID), recipientID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrNotificationNotFound
		}
		return r.logError("notification_repo_get_failed", err, "notification_id", notificationID)
	}
	if row.IsRead {
		return nil
	}
	err = r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND is_read = ?", row.ID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt.UTC()}).Error
	if err != nil {
		return r.logError("notification_repo_mark_read_failed", err, "notification_id", row.ID)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt.UTC()})
	if result.Error != nil {
		return 0, r.logError("notification_repo_mark_all_read_failed", result.Error, "recipient_id", recipientID)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-qa/notification-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("notification repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
