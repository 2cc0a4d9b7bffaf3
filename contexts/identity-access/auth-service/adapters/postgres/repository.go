package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"
	"stackit/contexts/identity-access/auth-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username;not null"`
	UsernameKey  string    `gorm:"column:username_key;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	Bio          string    `gorm:"column:bio"`
	Avatar       string    `gorm:"column:avatar"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "auth_users"
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:       m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Bio:          m.Bio,
		Avatar:       m.Avatar,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
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
	if err := r.db.WithContext(ctx).AutoMigrate(&userModel{}); err != nil {
		return r.logError("auth_repo_automigrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModel{
		ID:           user.UserID,
		Username:     user.Username,
		UsernameKey:  strings.ToLower(user.Username),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Bio:          user.Bio,
		Avatar:       user.Avatar,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("auth_repo_create_user_failed", err, "user_id", user.UserID)
	}
	return nil
}

func (r *Repository) getUser(ctx context.Context, event string, column string, value string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, r.logError(event, err, column, value)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID string) (entities.User, error) {
	return r.getUser(ctx, "auth_repo_get_user_failed", "id", strings.TrimSpace(userID))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.getUser(ctx, "auth_repo_get_user_by_email_failed", "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	return r.getUser(ctx, "auth_repo_get_user_by_username_failed", "username_key", strings.ToLower(strings.TrimSpace(username)))
}

func (r *Repository) UpdateUser(ctx context.Context, user entities.User) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", user.UserID).
		Updates(map[string]any{
			"bio":        user.Bio,
			"avatar":     user.Avatar,
			"role":       user.Role,
			"is_active":  user.IsActive,
			"updated_at": user.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("auth_repo_update_user_failed", result.Error, "user_id", user.UserID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/auth-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("auth repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.UserRepository = (*Repository)(nil)
