package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"
	"stackit/contexts/identity-access/auth-service/domain/services"
	"stackit/contexts/identity-access/auth-service/ports"
)

type Service struct {
	Users       ports.UserRepository
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenIssuer
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	AdminEmails []string
	Logger      *slog.Logger
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput leaves nil fields unchanged.
type UpdateProfileInput struct {
	Bio    *string
	Avatar *string
}

// Session is returned by register, login and refresh.
type Session struct {
	User  entities.User
	Token entities.AccessToken
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) isAdminEmail(email string) bool {
	for _, candidate := range s.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}

func (s Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	logger := ResolveLogger(s.Logger)
	username, err := services.ValidateUsername(input.Username)
	if err != nil {
		return Session{}, err
	}
	email, err := services.NormalizeEmail(input.Email)
	if err != nil {
		return Session{}, err
	}
	if err := services.ValidatePassword(input.Password); err != nil {
		return Session{}, err
	}

	hash, err := s.Hasher.Hash(input.Password)
	if err != nil {
		return Session{}, err
	}
	userID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	user := entities.User{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         entities.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.isAdminEmail(email) {
		user.Role = entities.RoleAdmin
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}

	token, err := s.Tokens.Issue(ctx, user.Identity())
	if err != nil {
		return Session{}, err
	}
	logger.Info("user registered",
		"event", "user_registered",
		"module", "identity-access/auth-service",
		"layer", "application",
		"user_id", user.UserID,
		"role", user.Role,
	)
	return Session{User: user, Token: token}, nil
}

// Login reports ErrInvalidCredentials for unknown emails, inactive users and
// wrong passwords alike.
func (s Service) Login(ctx context.Context, email string, password string) (Session, error) {
	logger := ResolveLogger(s.Logger)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, domainerrors.ErrInvalidRequest
	}
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return Session{}, domainerrors.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, domainerrors.ErrInvalidCredentials
	}
	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		logger.Warn("login rejected",
			"event", "auth_login_rejected",
			"module", "identity-access/auth-service",
			"layer", "application",
			"user_id", user.UserID,
		)
		return Session{}, domainerrors.ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(ctx, user.Identity())
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to the identity of an active user.
func (s Service) Authenticate(ctx context.Context, token string) (entities.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entities.Identity{}, domainerrors.ErrUnauthorized
	}
	identity, err := s.Tokens.Verify(ctx, token)
	if err != nil {
		return entities.Identity{}, err
	}
	user, err := s.Users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return entities.Identity{}, domainerrors.ErrInvalidToken
		}
		return entities.Identity{}, err
	}
	if !user.IsActive {
		return entities.Identity{}, domainerrors.ErrInvalidToken
	}
	return user.Identity(), nil
}

// Refresh issues a fresh token carrying the user's current role.
func (s Service) Refresh(ctx context.Context, token string) (Session, error) {
	identity, err := s.Authenticate(ctx, token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.Users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return Session{}, err
	}
	fresh, err := s.Tokens.Issue(ctx, user.Identity())
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: fresh}, nil
}

func (s Service) Me(ctx context.Context, userID string) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, domainerrors.ErrUnauthorized
	}
	return s.Users.GetUserByID(ctx, userID)
}

func (s Service) Profile(ctx context.Context, username string) (entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return entities.User{}, domainerrors.ErrInvalidRequest
	}
	user, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return entities.User{}, err
	}
	if !user.IsActive {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (entities.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}
	if input.Bio != nil {
		if user.Bio, err = services.ValidateBio(*input.Bio); err != nil {
			return entities.User{}, err
		}
	}
	if input.Avatar != nil {
		if user.Avatar, err = services.ValidateAvatar(*input.Avatar); err != nil {
			return entities.User{}, err
		}
	}
	user.UpdatedAt = s.now()
	if err := s.Users.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

// DisplayName returns the username for a user id.
func (s Service) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.Users.GetUserByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
