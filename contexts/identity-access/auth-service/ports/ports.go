package ports

import (
	"context"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
)

// UserRepository lookups return domainerrors.ErrUserNotFound for unknown
// users; CreateUser returns domainerrors.ErrConflict when the username or
// email is taken. Username lookups are case-insensitive.
type UserRepository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUserByID(ctx context.Context, userID string) (entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (entities.User, error)
	UpdateUser(ctx context.Context, user entities.User) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

// TokenIssuer signs and verifies access tokens. Verify returns
// domainerrors.ErrInvalidToken for malformed, tampered or expired tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, identity entities.Identity) (entities.AccessToken, error)
	Verify(ctx context.Context, token string) (entities.Identity, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
