package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"
	"stackit/contexts/identity-access/auth-service/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	tokenIssuer     = "stackit"
)

type accessClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens with subject, role and username claims.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Clock  ports.Clock
}

func NewJWTIssuer(secret string, ttl time.Duration, clock ports.Clock) JWTIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return JWTIssuer{
		Secret: []byte(secret),
		TTL:    ttl,
		Clock:  clock,
	}
}

func (i JWTIssuer) now() time.Time {
	if i.Clock == nil {
		return time.Now().UTC()
	}
	return i.Clock.Now().UTC()
}

func (i JWTIssuer) Issue(_ context.Context, identity entities.Identity) (entities.AccessToken, error) {
	if len(i.Secret) == 0 {
		return entities.AccessToken{}, errors.New("jwt secret is not configured")
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuedAt := i.now()
	expiresAt := issuedAt.Add(ttl)
	claims := accessClaims{
		Role:     identity.Role,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return entities.AccessToken{}, err
	}
	return entities.AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (i JWTIssuer) Verify(_ context.Context, token string) (entities.Identity, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return entities.Identity{}, fmt.Errorf("%w: %w", domainerrors.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return entities.Identity{}, domainerrors.ErrInvalidToken
	}
	return entities.Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

var _ ports.TokenIssuer = JWTIssuer{}
var _ ports.PasswordHasher = BcryptHasher{}
