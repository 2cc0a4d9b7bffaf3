package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"

	"golang.org/x/crypto/bcrypt"
)

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time {
	return c.now
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("Secret1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Secret1" {
		t.Fatalf("expected hash to differ from password")
	}
	if err := hasher.Compare(hash, "Secret1"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
	if err := hasher.Compare(hash, "secret1"); !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestJWTIssuerIssueAndVerify(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	issuer := NewJWTIssuer("test-secret", time.Hour, clock)
	ctx := context.Background()

	token, err := issuer.Issue(ctx, entities.Identity{UserID: "u-1", Username: "ana", Role: entities.RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !token.ExpiresAt.Equal(clock.now.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour ahead, got %s", token.ExpiresAt)
	}
	identity, err := issuer.Verify(ctx, token.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity.UserID != "u-1" || identity.Username != "ana" || identity.Role != entities.RoleAdmin {
		t.Fatalf("unexpected identity %+v", identity)
	}

	clock.now = clock.now.Add(2 * time.Hour)
	if _, err := issuer.Verify(ctx, token.Token); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestJWTIssuerRejectsForeignSignature(t *testing.T) {
	clock := &movableClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()
	token, err := NewJWTIssuer("other-secret", 0, clock).Issue(ctx, entities.Identity{UserID: "u-1", Role: entities.RoleUser})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := NewJWTIssuer("test-secret", 0, clock).Verify(ctx, token.Token); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
	if _, err := NewJWTIssuer("test-secret", 0, clock).Verify(ctx, "not.a.token"); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected malformed token to be rejected, got %v", err)
	}
}
