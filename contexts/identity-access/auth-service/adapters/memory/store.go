package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"stackit/contexts/identity-access/auth-service/domain/entities"
	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"
	"stackit/contexts/identity-access/auth-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	users      map[string]entities.User
	byEmail    map[string]string
	byUsername map[string]string
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]entities.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.UserID]; exists {
		return domainerrors.ErrConflict
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return domainerrors.ErrConflict
	}
	if _, exists := s.byUsername[usernameKey(user.Username)]; exists {
		return domainerrors.ErrConflict
	}
	s.users[user.UserID] = user
	s.byEmail[user.Email] = user.UserID
	s.byUsername[usernameKey(user.Username)] = user.UserID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[usernameKey(username)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

// UpdateUser rewrites profile fields; identity fields stay as created.
func (s *Store) UpdateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[user.UserID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	current.Bio = user.Bio
	current.Avatar = user.Avatar
	current.Role = user.Role
	current.IsActive = user.IsActive
	current.UpdatedAt = user.UpdatedAt
	s.users[user.UserID] = current
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.UserRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
