package entities

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Bio          string
	Avatar       string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller carried by access tokens.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

func (u User) Identity() Identity {
	return Identity{
		UserID:   u.UserID,
		Username: u.Username,
		Role:     u.Role,
	}
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// AccessToken is a signed bearer token and its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}
