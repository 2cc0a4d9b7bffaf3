package errors

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid auth request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("authentication required")
	ErrUserNotFound       = errors.New("user not found")
	ErrConflict           = errors.New("username or email already registered")
)
