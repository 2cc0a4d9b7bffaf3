package services

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	domainerrors "stackit/contexts/identity-access/auth-service/domain/errors"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	PasswordMinLength = 6
	BioMaxLength      = 500
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domainerrors.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	length := utf8.RuneCountInString(username)
	if length < UsernameMinLength || length > UsernameMaxLength {
		return "", invalid("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	}
	if !usernamePattern.MatchString(username) {
		return "", invalid("username may only contain letters, numbers and underscores")
	}
	return username, nil
}

// NormalizeEmail lowercases a bare address and rejects display-name forms.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email is required")
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", invalid("email is not valid")
	}
	return email, nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return invalid("password must be at least %d characters", PasswordMinLength)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return invalid("password must contain a lowercase letter, an uppercase letter and a digit")
	}
	return nil
}

func ValidateBio(bio string) (string, error) {
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return "", invalid("bio must be at most %d characters", BioMaxLength)
	}
	return bio, nil
}

// ValidateAvatar accepts an empty value or an absolute http(s) URL.
func ValidateAvatar(avatar string) (string, error) {
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return "", nil
	}
	parsed, err := url.Parse(avatar)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", invalid("avatar must be an http or https URL")
	}
	return avatar, nil
}
