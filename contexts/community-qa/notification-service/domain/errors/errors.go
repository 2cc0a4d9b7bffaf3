package errors

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid notification request")
	ErrUnauthorized          = errors.New("authentication required")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrDuplicateEvent        = errors.New("notification already recorded for event")
	ErrUnsupportedEventType  = errors.New("unsupported notification event type")
	ErrDependencyUnavailable = errors.New("notification dependency unavailable")
)
