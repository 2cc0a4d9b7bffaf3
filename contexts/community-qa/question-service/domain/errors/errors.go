package errors

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrAnswerNotFound        = errors.New("answer not found")
	ErrCommentNotFound       = errors.New("comment not found")
	ErrTagNotFound           = errors.New("tag not found")
	ErrConflict              = errors.New("conflict")
	ErrTagInUse              = errors.New("tag is used by questions")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrContention            = errors.New("ledger contention, retry later")
)
