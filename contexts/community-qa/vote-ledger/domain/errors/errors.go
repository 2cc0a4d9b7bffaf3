package errors

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid ledger request")
	ErrNotFound          = errors.New("post not found")
	ErrForbidden         = errors.New("actor is not allowed to perform this action")
	ErrSelfVoteForbidden = errors.New("self voting is forbidden")
	ErrMismatch          = errors.New("answer does not belong to question")
	ErrConflict          = errors.New("post already registered with different attributes")
	ErrVersionConflict   = errors.New("post version conflict")
	ErrContention        = errors.New("post is under contention, retry later")
)
