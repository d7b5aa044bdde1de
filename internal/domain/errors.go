package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// One-time-code lifecycle.
	ErrAlreadyInProgress = errors.New("a code is already pending; wait until it expires")
	ErrAlreadyCompleted  = errors.New("already verified")
	ErrInvalidOrExpired  = errors.New("invalid or expired code")

	// ErrTransport marks an email delivery failure.
	ErrTransport = errors.New("email delivery failed")
)
