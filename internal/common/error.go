// Package common defines the shared error taxonomy used across the gateway
// and the internal services. Callers should use errors.Is to match the
// sentinel values.
package common

import (
	"errors"
	"net/http"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// RPC channel errors.
	ErrTimedOut = errors.New("request timed out")

	// Token lifecycle errors. All three surface as Unauthorized at the
	// boundary but stay distinguishable in logs.
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token payload")
)

// StatusError is an HTTP-style exception: a status code plus a message that
// is safe to cross a process boundary. Code optionally carries a
// machine-readable identifier.
type StatusError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Is maps the status code back onto the sentinel taxonomy so callers can
// keep using errors.Is regardless of which form they receive.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrInternal:
		return e.StatusCode == http.StatusInternalServerError
	}
	return false
}

// NewStatusError builds a StatusError with the given status and message.
func NewStatusError(status int, message string) *StatusError {
	return &StatusError{StatusCode: status, Message: message}
}
