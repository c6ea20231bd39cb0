// Package translate converts failures crossing the HTTP/RPC boundary into
// the single taxonomy the rest of the system speaks. Both directions are
// pure functions of their input; the only side effect is logging on the
// normalize-to-internal paths.
package translate

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/rpc"
)

// HTTPError is the stable externally visible error body.
type HTTPError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// ToEnvelope is the outbound direction: it normalizes an arbitrary failure
// into the canonical envelope before it crosses a process boundary.
//
// An error that is already an envelope passes through unchanged. An
// HTTP-style StatusError contributes its status, message and code. Bare
// taxonomy sentinels map to their canonical status. Anything else collapses
// to 500 with a generic message; the original cause is logged here and
// never leaks into the envelope.
func ToEnvelope(err error, log logging.Logger) *rpc.Envelope {
	var env *rpc.Envelope
	if errors.As(err, &env) {
		return env
	}

	var se *common.StatusError
	if errors.As(err, &se) {
		return &rpc.Envelope{Status: se.StatusCode, Message: se.Message, Code: se.Code}
	}

	switch {
	case errors.Is(err, common.ErrConflict):
		return &rpc.Envelope{Status: http.StatusConflict, Message: "Conflict"}
	case errors.Is(err, common.ErrNotFound):
		return &rpc.Envelope{Status: http.StatusNotFound, Message: "Not Found"}
	case errors.Is(err, common.ErrBadRequest):
		return &rpc.Envelope{Status: http.StatusBadRequest, Message: "Bad Request"}
	case errors.Is(err, common.ErrTokenExpired):
		return &rpc.Envelope{Status: http.StatusUnauthorized, Message: "Token expired"}
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrInvalidClaims):
		return &rpc.Envelope{Status: http.StatusUnauthorized, Message: "Invalid token"}
	case errors.Is(err, common.ErrUnauthorized):
		return &rpc.Envelope{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}

	log.Error(context.Background(), "normalizing unexpected failure to internal error", "error", err)
	return &rpc.Envelope{Status: http.StatusInternalServerError, Message: "Internal Server Error"}
}

// ToHTTP is the inbound direction: it maps an envelope arriving at the
// gateway onto one of the fixed externally visible categories. Any status
// outside the mapped set indicates protocol drift between services; it is
// logged as an unmapped-status event and degraded to 500.
func ToHTTP(env *rpc.Envelope, log logging.Logger) (int, HTTPError) {
	switch env.Status {
	case http.StatusConflict:
		return env.Status, HTTPError{StatusCode: env.Status, Message: env.Message, Error: "Conflict"}
	case http.StatusBadRequest:
		return env.Status, HTTPError{StatusCode: env.Status, Message: env.Message, Error: "Bad Request"}
	case http.StatusNotFound:
		return env.Status, HTTPError{StatusCode: env.Status, Message: env.Message, Error: "Not Found"}
	case http.StatusUnauthorized:
		return env.Status, HTTPError{StatusCode: env.Status, Message: env.Message, Error: "Unauthorized"}
	case http.StatusForbidden:
		return env.Status, HTTPError{StatusCode: env.Status, Message: env.Message, Error: "Forbidden"}
	}

	log.Error(context.Background(), "unmapped rpc status", "status", env.Status, "message", env.Message)

	message := env.Message
	if message == "" {
		message = "An internal processing error occurred."
	}
	return http.StatusInternalServerError, HTTPError{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Error:      "Internal Server Error",
	}
}
