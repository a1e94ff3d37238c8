package apierror

import (
	"errors"
	"fmt"
)

// Kind identifies one variant of the closed error taxonomy.
type Kind string

const (
	// KindNetwork covers timeouts, connection failures and other
	// transport-level errors without an HTTP response.
	KindNetwork Kind = "network"
	// KindUnauthorized is an HTTP 401 that could not be recovered by a
	// token refresh (or occurred on a path exempt from refresh handling).
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden is an HTTP 403.
	KindForbidden Kind = "forbidden"
	// KindNotFound is an HTTP 404.
	KindNotFound Kind = "not_found"
	// KindConflict is an HTTP 409.
	KindConflict Kind = "conflict"
	// KindValidation is an HTTP 400 or 422, optionally with per-field messages.
	KindValidation Kind = "validation"
	// KindRateLimit is an HTTP 429.
	KindRateLimit Kind = "rate_limit"
	// KindServer is an HTTP 500, 502 or 503.
	KindServer Kind = "server"
	// KindTokenExpired means the session cannot be recovered: the refresh
	// token is missing, rejected, or the refresh call failed. The
	// application should clear local session state and re-authenticate.
	KindTokenExpired Kind = "token_expired"
	// KindGeneric is any other non-2xx status.
	KindGeneric Kind = "generic"
)

// Error is the single error type surfaced by the API client.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code that produced this error, 0 when the
	// failure happened below the HTTP layer.
	Status int
	// Fields holds per-field validation messages for KindValidation.
	Fields map[string][]string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind with an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// TokenExpired creates the KindTokenExpired error used to signal forced
// re-authentication.
func TokenExpired(message string) *Error {
	if message == "" {
		message = "session expired, please log in again"
	}
	return &Error{Kind: KindTokenExpired, Message: message}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ""
// otherwise.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}
