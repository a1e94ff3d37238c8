package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
)

// envelope is the backend's standard error body:
// {"message": "...", "errors": {"field": "msg" | ["msg", ...]}}.
type envelope struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

const unknownMessage = "Unknown error"

// FromResponse maps a non-2xx HTTP response to exactly one Error variant.
// The body may be empty or non-JSON; the mapping never fails.
func FromResponse(status int, body []byte) *Error {
	message, fields := parseEnvelope(body)

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Message: message, Status: status, Fields: fields}
	case http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Message: message, Status: status}
	case http.StatusForbidden:
		return &Error{Kind: KindForbidden, Message: message, Status: status}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: message, Status: status}
	case http.StatusConflict:
		return &Error{Kind: KindConflict, Message: message, Status: status}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Message: message, Status: status}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &Error{Kind: KindServer, Message: message, Status: status}
	default:
		return &Error{Kind: KindGeneric, Message: message, Status: status}
	}
}

// FromTransport maps a transport-level failure (no HTTP response) to an error
// the facade may return. Caller cancellation is propagated unchanged so that
// context.Canceled checks keep working; everything else becomes KindNetwork.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindNetwork, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(KindNetwork, "request timed out", err)
	}
	return Wrap(KindNetwork, "network request failed", err)
}

// parseEnvelope extracts the server message and field errors from a response
// body, tolerating empty, non-JSON and partially-shaped payloads.
func parseEnvelope(body []byte) (string, map[string][]string) {
	if len(body) == 0 {
		return unknownMessage, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return unknownMessage, nil
	}

	message := env.Message
	if message == "" {
		message = unknownMessage
	}

	return message, parseFieldErrors(env.Errors)
}

// parseFieldErrors normalizes the envelope's errors map, where each value is
// either a single string or an array of strings.
func parseFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for name, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fields[name] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			fields[name] = many
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
