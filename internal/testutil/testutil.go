package testutil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// JSONResponse builds an in-memory JSON response for a transport stub.
func JSONResponse(req *http.Request, status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// RecordedRequest is one request seen by a Backend, captured with the fields
// assertions usually need.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Body          string
	Authorization string
	Header        http.Header
}

// Backend is a scripted in-memory API backend. It records every request and
// delegates responses to the configured handler. Safe for concurrent use, so
// pipeline tests can fire overlapping requests at it.
type Backend struct {
	mu       sync.Mutex
	requests []RecordedRequest
	handler  func(req *http.Request) (*http.Response, error)
}

// NewBackend creates a Backend answering through handler.
func NewBackend(handler func(req *http.Request) (*http.Response, error)) *Backend {
	return &Backend{handler: handler}
}

// RoundTrip implements http.RoundTripper.
func (b *Backend) RoundTrip(req *http.Request) (*http.Response, error) {
	recorded := RecordedRequest{
		Method:        req.Method,
		Path:          req.URL.Path,
		Query:         req.URL.RawQuery,
		Authorization: req.Header.Get("Authorization"),
		Header:        req.Header.Clone(),
	}
	if req.Body != nil {
		payload, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		recorded.Body = string(payload)
	}

	b.mu.Lock()
	b.requests = append(b.requests, recorded)
	b.mu.Unlock()

	return b.handler(req)
}

// Requests returns a snapshot of everything recorded so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestsTo returns the recorded requests whose path matches exactly.
func (b *Backend) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
