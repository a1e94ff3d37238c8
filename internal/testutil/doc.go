// Package testutil provides in-memory HTTP transports for client tests.
//
// # Utilities
//
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - JSONResponse: build in-memory JSON responses for transport stubs
//   - Backend: a scripted backend that records requests and serves handler-driven responses
//
// Everything here runs without sockets; tests that need a real listener use
// net/http/httptest directly.
package testutil
