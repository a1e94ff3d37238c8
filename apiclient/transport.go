package apiclient

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/credentials"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/sessionauth"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// DefaultTenantHeader carries the active tenant identifier.
const DefaultTenantHeader = "X-Tenant-ID"

// pathSet matches request paths by exact value or prefix. Used for the
// no-auth path list: endpoints that must be reachable without a session and
// must never trigger refresh handling.
type pathSet struct {
	exact    map[string]bool
	prefixes []string
}

func newPathSet(exact []string, prefixes []string) *pathSet {
	s := &pathSet{exact: make(map[string]bool, len(exact))}
	for _, p := range exact {
		if p != "" {
			s.exact[p] = true
		}
	}
	for _, p := range prefixes {
		if p != "" {
			s.prefixes = append(s.prefixes, p)
		}
	}
	return s
}

func (s *pathSet) contains(path string) bool {
	if s.exact[path] {
		return true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requestIDTransport assigns a fresh X-Request-ID to every request that does
// not already carry one, so backend logs can correlate retries with their
// original call.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}

// tenantTransport sets the tenant header from the TenantSource. The source is
// consulted on every request — never cached — so a tenant switch between two
// calls is reflected in the second call. Absent or empty tenant means no
// header. This step has no failure mode.
type tenantTransport struct {
	base   http.RoundTripper
	source credentials.TenantSource
	header string
}

func (t *tenantTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.source == nil {
		return t.base.RoundTrip(req)
	}
	tenantID := t.source.TenantID(req.Context())
	if tenantID == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(t.header, tenantID)
	return t.base.RoundTrip(clone)
}

// sessionTransport attaches the session bearer token and recovers from
// authorization failures: on a 401 it resolves a single-flight refresh
// through the coordinator and retries the request exactly once with the new
// token. A 401 on the retry is returned as-is — only the original rejection
// of a token ever starts a refresh episode.
type sessionTransport struct {
	base   http.RoundTripper
	coord  *sessionauth.Coordinator
	noAuth *pathSet
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.noAuth.contains(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()

	token, err := t.coord.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(withBearer(req, token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The rejected response is replaced by the retry's outcome.
	drain(resp)

	newToken, err := t.coord.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	retry, err := rewind(req)
	if err != nil {
		return nil, err
	}

	return t.base.RoundTrip(withBearer(retry, newToken))
}

// serviceTransport attaches tokens from a machine-credential source. The
// source re-fetches on expiry itself, so there is no 401 replay here; an
// unauthorized response surfaces to the caller.
type serviceTransport struct {
	base   http.RoundTripper
	source tokenSource
}

// tokenSource yields a bearer token for machine callers.
// serviceauth.TokenSource satisfies it.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

func (t *serviceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token(req.Context())
	if err != nil {
		return nil, err
	}
	return t.base.RoundTrip(withBearer(req, token))
}

// withBearer clones req with the Authorization header set. An empty token
// leaves the request unauthenticated and lets the backend decide.
func withBearer(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

// rewind rebuilds req so its body can be sent again. Requests built by the
// facade always carry GetBody.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

// drain releases a response we will not return, keeping the underlying
// connection reusable.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
