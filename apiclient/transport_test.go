package apiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/apierror"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/credentials"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/internal/testutil"
)

const (
	baseURL     = "https://api.example.com"
	refreshPath = "/api/v1/auth/refresh"
)

// countingStore observes ClearTokens invocations.
type countingStore struct {
	*credentials.Memory
	clears atomic.Int32
}

func (s *countingStore) ClearTokens(ctx context.Context) error {
	s.clears.Add(1)
	return s.Memory.ClearTokens(ctx)
}

func newSessionClient(t *testing.T, backend http.RoundTripper, store credentials.Store, tenant credentials.TenantSource) *Client {
	t.Helper()

	builder := NewBuilder().
		WithBaseURL(baseURL).
		WithCredentialStore(store).
		WithBaseTransport(backend)
	if tenant != nil {
		builder = builder.WithTenantSource(tenant)
	}

	client, err := builder.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	return client
}

func TestClient_AttachesBearerToken(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		return testutil.JSONResponse(req, http.StatusOK, `{"id":"m-1"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	resp, err := client.Get(ctx, "/api/v1/members")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}

	requests := backend.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	req := requests[0]
	if req.Authorization != "Bearer A1" {
		t.Errorf("expected Bearer A1, got %q", req.Authorization)
	}
	if req.Header.Get("Accept") != "application/json" {
		t.Errorf("missing Accept header")
	}
	if req.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id")
	}
}

func TestClient_NoTokenProceedsUnauthenticated(t *testing.T) {
	ctx := context.Background()

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		return testutil.JSONResponse(req, http.StatusOK, `{}`), nil
	})
	client := newSessionClient(t, backend, credentials.NewMemory(), nil)

	if _, err := client.Get(ctx, "/api/v1/plans"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if auth := backend.Requests()[0].Authorization; auth != "" {
		t.Errorf("expected no Authorization header, got %q", auth)
	}
}

func TestClient_TenantHeader(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		return testutil.JSONResponse(req, http.StatusOK, `{}`), nil
	})
	client := newSessionClient(t, backend, store, store)

	// No tenant set: no header.
	if _, err := client.Get(ctx, "/api/v1/members"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := backend.Requests()[0].Header.Get(DefaultTenantHeader); got != "" {
		t.Errorf("expected no tenant header, got %q", got)
	}

	// Tenant switches must be visible on the very next request.
	store.SetTenant("t-42")
	if _, err := client.Get(ctx, "/api/v1/members"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := backend.Requests()[1].Header.Get(DefaultTenantHeader); got != "t-42" {
		t.Errorf("expected t-42, got %q", got)
	}

	store.SetTenant("t-7")
	if _, err := client.Get(ctx, "/api/v1/members"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := backend.Requests()[2].Header.Get(DefaultTenantHeader); got != "t-7" {
		t.Errorf("expected t-7, got %q", got)
	}
}

func TestClient_NoAuthExemption(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		return testutil.JSONResponse(req, http.StatusUnauthorized, `{"message":"bad password"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	_, err := client.Post(ctx, "/api/v1/auth/login", map[string]string{"email": "a@b.c", "password": "nope"})

	if apierror.KindOf(err) != apierror.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	requests := backend.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected exactly 1 request (no refresh, no retry), got %d", len(requests))
	}
	if requests[0].Authorization != "" {
		t.Errorf("no-auth path must not carry a token, got %q", requests[0].Authorization)
	}
	if got := len(backend.RequestsTo(refreshPath)); got != 0 {
		t.Errorf("refresh endpoint must not be called, got %d calls", got)
	}

	// The session is untouched.
	access, _ := store.AccessToken(ctx)
	if access != "A1" {
		t.Errorf("stored tokens must survive a no-auth 401, got %q", access)
	}
}

func TestClient_RefreshAndReplay(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == refreshPath {
			return testutil.JSONResponse(req, http.StatusOK, `{"accessToken":"A2","refreshToken":"R2"}`), nil
		}
		if req.Header.Get("Authorization") == "Bearer A2" {
			return testutil.JSONResponse(req, http.StatusOK, `{"path":"`+req.URL.Path+`"}`), nil
		}
		return testutil.JSONResponse(req, http.StatusUnauthorized, `{"message":"token expired"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	paths := []string{"/a", "/b", "/c"}
	var wg sync.WaitGroup
	errs := make(chan error, len(paths))
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			resp, err := client.Get(ctx, path)
			if err != nil {
				errs <- err
				return
			}
			var out struct {
				Path string `json:"path"`
			}
			if err := resp.Decode(&out); err != nil {
				errs <- err
				return
			}
			if out.Path != path {
				errs <- errors.New("response routed to wrong caller: " + out.Path)
				return
			}
			errs <- nil
		}(path)
	}
	wg.Wait()

	for range paths {
		if err := <-errs; err != nil {
			t.Errorf("request failed: %v", err)
		}
	}

	if got := len(backend.RequestsTo(refreshPath)); got != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", got)
	}
	for _, path := range paths {
		var replayed bool
		for _, req := range backend.RequestsTo(path) {
			if req.Authorization == "Bearer A2" {
				replayed = true
			}
			if req.Authorization == "" {
				t.Errorf("%s: request sent without a token", path)
			}
		}
		if !replayed {
			t.Errorf("%s: never retried with the refreshed token", path)
		}
	}

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	if access != "A2" || refresh != "R2" {
		t.Errorf("store not rotated, got %q / %q", access, refresh)
	}
}

func TestClient_RefreshFailureCascade(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: credentials.NewMemory()}
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == refreshPath {
			return testutil.JSONResponse(req, http.StatusBadRequest, `{"message":"invalid refresh token"}`), nil
		}
		return testutil.JSONResponse(req, http.StatusUnauthorized, `{"message":"token expired"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	paths := []string{"/a", "/b", "/c"}
	var wg sync.WaitGroup
	errs := make(chan error, len(paths))
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			_, err := client.Get(ctx, path)
			errs <- err
		}(path)
	}
	wg.Wait()

	for range paths {
		if err := <-errs; apierror.KindOf(err) != apierror.KindTokenExpired {
			t.Errorf("expected token_expired, got %v", err)
		}
	}

	if got := store.clears.Load(); got != 1 {
		t.Errorf("expected ClearTokens exactly once, got %d", got)
	}
	access, _ := store.AccessToken(ctx)
	if access != "" {
		t.Errorf("expected tokens cleared, got %q", access)
	}
}

func TestClient_SecondUnauthorizedSurfaces(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	// The backend rejects every token; refresh succeeds. The client must
	// retry exactly once and then give up with unauthorized, not loop.
	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == refreshPath {
			return testutil.JSONResponse(req, http.StatusOK, `{"accessToken":"A2","refreshToken":"R2"}`), nil
		}
		return testutil.JSONResponse(req, http.StatusUnauthorized, `{"message":"still no"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	_, err := client.Get(ctx, "/protected")

	if apierror.KindOf(err) != apierror.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := len(backend.RequestsTo(refreshPath)); got != 1 {
		t.Errorf("expected 1 refresh call, got %d", got)
	}
	if got := len(backend.RequestsTo("/protected")); got != 2 {
		t.Errorf("expected original + one retry, got %d attempts", got)
	}
}

func TestClient_BodyReplayedAfterRefresh(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()
	if err := store.SaveTokens(ctx, "A1", "R1"); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == refreshPath {
			return testutil.JSONResponse(req, http.StatusOK, `{"accessToken":"A2"}`), nil
		}
		if req.Header.Get("Authorization") != "Bearer A2" {
			return testutil.JSONResponse(req, http.StatusUnauthorized, `{"message":"token expired"}`), nil
		}
		return testutil.JSONResponse(req, http.StatusCreated, `{"id":"new"}`), nil
	})
	client := newSessionClient(t, backend, store, nil)

	resp, err := client.Post(ctx, "/api/v1/members", map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}

	attempts := backend.RequestsTo("/api/v1/members")
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	for i, attempt := range attempts {
		if attempt.Body != `{"name":"Ada"}` {
			t.Errorf("attempt %d: body not replayed, got %s", i, attempt.Body)
		}
	}

	// Refresh response without a rotated refresh token retains the old one.
	refresh, _ := store.RefreshToken(ctx)
	if refresh != "R1" {
		t.Errorf("expected refresh token retained, got %q", refresh)
	}
}

func TestClient_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := credentials.NewMemory()
	backend := testutil.NewBackend(func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	})
	client := newSessionClient(t, backend, store, nil)

	_, err := client.Get(ctx, "/api/v1/members")

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if apierror.KindOf(err) != "" {
		t.Errorf("cancellation must not be mapped to an api error, got %s", apierror.KindOf(err))
	}
}

func TestPathSet(t *testing.T) {
	set := newPathSet(
		[]string{"/api/v1/auth/login", "/api/v1/auth/refresh"},
		[]string{"/public/"},
	)

	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/auth/login", true},
		{"/api/v1/auth/refresh", true},
		{"/api/v1/auth/login/extra", false},
		{"/public/pricing", true},
		{"/api/v1/members", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := set.contains(tt.path); got != tt.want {
			t.Errorf("contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
