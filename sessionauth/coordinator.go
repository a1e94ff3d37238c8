package sessionauth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/apierror"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/credentials"
)

// Logger is an interface for optional logging in Coordinator.
// Implementations can log refresh episodes if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// Coordinator is the per-client auth state machine. It attaches access
// tokens read from the credentials store and serializes token refresh so
// that concurrent 401s produce a single refresh call.
//
// The zero states are Idle (no episode) and Refreshing (episode in flight);
// the episode pointer is both the state flag and the rendezvous for waiting
// callers, checked and set under one mutex hold.
type Coordinator struct {
	store   credentials.Store
	refresh RefreshFunc
	timeout time.Duration
	leeway  time.Duration
	logger  Logger

	mu      sync.Mutex
	episode *episode
}

// episode is one refresh attempt shared by every request that hit token
// expiry while it was in flight. Results are published before done is
// closed and never written afterwards.
type episode struct {
	done        chan struct{}
	accessToken string
	err         error
}

// Option is a functional option for configuring Coordinator.
type Option func(*Coordinator)

// WithLogger sets a custom logger for refresh episodes.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(c *Coordinator) {
		c.logger = log.Default()
	}
}

// WithTimeout bounds the refresh network call. This should match the API
// client's per-request timeout. Default is 30 seconds; zero disables the
// bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

// WithExpiryLeeway refreshes proactively when the access token's exp claim
// is within the given window. Default is one minute; zero disables the
// probe and tokens are refreshed only after the backend rejects them.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(c *Coordinator) {
		c.leeway = leeway
	}
}

// NewCoordinator creates a Coordinator reading tokens from store and
// refreshing through refresh. One Coordinator serves one API client
// instance; separate clients (or test doubles) get separate instances so
// their refresh episodes stay isolated.
func NewCoordinator(store credentials.Store, refresh RefreshFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		refresh: refresh,
		timeout: 30 * time.Second,
		leeway:  time.Minute,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AccessToken is the pre-request hook. It returns the token to attach to an
// outgoing request, or "" when the session has no token — the request then
// proceeds unauthenticated and the backend decides.
//
// When the stored token is a JWT whose exp claim is inside the leeway
// window, the token is refreshed before use so near-expiry requests do not
// burn a round trip on a guaranteed 401.
func (c *Coordinator) AccessToken(ctx context.Context) (string, error) {
	token, err := c.store.AccessToken(ctx)
	if err != nil || token == "" {
		return "", nil
	}

	if c.leeway > 0 && tokenExpiring(token, c.leeway, time.Now()) {
		return c.Refresh(ctx, token)
	}

	return token, nil
}

// Refresh is the post-401 hook. staleToken is the token the rejected request
// carried; the returned token is always the product of a refresh that
// happened after that rejection, never the stale value.
//
// If no refresh is in flight, the caller starts one; otherwise it joins the
// in-flight episode and waits for its outcome. A caller whose own context is
// cancelled stops waiting, but the shared refresh keeps running and other
// waiters are unaffected.
func (c *Coordinator) Refresh(ctx context.Context, staleToken string) (string, error) {
	c.mu.Lock()
	if ep := c.episode; ep != nil {
		c.mu.Unlock()
		return c.wait(ctx, ep)
	}

	ep := &episode{done: make(chan struct{})}
	c.episode = ep
	c.mu.Unlock()

	// Detached so that cancellation of the triggering request cannot kill
	// a refresh other callers are waiting on.
	go c.run(context.WithoutCancel(ctx), ep, staleToken)

	return c.wait(ctx, ep)
}

// run performs one refresh episode and publishes its outcome.
func (c *Coordinator) run(ctx context.Context, ep *episode, staleToken string) {
	defer func() {
		c.mu.Lock()
		c.episode = nil
		c.mu.Unlock()
		close(ep.done)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// A previous episode may already have rotated the tokens; stragglers
	// carrying the old access token must not trigger a redundant rotation.
	current, err := c.store.AccessToken(ctx)
	if err == nil && current != "" && current != staleToken {
		ep.accessToken = current
		return
	}

	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		_ = c.store.ClearTokens(ctx)
		ep.err = apierror.TokenExpired("")
		return
	}
	if refreshToken == "" {
		// Session is already gone. Only clear when a lone access token
		// remains, so a failed episode is followed by exactly one clear
		// no matter how many stragglers report the same expiry.
		if current != "" {
			_ = c.store.ClearTokens(ctx)
		}
		ep.err = apierror.TokenExpired("")
		return
	}

	pair, err := c.refresh(ctx, refreshToken)
	if err != nil {
		_ = c.store.ClearTokens(ctx)
		ep.err = apierror.TokenExpired("")
		if c.logger != nil {
			c.logger.Printf("sessionauth: token refresh failed: %v", err)
		}
		return
	}

	// Some backends rotate the refresh token on every use, others only
	// return a new one occasionally.
	newRefresh := pair.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	if err := c.store.SaveTokens(ctx, pair.AccessToken, newRefresh); err != nil {
		_ = c.store.ClearTokens(ctx)
		ep.err = apierror.TokenExpired("")
		if c.logger != nil {
			c.logger.Printf("sessionauth: persisting refreshed tokens failed: %v", err)
		}
		return
	}

	ep.accessToken = pair.AccessToken

	if c.logger != nil {
		c.logger.Printf("sessionauth: access token refreshed")
	}
}

// wait blocks until the episode settles or the caller's context is done.
func (c *Coordinator) wait(ctx context.Context, ep *episode) (string, error) {
	select {
	case <-ep.done:
		return ep.accessToken, ep.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// tokenExpiring reports whether token is a JWT expiring within leeway of
// now. The claim is read without signature verification — the client is not
// a validator, it only schedules its own refresh. Opaque (non-JWT) tokens
// and tokens without an exp claim are never considered expiring.
func tokenExpiring(token string, leeway time.Duration, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Sub(now) <= leeway
}
