package apiclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/credentials"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/serviceauth"
	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/sessionauth"
)

// DefaultRefreshPath is the backend's token-refresh endpoint.
const DefaultRefreshPath = "/api/v1/auth/refresh"

// defaultNoAuthPaths are endpoints reachable without a session. They bypass
// token attachment and never trigger refresh-on-401; the refresh path itself
// is added at build time.
var defaultNoAuthPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/password-reset/request",
	"/api/v1/auth/password-reset/confirm",
}

// Builder provides a fluent interface for constructing API clients with
// session or service-credential authentication.
type Builder struct {
	baseURL string

	// Session authentication
	store        credentials.Store
	refreshPath  string
	refresher    sessionauth.RefreshFunc
	noAuthPaths  []string
	noAuthPrefix []string
	leeway       time.Duration
	leewaySet    bool

	// Service (machine) authentication
	serviceTokens *serviceauth.TokenSource

	// Tenant context
	tenantSource credentials.TenantSource
	tenantHeader string

	// HTTP configuration
	timeout       time.Duration
	baseTransport http.RoundTripper

	logger sessionauth.Logger
}

// NewBuilder creates a new API client builder.
func NewBuilder() *Builder {
	return &Builder{
		refreshPath:  DefaultRefreshPath,
		tenantHeader: DefaultTenantHeader,
		timeout:      30 * time.Second, // Default 30s timeout
		noAuthPaths:  append([]string(nil), defaultNoAuthPaths...),
	}
}

// WithBaseURL sets the backend base URL (e.g. "https://api.example.com").
// Required.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithCredentialStore sets the store holding the session token pair and
// enables session authentication with single-flight refresh.
func (b *Builder) WithCredentialStore(store credentials.Store) *Builder {
	b.store = store
	return b
}

// WithTenantSource sets the source of the active tenant id. Without it no
// tenant header is sent.
func (b *Builder) WithTenantSource(source credentials.TenantSource) *Builder {
	b.tenantSource = source
	return b
}

// WithTenantHeader overrides the tenant header name.
// Default is "X-Tenant-ID".
func (b *Builder) WithTenantHeader(name string) *Builder {
	b.tenantHeader = name
	return b
}

// WithRefreshPath overrides the token-refresh endpoint path.
// The path is always part of the no-auth set.
func (b *Builder) WithRefreshPath(path string) *Builder {
	b.refreshPath = path
	return b
}

// WithRefresher overrides the refresh call implementation. Mainly useful in
// tests; by default refresh POSTs to the refresh path on the base URL.
func (b *Builder) WithRefresher(refresher sessionauth.RefreshFunc) *Builder {
	b.refresher = refresher
	return b
}

// WithNoAuthPaths adds exact paths to the no-auth set.
//
// Example:
//
//	WithNoAuthPaths("/api/v1/auth/verify-otp", "/api/v1/health")
func (b *Builder) WithNoAuthPaths(paths ...string) *Builder {
	b.noAuthPaths = append(b.noAuthPaths, paths...)
	return b
}

// WithNoAuthPathPrefixes adds path prefixes to the no-auth set.
func (b *Builder) WithNoAuthPathPrefixes(prefixes ...string) *Builder {
	b.noAuthPrefix = append(b.noAuthPrefix, prefixes...)
	return b
}

// WithExpiryLeeway sets how long before the access token's exp claim the
// client refreshes proactively. Zero disables the probe.
func (b *Builder) WithExpiryLeeway(leeway time.Duration) *Builder {
	b.leeway = leeway
	b.leewaySet = true
	return b
}

// WithServiceCredentials enables OAuth2 client-credentials authentication
// instead of a user session. Scopes are space-separated.
func (b *Builder) WithServiceCredentials(tokenURL, clientID, clientSecret, scopes string) *Builder {
	b.serviceTokens = serviceauth.New(tokenURL, clientID, clientSecret, scopes)
	return b
}

// WithServiceTokenSource sets a pre-built service token source, allowing one
// source to be shared across clients.
func (b *Builder) WithServiceTokenSource(source *serviceauth.TokenSource) *Builder {
	b.serviceTokens = source
	return b
}

// WithTimeout sets the per-request timeout. The refresh call uses the same
// timeout. Default is 30 seconds.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for tests or custom connection pools.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithLogger sets a logger for auth events (refresh episodes, rotations).
func (b *Builder) WithLogger(logger sessionauth.Logger) *Builder {
	b.logger = logger
	return b
}

// Build constructs the client with the configured options.
func (b *Builder) Build() (*Client, error) {
	if b.baseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	baseURL, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	if b.store == nil && b.serviceTokens == nil {
		return nil, errors.New("apiclient: a credential store or service credentials are required")
	}
	if b.store != nil && b.serviceTokens != nil {
		return nil, errors.New("apiclient: session and service authentication are mutually exclusive")
	}

	base := b.baseTransport
	if base == nil {
		if httpTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			cloned := httpTransport.Clone()
			cloned.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
			base = cloned
		} else {
			base = http.DefaultTransport
		}
	}

	var transport http.RoundTripper
	switch {
	case b.serviceTokens != nil:
		transport = &serviceTransport{base: base, source: b.serviceTokens}
	default:
		refresher := b.refresher
		if refresher == nil {
			refreshClient := &http.Client{
				Transport: base,
				Timeout:   b.timeout,
			}
			refresher = sessionauth.NewEndpointRefresher(baseURL.JoinPath(b.refreshPath).String(), refreshClient)
		}

		coordOpts := []sessionauth.Option{
			sessionauth.WithTimeout(b.timeout),
		}
		if b.leewaySet {
			coordOpts = append(coordOpts, sessionauth.WithExpiryLeeway(b.leeway))
		}
		if b.logger != nil {
			coordOpts = append(coordOpts, sessionauth.WithLogger(b.logger))
		}

		transport = &sessionTransport{
			base:   base,
			coord:  sessionauth.NewCoordinator(b.store, refresher, coordOpts...),
			noAuth: newPathSet(append(b.noAuthPaths, b.refreshPath), b.noAuthPrefix),
		}
	}

	transport = &tenantTransport{
		base:   transport,
		source: b.tenantSource,
		header: b.tenantHeader,
	}
	transport = &requestIDTransport{base: transport}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   b.timeout,
		},
		baseURL: baseURL,
	}, nil
}
