package serviceauth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Logger is an interface for optional logging in TokenSource.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenSource manages OAuth2 client-credentials tokens with caching and
// early refresh. It is safe for concurrent access.
type TokenSource struct {
	config       *clientcredentials.Config
	httpClient   *http.Client
	expiryLeeway time.Duration
	logger       Logger

	mu    sync.RWMutex
	token *oauth2.Token
}

// Option is a functional option for configuring TokenSource.
type Option func(*TokenSource)

// WithLogger sets a custom logger for token fetch events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(s *TokenSource) {
		s.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(s *TokenSource) {
		s.logger = log.Default()
	}
}

// WithExpiryLeeway sets how long before expiry a cached token is considered
// stale. Default is one minute.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(s *TokenSource) {
		s.expiryLeeway = leeway
	}
}

// WithHTTPClient sets the HTTP client used for token endpoint calls.
// Default is http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(s *TokenSource) {
		s.httpClient = client
	}
}

// New creates a TokenSource for the given token endpoint and client
// credentials. Scopes are space-separated.
func New(tokenURL, clientID, clientSecret, scopes string, opts ...Option) *TokenSource {
	s := &TokenSource{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(scopes),
		},
		expiryLeeway: time.Minute, // fetch a bit before expiry to avoid near-expiry races
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Token returns a valid access token, fetching a new one if the cached token
// is missing or inside the leeway window. It uses double-checked locking so
// concurrent callers share a single fetch.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.tokenValid() {
		token := s.token.AccessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have fetched while we waited for the write lock.
	if s.tokenValid() {
		return s.token.AccessToken, nil
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("serviceauth: fetch token: %w", err)
	}

	s.token = token

	if s.logger != nil {
		s.logger.Printf("serviceauth: obtained access token (expires: %s)", token.Expiry.Format(time.RFC3339))
	}

	return token.AccessToken, nil
}

// tokenValid reports whether the cached token is still usable with the
// leeway window applied. Callers must hold at least a read lock.
func (s *TokenSource) tokenValid() bool {
	if s.token == nil {
		return false
	}
	if !s.token.Expiry.IsZero() && time.Until(s.token.Expiry) <= s.expiryLeeway {
		return false
	}
	return s.token.Valid()
}
