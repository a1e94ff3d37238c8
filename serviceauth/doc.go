// Package serviceauth provides OAuth2 client-credentials tokens for machine
// callers of the Enterprise Tenant Manager API: integration workers, webhook
// processors and other backend-to-backend clients that have no user session.
//
// TokenSource caches the current token and fetches a replacement shortly
// before expiry, so callers can request a token on every outgoing call
// without paying a network round trip each time. Unlike session tokens there
// is no refresh-token handshake — an expired or rejected token is simply
// re-fetched from the authorization server.
//
// # Quick Start
//
//	source := serviceauth.New(
//	    "https://auth.example.com/oauth/v2/token",
//	    "worker-client-id",
//	    "worker-client-secret",
//	    "api.read api.write",
//	    serviceauth.WithLoggingEnabled(),
//	)
//
//	token, err := source.Token(ctx)
//
// TokenSource is safe for concurrent use and can be shared by any number of
// HTTP and gRPC clients.
package serviceauth
