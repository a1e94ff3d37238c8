// Package sessionauth coordinates bearer-token handling for user sessions:
// attaching the current access token, detecting expiry, and performing
// single-flight token refresh with request replay.
//
// Many UI-triggered requests can be in flight at once. When the access token
// expires they all fail together, and without coordination each would race to
// call the refresh endpoint. Refresh tokens are single-use on this backend, so
// the races would rotate the token out from under each other and force
// spurious logouts. The Coordinator guarantees exactly one refresh call per
// expiry episode: the first caller starts the refresh, every concurrent
// caller blocks on the same episode, and all of them observe the episode's
// outcome exactly once.
//
// # Features
//
//   - Single-flight refresh: at most one refresh call in flight per Coordinator
//   - Episode results shared with every waiting caller via a closed channel
//   - Refresh survives cancellation of the request that triggered it
//   - Proactive refresh when the access token's exp claim is within a leeway window
//   - Refresh failure clears stored tokens and yields apierror.KindTokenExpired
//   - Optional logging of refresh episodes (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	coord := sessionauth.NewCoordinator(
//	    store,
//	    sessionauth.NewEndpointRefresher(baseURL+"/api/v1/auth/refresh", nil),
//	    sessionauth.WithLoggingEnabled(),
//	)
//
//	token, err := coord.AccessToken(ctx)      // pre-request
//	token, err = coord.Refresh(ctx, stale)    // post-401
//
// A Coordinator belongs to one API client instance. It is safe for concurrent
// use and holds no token state of its own beyond the in-flight episode; the
// credentials.Store is the single source of truth.
package sessionauth
