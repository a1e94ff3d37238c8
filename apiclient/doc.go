// Package apiclient is the public surface of the Enterprise Tenant Manager
// API client: verb helpers over an ordered request pipeline that injects a
// request id, the active tenant, and bearer-token authentication with
// single-flight refresh.
//
// Every feature module issues its requests through a *Client. Every failure —
// transport-level or protocol-level — surfaces as an *apierror.Error (caller
// cancellation excepted), never as a raw transport error.
//
// # Pipeline
//
// caller → Client → request id → tenant header → auth (attach token, refresh
// on 401, replay) → transport. A 401 on an authenticated path suspends the
// request on the coordinator's in-flight refresh episode; a 401 on a no-auth
// path (login, register, password reset, the refresh endpoint itself) is
// surfaced directly without touching the refresh machinery.
//
// # Quick Start
//
//	store := credentials.NewMemory()
//	client, err := apiclient.NewBuilder().
//	    WithBaseURL("https://api.example.com").
//	    WithCredentialStore(store).
//	    WithTenantSource(store).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get(ctx, "/api/v1/members",
//	    apiclient.WithPage(apiclient.PageQuery{Page: 1, Limit: 20}))
//	if err != nil {
//	    // *apierror.Error or context cancellation
//	}
//	page, err := apiclient.DecodePage[Member](resp)
//
// # Machine callers
//
// Integration workers without a user session authenticate with OAuth2 client
// credentials instead:
//
//	client, err := apiclient.NewBuilder().
//	    WithBaseURL("https://api.example.com").
//	    WithServiceCredentials(tokenURL, clientID, clientSecret, "api.read api.write").
//	    Build()
//
// A Client and its coordinator are constructed together and safe for
// concurrent use; create separate clients for separate sessions or test
// doubles so refresh episodes stay isolated.
package apiclient
