// Package grpcclient builds connections to the suite's internal gRPC
// services with the same credentials the REST client uses.
//
// Interceptors attach "authorization: Bearer <token>" metadata from a
// TokenProvider — either the session's credential store or a service-account
// token source — plus "x-tenant-id" metadata from a tenant source. There is
// no refresh-on-failure replay at this layer: the interceptor attaches
// whatever the provider currently holds, and status-code retry policy stays
// with the RPC framework.
//
// # Quick Start
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("billing.internal:9090").
//	    WithTokenProvider(grpcclient.StoreTokenProvider(store)).
//	    WithTenantSource(store).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
// Connections default to TLS 1.2+ with system roots; use WithTLS for a
// private CA or mTLS.
package grpcclient
