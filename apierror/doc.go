// Package apierror defines the closed error taxonomy for the Enterprise Tenant
// Manager API client.
//
// Every failure an API call can produce — transport-level or protocol-level —
// is converted into exactly one *Error at the client boundary, so application
// code never handles raw transport errors or loosely-typed response bodies.
// The only exception is caller cancellation, which propagates as the original
// context error.
//
// # Features
//
//   - Fixed Kind set covering network, auth, validation, rate-limit and server failures
//   - Boundary mappers from HTTP responses (FromResponse) and transport errors (FromTransport)
//   - Field-level validation errors parsed from the backend's standard envelope
//   - errors.As friendly: a single *Error type, inspected via Kind
//
// # Quick Start
//
//	resp, err := client.Get(ctx, "/api/v1/members")
//	if err != nil {
//	    var apiErr *apierror.Error
//	    if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindTokenExpired {
//	        // force re-authentication
//	    }
//	}
//
// KindTokenExpired is the single signal the application should treat as
// "session is gone, re-authenticate"; all other kinds are reported for
// UI-level handling.
package apierror
