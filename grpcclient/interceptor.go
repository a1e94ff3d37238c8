package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/credentials"
)

// tenantMetadataKey carries the active tenant on outgoing RPCs.
const tenantMetadataKey = "x-tenant-id"

// TokenProvider yields the bearer token to attach to outgoing RPCs.
// Returning "" sends the RPC unauthenticated.
//
// serviceauth.TokenSource satisfies this interface; for user sessions use
// StoreTokenProvider.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// storeTokenProvider adapts a credentials.Store to TokenProvider.
type storeTokenProvider struct {
	store credentials.Store
}

// StoreTokenProvider exposes the session's current access token as a
// TokenProvider. The store is read per RPC, so rotations done by the HTTP
// client's refresh episodes are picked up immediately.
func StoreTokenProvider(store credentials.Store) TokenProvider {
	return &storeTokenProvider{store: store}
}

func (p *storeTokenProvider) Token(ctx context.Context) (string, error) {
	return p.store.AccessToken(ctx)
}

// withAuthMetadata returns ctx with authorization and tenant metadata
// appended for one outgoing RPC.
func withAuthMetadata(ctx context.Context, tokens TokenProvider, tenants credentials.TenantSource) (context.Context, error) {
	if tokens != nil {
		token, err := tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("grpcclient: failed to get token: %w", err)
		}
		if token != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		}
	}

	if tenants != nil {
		if tenantID := tenants.TenantID(ctx); tenantID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, tenantMetadataKey, tenantID)
		}
	}

	return ctx, nil
}

// UnaryInterceptor returns a gRPC unary client interceptor that attaches
// bearer-token and tenant metadata to every RPC. Either argument may be nil
// to skip that concern.
func UnaryInterceptor(tokens TokenProvider, tenants credentials.TenantSource) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, err := withAuthMetadata(ctx, tokens, tenants)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamInterceptor returns a gRPC stream client interceptor that attaches
// bearer-token and tenant metadata to stream creation.
func StreamInterceptor(tokens TokenProvider, tenants credentials.TenantSource) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, err := withAuthMetadata(ctx, tokens, tenants)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}
