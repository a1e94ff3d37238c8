package credentials

import (
	"context"
	"sync"
)

// Store provides durable storage for the session's token pair.
//
// The coordinator holds no persistent copy of the tokens; every request reads
// the current values through this interface so that logins, logouts and
// refreshes in other parts of the application take effect immediately.
type Store interface {
	// SaveTokens persists both tokens atomically.
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error

	// AccessToken returns the stored access token, or "" when logged out.
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the stored refresh token, or "" when logged out.
	RefreshToken(ctx context.Context) (string, error)

	// ClearTokens removes both tokens. Clearing an empty store is a no-op.
	ClearTokens(ctx context.Context) error
}

// TenantSource reports the tenant the current session is scoped to.
//
// The client reads it on every request and never caches the value, so a
// tenant switch between two calls is reflected in the second call. Returning
// "" means no tenant is active and no tenant header is sent. This step has no
// failure mode: implementations that read from fallible storage should treat
// a read failure as "no tenant".
type TenantSource interface {
	TenantID(ctx context.Context) string
}

// Memory is an in-process Store and TenantSource.
// It is safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	tenantID     string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// SaveTokens implements Store.
func (m *Memory) SaveTokens(_ context.Context, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	return nil
}

// AccessToken implements Store.
func (m *Memory) AccessToken(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken, nil
}

// RefreshToken implements Store.
func (m *Memory) RefreshToken(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken, nil
}

// ClearTokens implements Store.
func (m *Memory) ClearTokens(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = ""
	m.refreshToken = ""
	return nil
}

// SetTenant switches the active tenant. An empty id clears it.
func (m *Memory) SetTenant(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenantID = id
}

// TenantID implements TenantSource.
func (m *Memory) TenantID(_ context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tenantID
}
