package sessionauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TokenPair is the result of a successful refresh call.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshFunc exchanges a refresh token for a new token pair.
// Any error — network, non-2xx, malformed body — is a refresh failure.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// refreshRequest is the refresh endpoint's request body.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

const maxRefreshBodySize = 1 << 20

// NewEndpointRefresher returns a RefreshFunc that POSTs the refresh token to
// the given endpoint URL and parses the standard response body
// {"accessToken": "...", "refreshToken": "..."} (the refresh token is
// optional in the response).
//
// The httpClient should carry the same timeout as ordinary API requests; if
// nil, http.DefaultClient is used. It must NOT be the authenticated client —
// the refresh endpoint is a no-auth path, and routing it through the
// coordinator would deadlock an episode on itself.
func NewEndpointRefresher(endpoint string, httpClient *http.Client) RefreshFunc {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return func(ctx context.Context, refreshToken string) (TokenPair, error) {
		payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
		if err != nil {
			return TokenPair{}, fmt.Errorf("sessionauth: encode refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return TokenPair{}, fmt.Errorf("sessionauth: build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return TokenPair{}, fmt.Errorf("sessionauth: refresh call failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRefreshBodySize))
		if err != nil {
			return TokenPair{}, fmt.Errorf("sessionauth: read refresh response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return TokenPair{}, fmt.Errorf("sessionauth: refresh endpoint returned %d", resp.StatusCode)
		}

		var pair TokenPair
		if err := json.Unmarshal(body, &pair); err != nil {
			return TokenPair{}, fmt.Errorf("sessionauth: malformed refresh response: %w", err)
		}
		if pair.AccessToken == "" {
			return TokenPair{}, fmt.Errorf("sessionauth: refresh response missing access token")
		}

		return pair, nil
	}
}
