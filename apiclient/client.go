package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hiddenbraintechnologies-sys/Enterprise-Tenant-Manager-sub006/apierror"
)

// Client issues requests against the backend through the authenticated
// pipeline. Construct it with NewBuilder; the zero value is not usable.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v. An empty body is a no-op so
// that 204-style responses decode cleanly.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// requestSpec collects per-request options.
type requestSpec struct {
	query  url.Values
	header http.Header
}

// RequestOption customizes a single request.
type RequestOption func(*requestSpec)

// WithQuery merges the given values into the request's query string.
func WithQuery(values url.Values) RequestOption {
	return func(s *requestSpec) {
		for key, vals := range values {
			for _, v := range vals {
				s.query.Add(key, v)
			}
		}
	}
}

// WithQueryParam adds a single query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(s *requestSpec) {
		s.query.Add(key, value)
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(s *requestSpec) {
		s.header.Set(key, value)
	}
}

// Get issues a GET request to the logical path.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request with a JSON-encoded body (nil for no body).
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do issues a request to the logical path (not a full URL) and returns the
// response, or exactly one *apierror.Error variant on failure. Caller
// cancellation propagates as the context error.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	spec := &requestSpec{
		query:  url.Values{},
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(spec)
	}

	req, err := c.newRequest(ctx, method, path, body, spec)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Coordinator and pipeline failures come back wrapped in
		// *url.Error; surface the typed error the pipeline produced.
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, apierror.FromTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.FromTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.FromResponse(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// newRequest builds the http.Request for a logical path. Bodies are JSON
// encoded from a bytes.Reader so the auth pipeline can replay them after a
// token refresh.
func (c *Client) newRequest(ctx context.Context, method, path string, body any, spec *requestSpec) (*http.Request, error) {
	target := c.baseURL.JoinPath(path)
	if len(spec.query) > 0 {
		target.RawQuery = spec.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindGeneric, "request body is not serializable", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindGeneric, "invalid request", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, vals := range spec.header {
		req.Header[key] = vals
	}

	return req, nil
}
