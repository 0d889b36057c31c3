// Package api implements the HTTP client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apierrors "github.com/bbarni2020/AI/internal/errors"
)

// DefaultTimeout bounds non-streamed requests. Streamed requests manage
// their own lifetime through the request context instead.
const DefaultTimeout = 120 * time.Second

// Client talks to the chat backend.
type Client struct {
	httpClient *http.Client
	streaming  *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout sets the non-streamed request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithAPIKey sets the bearer key sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		streaming:  &http.Client{},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doJSON executes a request and decodes a JSON response into out (which may
// be nil for endpoints with no interesting body).
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.NewNetworkError(req.Method+" "+req.URL.Path, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.NewNetworkError("read response", req.URL.Path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierrors.NewParseError(fmt.Sprintf("%s: %v", req.URL.Path, err))
	}
	return nil
}

// decodeError maps an error response to a typed error. Known wire codes get
// specific types; an unparseable 429 still maps to a rate limit error so the
// user sees useful guidance either way.
func decodeError(resp *http.Response) error {
	endpoint := resp.Request.URL.Path

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		code := parsed.Get("error").String()
		message := parsed.Get("message").String()
		if code != "" {
			return apierrors.FromCode(resp.StatusCode, endpoint, code, message)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &apierrors.RateLimitError{}
	}
	return apierrors.NewAPIError(resp.StatusCode, endpoint, "", strings.TrimSpace(string(body)))
}
