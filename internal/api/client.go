// ABOUTME: REST client for the storefront backend with bearer-token injection
// ABOUTME: Classifies responses into ok / unauthorized / status error / network error

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vegshop/shopfront/internal/identity"
)

// ErrUnauthorized is returned when the server answers 401. The client has
// already triggered the unauthorized hook by the time the caller sees it;
// the caller must abort its operation without further UI updates.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError carries a non-2xx, non-401 response for diagnostic display.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "(no response body)"
	}
	return fmt.Sprintf("status %d: %s", e.Code, body)
}

// TokenSource supplies the current bearer token; identity.Store satisfies it.
type TokenSource interface {
	GetToken() string
}

// Client is a thin wrapper over the backend REST API. Every request gets
// the current bearer token when one is usable, and every response is
// classified before the caller sees it.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger

	// onUnauthorized runs once per 401 response, before the caller gets
	// ErrUnauthorized. The session layer hooks its anonymous transition here.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// OnUnauthorized registers the hook run when any call returns 401.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a request and returns the response body for 2xx responses.
// contentType applies when body is non-nil; an empty contentType defaults
// to application/json (multipart callers pass their boundary type).
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if token := c.tokens.GetToken(); identity.TokenUsable(token) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("unauthorized response, session invalid", "method", method, "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	default:
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
}
