// Package remote provides an HTTP client for the dummyjson-style demo API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a per-request UUID.
const RequestIDHeader = "X-Request-ID"

// Client talks JSON to the demo API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithRateLimit limits outgoing requests to r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch reads a collection and decodes the array stored under key into out.
func (c *Client) Fetch(ctx context.Context, path, key string, out any) error {
	var envelope map[string]json.RawMessage
	if err := c.do(ctx, "fetch", http.MethodGet, path, nil, &envelope); err != nil {
		return err
	}
	raw, ok := envelope[key]
	if !ok {
		return &Error{Op: "fetch", Method: http.MethodGet, Path: path, Err: fmt.Errorf("response has no %q field", key)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: "fetch", Method: http.MethodGet, Path: path, Err: err}
	}
	return nil
}

// Create posts body to path and decodes the created record into out.
func (c *Client) Create(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, "create", http.MethodPost, path, body, out)
}

// Update replaces fields of the record at path/id.
func (c *Client) Update(ctx context.Context, path string, id int64, body, out any) error {
	return c.do(ctx, "update", http.MethodPut, itemPath(path, id), body, out)
}

// Patch sends a partial update for the record at path/id.
func (c *Client) Patch(ctx context.Context, path string, id int64, body, out any) error {
	return c.do(ctx, "patch", http.MethodPatch, itemPath(path, id), body, out)
}

// Delete removes the record at path/id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, path string, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, itemPath(path, id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	path = cleanPath(path)
	fail := func(status int, err error) error {
		return &Error{Op: op, Method: method, Path: path, Status: status, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, err)
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fail(0, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/"+path, reader)
	if err != nil {
		return fail(0, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "remote request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fail(0, err)
	}
	defer resp.Body.Close()
	c.logger.DebugContext(ctx, "remote request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(resp.StatusCode, fmt.Errorf("%s", bytes.TrimSpace(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// cleanPath strips surrounding slashes so "recipes/" and "recipes" address the
// same collection.
func cleanPath(p string) string {
	return strings.Trim(p, "/")
}

func itemPath(path string, id int64) string {
	return cleanPath(path) + "/" + strconv.FormatInt(id, 10)
}
