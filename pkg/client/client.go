// Package client is a typed HTTP client for the recuerdos API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Client talks to one recuerdos API. It holds no caller identity; every
// method takes the owner explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	now        func() time.Time
}

type Option func(*Client)

// WithTimeout bounds every call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. Its own Timeout is
// left alone; the per-call timeout still applies through the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header. Empty sends Go's default.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithClock replaces time.Now for ThisMonth.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  "recuerdos-client/1.0",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// errorBody is what the API sends on failure.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// do sends one request and decodes a 2xx body into out (unless out is nil).
// Every failure comes back as *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return newError(KindUnknown, 0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return newError(KindUnknown, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return transportError(ctx.Err())
		}
		return newError(KindServerError, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(resp *http.Response) *Error {
	e := newError(kindForStatus(resp.StatusCode), resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if json.Unmarshal(raw, &eb) != nil {
		return e
	}
	if e.Kind == KindInvalidInput {
		e.Field = eb.Field
		if eb.Message != "" {
			e.Message = eb.Message
		}
	}
	return e
}

func ownerQuery(ownerID string) url.Values {
	return url.Values{"userId": []string{ownerID}}
}

// requireOwner rejects calls without an identity before touching the network.
func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return &Error{Kind: KindInvalidInput, Message: "El campo userId es obligatorio", Field: "userId"}
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return newError(KindNotFound, 0, nil)
	}
	return nil
}
