// Package chatapi is the client for the chat API: accounts, chats, messages,
// file uploads and streamed replies.
//
// Every request goes through a single gate. A 401 answer clears the local
// session, runs the session-expired hook and fails with ErrSessionExpired
// before any of the response body is read.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatline/pkg/logger"
)

// HeaderRequestID carries a per-request ID for server-side log correlation.
const HeaderRequestID = "X-Request-ID"

const defaultHeaderTimeout = 5 * time.Minute

// NewHTTPClient returns an HTTP client that gives up when the server takes
// longer than headerTimeout to start answering. The body is unbounded, so a
// streamed reply may run as long as the server keeps writing; callers bound
// it with their context.
func NewHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// SessionStore holds the bearer token between runs.
type SessionStore interface {
	Token() (string, error)
	SetLogin(apiTarget, email, token string) error
	Clear() error
}

// Client talks to a chat API server.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	session          SessionStore
	logger           *slog.Logger
	onSessionExpired func()
}

// Option configures a Client created with New.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Defaults to NewHTTPClient with a
// five minute header timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithSessionExpiredFunc registers the hook run after a 401 cleared the
// session.
func WithSessionExpiredFunc(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, session SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(defaultHeaderTimeout),
		session:    session,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API target the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the response only for a 2xx status. The
// caller owns the body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)

	if c.session != nil {
		token, err := c.session.Token()
		if err != nil {
			c.logger.Warn("reading session token failed", "error", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.expireSession()
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}

	return resp, nil
}

func (c *Client) expireSession() {
	c.logger.Warn("session expired", "api_target", c.baseURL)

	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.logger.Error("clearing session failed", "error", err)
		}
	}

	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// doJSON sends in as JSON (when non-nil) and decodes the answer into out
// (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var (
		body   io.Reader
		header http.Header
	)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
		header = http.Header{"Content-Type": {"application/json"}}
	}

	resp, err := c.do(ctx, method, path, body, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
