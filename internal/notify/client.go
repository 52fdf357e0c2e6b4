package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Marker issues the server-side read transition for one notification.
type Marker interface {
	MarkRead(ctx context.Context, id string) Result
}

// Client posts mark-read requests to the application server.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	path   string
	header string
	logger *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the transport. The default has no timeout override.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPath sets the endpoint template; "{id}" is replaced by the escaped id.
func WithPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithHeader sets the header that carries the token.
func WithHeader(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.header = name
		}
	}
}

// WithClientLogger sets the diagnostic logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	c := &Client{
		base:   base,
		http:   &http.Client{},
		tokens: tokens,
		path:   defaultPath,
		header: defaultHeader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the absolute URL for a notification id.
func (c *Client) Endpoint(id string) string {
	path := strings.ReplaceAll(c.path, idPlaceholder, url.PathEscape(id))
	ref := &url.URL{Path: path}
	return c.base.ResolveReference(ref).String()
}

// MarkRead sends one POST and waits for the response. It never retries.
func (c *Client) MarkRead(ctx context.Context, id string) Result {
	reqID := uuid.NewString()
	log := c.logger.With(zap.String("notification", id), zap.String("request_id", reqID))

	if strings.TrimSpace(id) == "" {
		return faulted(id, reqID, 0, ErrMissingID)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return faulted(id, reqID, 0, fmt.Errorf("read csrf token: %w", err))
	}
	if token == "" {
		return faulted(id, reqID, 0, ErrMissingToken)
	}

	endpoint := c.Endpoint(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return faulted(id, reqID, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set(c.header, token)
	req.Header.Set("Content-Type", "application/json")

	log.Debug("sending mark-read request", zap.String("url", endpoint))
	resp, err := c.http.Do(req)
	if err != nil {
		return faulted(id, reqID, 0, fmt.Errorf("post %s: %w", endpoint, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainedBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return faulted(id, reqID, resp.StatusCode, &StatusError{Code: resp.StatusCode})
	}
	return succeeded(id, reqID, resp.StatusCode)
}
