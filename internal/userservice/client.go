// Package userservice is a client for the remote user management service.
//
// Every call resolves the caller's bearer credential, issues one HTTP request
// against the configured endpoint and maps the JSON response to local values.
package userservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/penshort/usergate/internal/auth"
	"github.com/penshort/usergate/internal/metrics"
	"github.com/penshort/usergate/internal/model"
	"github.com/penshort/usergate/internal/policy"
)

// HeaderSource exposes headers of the request currently being served.
type HeaderSource interface {
	Header(ctx context.Context, name string) string
}

// CredentialCache is the fallback store for the credential.
// A missing key must yield "" and a nil error.
type CredentialCache interface {
	Get(ctx context.Context, key string) (string, error)
}

// Gate decides abilities for a resolved user.
type Gate interface {
	Authorize(ctx context.Context, user model.User, ability string, args ...any) (*policy.Response, error)
}

// Client calls the user service on behalf of the current caller.
// It holds no per-request state and is safe for concurrent use when its
// collaborators are.
type Client struct {
	endpoint string
	source   HeaderSource
	cache    CredentialCache
	gate     Gate
	http     Doer
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for every call.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the service at endpoint.
// A trailing slash on endpoint is dropped. source and cache may be nil,
// in which case they never supply a credential.
func New(endpoint string, source HeaderSource, cache CredentialCache, gate Gate, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		source:   source,
		cache:    cache,
		gate:     gate,
		http:     NewHTTPClient(DefaultTimeout),
		metrics:  metrics.NewNoop(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Headers resolves the headers sent with every call.
// The Authorization value comes from the incoming request, or from the
// credential cache when the request carries none. The header is always
// present, possibly empty.
func (c *Client) Headers(ctx context.Context) (http.Header, error) {
	credential, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	h := make(http.Header, 1)
	h.Set(auth.HeaderAuthorization, credential)
	return h, nil
}

func (c *Client) credential(ctx context.Context) (string, error) {
	if c.source != nil {
		if v := c.source.Header(ctx, auth.HeaderAuthorization); v != "" {
			c.metrics.IncCredentialSource(metrics.CredentialSourceHeader)
			return v, nil
		}
	}

	if c.cache != nil {
		v, err := c.cache.Get(ctx, auth.HeaderAuthorization)
		if err != nil {
			return "", fmt.Errorf("credential cache: %w", err)
		}
		if v != "" {
			c.metrics.IncCredentialSource(metrics.CredentialSourceCache)
			return v, nil
		}
	}

	c.metrics.IncCredentialSource(metrics.CredentialSourceNone)
	return "", nil
}

// Request returns a request builder carrying the resolved headers.
func (c *Client) Request(ctx context.Context) (*PendingRequest, error) {
	headers, err := c.Headers(ctx)
	if err != nil {
		return nil, err
	}
	return &PendingRequest{client: c, ctx: ctx, header: headers}, nil
}
