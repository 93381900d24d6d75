// Package transport is the rate-limited, instrumented HTTP layer used to
// talk to remote APIs.
package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Client performs HTTP requests for one remote service.
type Client struct {
	service string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit limits outgoing requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// New creates a client for service. Request deadlines come from the
// caller's context so long polls can outlive ordinary calls.
func New(service string, opts ...Option) *Client {
	c := &Client{
		service: service,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(constants.DefaultRateLimit), constants.BurstSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req. method names the remote operation for metrics and errors.
// Network failures come back as *errors.APIError without the request URL,
// which may carry credentials.
func (c *Client) Do(ctx context.Context, method string, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.WrapAPI(c.service, method, 0, err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	metrics.TransportDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TransportRequests.WithLabelValues(method, "error").Inc()
		return nil, pkgerrors.WrapAPI(c.service, method, 0, redact(err))
	}
	metrics.TransportRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// Get issues a GET request for rawURL.
func (c *Client) Get(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, pkgerrors.WrapAPI(c.service, method, 0, redact(err))
	}
	return c.Do(ctx, method, req)
}

// Service returns the service name used in errors.
func (c *Client) Service() string {
	return c.service
}

// redact strips the URL from *url.Error values.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
