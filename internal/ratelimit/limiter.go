// Package ratelimit throttles outbound gateway traffic. The event gateway is
// shared infrastructure and a full backfill can issue thousands of read-only
// calls in a tight loop, so every request passes through a token bucket
// before it reaches the wire.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
)

// Limiter gates request admission.
type Limiter interface {
	// Wait blocks until a request may proceed or the context is done
	Wait(ctx context.Context) error
}

// New creates a token bucket limiter. requestsPerSecond <= 0 disables
// limiting entirely.
func New(requestsPerSecond float64, burst int) Limiter {
	if requestsPerSecond <= 0 {
		return nopLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &localLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

type localLimiter struct {
	limiter *rate.Limiter
}

func (l *localLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

type nopLimiter struct{}

func (nopLimiter) Wait(context.Context) error { return nil }

// limitedHTTPClient decorates an HTTP client with request admission.
type limitedHTTPClient struct {
	inner   adapter.HTTPClient
	limiter Limiter
}

// WrapHTTPClient returns an HTTP client whose every request first acquires
// a token from the limiter.
func WrapHTTPClient(inner adapter.HTTPClient, limiter Limiter) adapter.HTTPClient {
	return &limitedHTTPClient{inner: inner, limiter: limiter}
}

func (c *limitedHTTPClient) Get(ctx context.Context, url string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.Get(ctx, url, result)
}

func (c *limitedHTTPClient) GetRaw(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetRaw(ctx, url)
}

func (c *limitedHTTPClient) PostJSON(ctx context.Context, url string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.PostJSON(ctx, url, body, result)
}
