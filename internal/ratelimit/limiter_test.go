package ratelimit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/ratelimit"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// countingClient records how many requests reached the wrapped client.
type countingClient struct {
	gets  int
	raws  int
	posts int
}

func (c *countingClient) Get(context.Context, string, interface{}) error {
	c.gets++
	return nil
}

func (c *countingClient) GetRaw(context.Context, string) ([]byte, error) {
	c.raws++
	return nil, nil
}

func (c *countingClient) PostJSON(context.Context, string, interface{}, interface{}) error {
	c.posts++
	return nil
}

func TestLimiterAllowsBurst(t *testing.T) {
	limiter := ratelimit.New(1, 3)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLimiterThrottlesBeyondBurst(t *testing.T) {
	limiter := ratelimit.New(10, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterHonorsContextCancellation(t *testing.T) {
	limiter := ratelimit.New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, limiter.Wait(ctx))
	cancel()
	assert.Error(t, limiter.Wait(ctx))
}

func TestDisabledLimiterNeverBlocks(t *testing.T) {
	limiter := ratelimit.New(0, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWrapHTTPClientForwardsRequests(t *testing.T) {
	inner := &countingClient{}
	client := ratelimit.WrapHTTPClient(inner, ratelimit.New(0, 0))
	ctx := context.Background()

	require.NoError(t, client.Get(ctx, "http://example.test", nil))
	_, err := client.GetRaw(ctx, "http://example.test")
	require.NoError(t, err)
	require.NoError(t, client.PostJSON(ctx, "http://example.test", nil, nil))

	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, 1, inner.raws)
	assert.Equal(t, 1, inner.posts)
}

func TestWrapHTTPClientStopsOnCancelledContext(t *testing.T) {
	inner := &countingClient{}
	client := ratelimit.WrapHTTPClient(inner, ratelimit.New(1, 1))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, client.Get(ctx, "http://example.test", nil))
	cancel()
	assert.Error(t, client.Get(ctx, "http://example.test", nil))
	assert.Equal(t, 1, inner.gets)
}
