package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, rate float64, burst int) *ExportLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewExportLimiterWithClient(client, rate, burst)
	require.NoError(t, err)
	return limiter
}

func TestExportLimiter_ExhaustsBurst(t *testing.T) {
	limiter := newLimiter(t, 0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	other, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestExportLimiter_DisabledAllows(t *testing.T) {
	limiter, err := NewExportLimiter(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, limiter)

	res, err := limiter.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewExportLimiterWithClient_RejectsBadLimits(t *testing.T) {
	_, err := NewExportLimiterWithClient(nil, 0, 1)
	assert.Error(t, err)
}
