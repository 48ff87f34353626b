package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealpulse/dealpulse-bot/pkg/config"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRedisLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	result, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.Check(ctx, "user:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_ZeroLimit(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())

	result, err := limiter.Check(context.Background(), "user:1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestRedisLimiter_NoClient(t *testing.T) {
	limiter := NewRedisLimiter(nil, testLogger())

	_, err := limiter.Check(context.Background(), "user:1", 1, time.Minute)
	assert.Error(t, err)
}

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Search:    config.RateLimitRule{Limit: 10, Window: "1m"},
		Whitelist: []int64{-500},
	}
}

func TestRules(t *testing.T) {
	rules := NewRules(testRateLimitConfig())

	assert.True(t, rules.IsWhitelisted(-500))
	assert.False(t, rules.IsWhitelisted(100))

	limit, window, err := rules.GetPerUserLimit()
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = rules.GetSearchLimit()
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Equal(t, time.Minute, window)
}

func TestRules_InvalidWindow(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.Search.Window = "not-a-duration"

	_, _, err := NewRules(cfg).GetSearchLimit()
	assert.Error(t, err)
}
