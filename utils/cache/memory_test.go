package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.SetJSON(ctx, "doc", map[string]int{"score": 82}, time.Minute))
	var got map[string]int
	require.NoError(t, c.GetJSON(ctx, "doc", &got))
	assert.Equal(t, 82, got["score"])

	n, _ := c.Increment(ctx, "attempts")
	assert.Equal(t, int64(1), n)
	n, _ = c.Increment(ctx, "attempts")
	assert.Equal(t, int64(2), n)

	ttl, _ := c.TTL(ctx, "attempts")
	assert.Equal(t, time.Duration(-1), ttl)
	require.NoError(t, c.Expire(ctx, "attempts", 30*time.Second))
	ttl, _ = c.TTL(ctx, "attempts")
	assert.Equal(t, 30*time.Second, ttl)

	now = now.Add(2 * time.Minute)
	ok, _ := c.Exists(ctx, "doc")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "attempts")
	assert.False(t, ok)
}

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" || url == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 and REDIS_URL to run.")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, DefaultPrefix+"test:")
	require.NoError(t, err)
	defer c.Close()

	key := time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, key, "v", time.Minute))
	val, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	require.NoError(t, c.Delete(ctx, key))

	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
