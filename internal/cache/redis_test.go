package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis cache test")
	}
	c, err := NewRedisCache(addr, os.Getenv("TEST_REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	key := ContentKey([]byte(t.Name() + time.Now().String()))

	got, err := c.GetExtraction(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "expected miss before set")

	require.NoError(t, c.SetExtraction(ctx, key, &Extraction{Kind: "pdf", Text: "page one\n"}, time.Minute))

	got, err = c.GetExtraction(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pdf", got.Kind)
	assert.Equal(t, "page one\n", got.Text)
}

func TestRedisCacheExpires(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	key := ContentKey([]byte(t.Name() + time.Now().String()))

	require.NoError(t, c.SetExtraction(ctx, key, &Extraction{Kind: "text", Text: "x"}, 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	got, err := c.GetExtraction(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
