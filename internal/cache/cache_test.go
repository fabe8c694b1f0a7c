package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute, zap.NewNop()), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	_, found, err := c.Get(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "admin", []string{"ads.moderate", "users.manage"}))
	codes, found, err := c.Get(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ads.moderate", "users.manage"}, codes)

	mr.FastForward(2 * time.Minute)
	_, found, err = c.Get(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_EmptyGrantIsCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	require.NoError(t, c.Set(ctx, "tenant", nil))
	codes, found, err := c.Get(ctx, "tenant")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, codes)
}

func TestRedisCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	require.NoError(t, c.Set(ctx, "admin", []string{"a"}))
	require.NoError(t, c.Set(ctx, "owner", []string{"b"}))
	require.NoError(t, mr.Set("unrelated", "x"))

	require.NoError(t, c.Invalidate(ctx, "admin"))
	_, found, _ := c.Get(ctx, "admin")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "owner")
	assert.True(t, found)

	require.NoError(t, c.Invalidate(ctx, ""))
	_, found, _ = c.Get(ctx, "owner")
	assert.False(t, found)
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	require.NoError(t, mr.Set(keyPrefix+"admin", "{not json"))
	_, found, err := c.Get(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(keyPrefix+"admin"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "admin", []string{"a"}))
	codes, found, _ := c.Get(ctx, "admin")
	assert.True(t, found)
	assert.Equal(t, []string{"a"}, codes)

	now = now.Add(time.Minute)
	_, found, _ = c.Get(ctx, "admin")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "admin", []string{"a"}))
	require.NoError(t, c.Set(ctx, "owner", []string{"b"}))
	require.NoError(t, c.Invalidate(ctx, ""))
	_, found, _ = c.Get(ctx, "owner")
	assert.False(t, found)
}
