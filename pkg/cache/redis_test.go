package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "analysis:simple:abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "analysis:simple:abc", []byte(`{"status":"success"}`), time.Minute))
	got, ok, err := c.Get(ctx, "analysis:simple:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"status":"success"}`, string(got))
	require.Equal(t, time.Minute, mr.TTL("analysis:simple:abc"))

	mr.FastForward(time.Minute)
	_, ok, err = c.Get(ctx, "analysis:simple:abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheUnavailableIsError(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	mr.Close()

	_, ok, err := c.Get(ctx, "k")
	require.Error(t, err)
	require.False(t, ok)
	require.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
}

func TestRedisCacheNonPositiveTTLStoresNothing(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	for _, ttl := range []time.Duration{0, -time.Second} {
		require.NoError(t, c.Set(ctx, "analysis:simple:zero", []byte("v"), ttl))
	}
	require.False(t, mr.Exists("analysis:simple:zero"))

	mr.FastForward(1000 * time.Hour)
	_, ok, err := c.Get(ctx, "analysis:simple:zero")
	require.NoError(t, err)
	require.False(t, ok)
}
