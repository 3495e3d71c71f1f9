package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisFixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)

	now := time.Unix(9000, 0)
	l := NewRedis(rdb, "login", 2, 900*time.Second)
	l.now = func() time.Time { return now }

	ctx := context.Background()

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 900*time.Second, d.RetryAfter)

	key := l.key("1.2.3.4", windowIndex(now, 900*time.Second))
	require.True(t, mr.Exists(key))
	require.Equal(t, 1800*time.Second, mr.TTL(key))

	now = now.Add(900 * time.Second)
	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestRedisErrorsSurface(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedis(rdb, "", 5, time.Minute)

	mr.Close()

	_, err := l.Allow(context.Background(), "x")
	require.Error(t, err)
}
