package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, nopLogger{}), mr
}

type snapshot struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestSetAndGetJSON(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, ChatKey("abc"), snapshot{Title: "t", Count: 2}, 100*time.Second))
	assert.Equal(t, 100*time.Second, mr.TTL(ChatKey("abc")))

	var got snapshot
	require.NoError(t, c.GetJSON(ctx, ChatKey("abc"), &got))
	assert.Equal(t, snapshot{Title: "t", Count: 2}, got)
}

func TestGetMissIsDistinctFromEmpty(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var list []snapshot
	assert.ErrorIs(t, c.GetJSON(ctx, ChatListKey, &list), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, ChatListKey, []snapshot{}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, ChatListKey, &list))
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, ChatListKey, []snapshot{{Title: "a"}}, 100*time.Second))
	mr.FastForward(101 * time.Second)

	var list []snapshot
	assert.ErrorIs(t, c.GetJSON(ctx, ChatListKey, &list), ErrMiss)
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, ChatKey("a"), snapshot{}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, ChatKey("b"), snapshot{}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, ChatListKey, []snapshot{}, time.Minute))

	n, err := c.Invalidate(ctx, ChatKey("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(ChatKey("a")))
	assert.True(t, mr.Exists(ChatKey("b")))

	n, err = c.Invalidate(ctx, ChatKey("*"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, mr.Exists(ChatListKey))

	n, err = c.Invalidate(ctx, "nothing:here")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFailuresAreReported(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	var cacheErr *CacheError
	err := c.SetJSON(ctx, ChatListKey, []snapshot{}, time.Minute)
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "set", cacheErr.Operation)

	_, err = c.Invalidate(ctx, ChatListKey)
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "invalidate", cacheErr.Operation)

	var list []snapshot
	err = c.GetJSON(ctx, ChatListKey, &list)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
}

func TestRetryPolicyBounded(t *testing.T) {
	var calls int32
	p := RetryPolicy{Interval: time.Millisecond, MaxAttempts: 3}
	err := p.Run(context.Background(), func(context.Context, int) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, int32(3), calls)
}

func TestRetryPolicyUnboundedStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{Interval: time.Millisecond}
	err := p.Run(context.Background(), func(_ context.Context, attempt int) error {
		if attempt < 5 {
			return errors.New("down")
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestRetryPolicyHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := RetryPolicy{Interval: time.Hour}
	err := p.Run(ctx, func(context.Context, int) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectWaitsForRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	ready := Connect(context.Background(), rdb, RetryPolicy{Interval: 20 * time.Millisecond}, nopLogger{})

	select {
	case <-ready:
		t.Fatal("connect finished while redis was down")
	case <-time.After(60 * time.Millisecond):
	}

	require.NoError(t, mr.Restart())

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("connect did not finish after redis came up")
	}
	assert.NoError(t, rdb.Ping(context.Background()).Err())
}
