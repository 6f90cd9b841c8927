package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSerialized(t *testing.T, l Locker) {
	t.Helper()

	var inside, overlaps, runs atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), SettlementKey, func(context.Context) error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				runs.Add(1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), runs.Load())
	assert.Zero(t, overlaps.Load())
}

func TestLocalSerializes(t *testing.T) {
	t.Parallel()
	assertSerialized(t, NewLocal())
}

func TestLocalValidatesInput(t *testing.T) {
	t.Parallel()
	l := NewLocal()

	assert.ErrorIs(t, l.WithLock(context.Background(), " ", func(context.Context) error { return nil }), ErrEmptyKey)
	assert.ErrorIs(t, l.WithLock(context.Background(), SettlementKey, nil), ErrNilFn)
}

func TestLocalReturnsFnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	err := NewLocal().WithLock(context.Background(), SettlementKey, func(context.Context) error { return boom })
	assert.Same(t, boom, err)
}

func TestLocalHonorsContextWhileWaiting(t *testing.T) {
	t.Parallel()
	l := NewLocal()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), SettlementKey, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, SettlementKey, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func newRedisLocker(t *testing.T, opts RedisOptions) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, opts, nil)
}

func TestRedisSerializes(t *testing.T) {
	t.Parallel()
	opts := DefaultRedisOptions()
	opts.RetryDelay = 2 * time.Millisecond
	opts.Tries = 1000
	assertSerialized(t, newRedisLocker(t, opts))
}

func TestRedisBusyLockFails(t *testing.T) {
	t.Parallel()
	opts := DefaultRedisOptions()
	opts.Tries = 1
	l := newRedisLocker(t, opts)

	err := l.WithLock(context.Background(), SettlementKey, func(ctx context.Context) error {
		return l.WithLock(ctx, SettlementKey, func(context.Context) error { return nil })
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")

	// Released after the outer call returns.
	require.NoError(t, l.WithLock(context.Background(), SettlementKey, func(context.Context) error { return nil }))
}

func TestRedisExtendsLockWhileRunning(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	opts := DefaultRedisOptions()
	opts.Expiry = 300 * time.Millisecond
	l := NewRedis(client, opts, nil)

	err := l.WithLock(context.Background(), SettlementKey, func(context.Context) error {
		// Age the key close to expiry, then wait for the holder to refresh it.
		mr.FastForward(250 * time.Millisecond)
		require.Eventually(t, func() bool {
			return mr.TTL(SettlementKey) > 100*time.Millisecond
		}, 2*time.Second, 10*time.Millisecond)

		// Without the refresh the original expiry would have passed by now.
		mr.FastForward(100 * time.Millisecond)
		assert.True(t, mr.Exists(SettlementKey))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(SettlementKey))
}
