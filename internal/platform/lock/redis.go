package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions tunes the redsync mutex.
type RedisOptions struct {
	// Expiry bounds how long a crashed holder can block others. A live holder
	// extends it while its function runs.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      64,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Redis is a Locker shared by every server instance using the same Redis.
type Redis struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *zap.Logger
}

func NewRedis(client goredislib.UniversalClient, opts RedisOptions, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := validate(key, fn); err != nil {
		return err
	}
	mutex := r.rs.NewMutex(key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(context.WithoutCancel(ctx), mutex, key, stop, done)

	defer func() {
		close(stop)
		<-done
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			r.logger.Warn("release lock", zap.String("key", key), zap.Bool("unlock_ok", ok), zap.Error(err))
		}
	}()
	return fn(ctx)
}

// keepAlive extends the mutex every third of its expiry until stop is closed,
// so a settlement walk longer than Expiry keeps exclusive access.
func (r *Redis) keepAlive(ctx context.Context, mutex *redsync.Mutex, key string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := r.opts.Expiry / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ok, err := mutex.ExtendContext(ctx); !ok || err != nil {
				r.logger.Warn("extend lock", zap.String("key", key), zap.Bool("extend_ok", ok), zap.Error(err))
			}
		}
	}
}
