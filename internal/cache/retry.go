package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RetryPolicy defines fixed-interval retry behavior. MaxAttempts of zero
// means retry until the context is cancelled.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy retries every five seconds, forever.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Interval: 5 * time.Second}
}

// Run calls fn until it succeeds, the attempts are exhausted, or ctx is done.
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; p.MaxAttempts <= 0 || attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.MaxAttempts > 0 && attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}
	return lastErr
}

// Connect pings redis from a background task until it answers. It never
// fails the caller: the returned channel is closed once the client is ready
// or the policy gives up.
func Connect(ctx context.Context, rdb goredis.UniversalClient, policy RetryPolicy, logger Logger) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		defer close(ready)
		err := policy.Run(ctx, func(ctx context.Context, attempt int) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis not reachable, retrying", "attempt", attempt, "retry_in", policy.Interval, "error", err)
				return err
			}
			return nil
		})
		if err != nil {
			logger.Error("redis connection abandoned", "error", err)
			return
		}
		logger.Info("redis connection established")
	}()
	return ready
}
