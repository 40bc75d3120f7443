package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/movie-service/internal/domain"
)

// Redis is a fixed-window counter shared by every service instance.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis builds a Redis-backed limiter.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "ratelimit:", now: time.Now}
}

// WithClock replaces the time source used to pick the window.
func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

// Allow increments the counter of the current window and compares it to limit.Count.
func (r *Redis) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	if err := limit.Validate(); err != nil {
		return false, err
	}
	window := r.now().UnixMilli() / limit.Interval.Milliseconds()
	k := fmt.Sprintf("%s%s:%d", r.prefix, key, window)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.PExpire(ctx, k, limit.Interval)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: rate limiter: %w", domain.ErrDependencyUnavailable, err)
	}
	return incr.Val() <= int64(limit.Count), nil
}
