package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store with fixed-window counters in Redis, for
// deployments running more than one service instance behind a load
// balancer. Each key gets one counter per window; the counter expires
// with the window, so stale clients clean themselves up.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a Redis-backed store admitting up to limit
// requests per key within each fixed window.
func NewRedisStore(rdb *redis.Client, limit int, window time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "throttle",
		limit:  limit,
		window: window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow increments the counter for the key's current window and
// admits the request while the counter is within the cap.
func (s *RedisStore) Allow(ctx context.Context, key string) (*Result, error) {
	windowStart := time.Now().Truncate(s.window)
	redisKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, windowStart.Unix())

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("error checking rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > s.limit {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			Limit:      s.limit,
			RetryAfter: time.Until(windowStart.Add(s.window)),
		}, nil
	}

	return &Result{
		Allowed:   true,
		Remaining: s.limit - count,
		Limit:     s.limit,
	}, nil
}
