package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key.
// Key format: ratelimit:<scope>:<key>
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, limit: int64(limit), window: window}
}

// Allow counts one attempt for key and reports whether it is within the limit.
// retryAfter is the time left in the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error) {
	k := l.key(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("rate limit: %w", err)
	}

	retryAfter = ttl.Val()
	if retryAfter < 0 {
		retryAfter = l.window
	}
	return incr.Val() <= l.limit, retryAfter, nil
}

func (l *RateLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.scope, key)
}
