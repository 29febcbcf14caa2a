package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimiter throttles public lead form submissions per client using a
// fixed window counter.
type RateLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a rate limiter allowing `limit` submissions per
// client within `window`.
func NewRateLimiter(rdb *goredis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow consumes one submission slot for the client and reports whether the
// submission is within the limit. The first hit of a window arms the expiry.
func (r *RateLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	key := fmt.Sprintf("rate_limit:leads:%s", clientIP)

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("failed to arm rate limit window: %w", err)
		}
	}
	return count <= int64(r.limit), nil
}
