package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-service/internal/core/ports"
)

const keyPrefix = "ratelimit:"

// RateLimiter is a fixed-window counter shared by every instance that talks
// to the same Redis. Key format: ratelimit:<key>
type RateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow counts one hit for key. The window starts with the first hit; the
// expiry is set only when the key has none, so later hits never extend it.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	k := keyPrefix + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
			return ports.RateDecision{}, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
		ttl = l.window
	}

	count := int(incr.Val())
	if count > l.limit {
		return ports.RateDecision{Allowed: false, Limit: l.limit, RetryAfter: ttl}, nil
	}
	return ports.RateDecision{Allowed: true, Limit: l.limit, Remaining: l.limit - count}, nil
}
