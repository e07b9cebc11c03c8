package memory

import (
	"context"
	"sync"
	"time"

	"github.com/99minutos/identity-service/internal/core/ports"
)

type bucket struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a fixed-window counter per key, local to this process.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*bucket
	swept   time.Time
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (ports.RateDecision, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		rl.sweep(now)
		rl.clients[key] = &bucket{count: 1, windowEnd: now.Add(rl.window)}
		return ports.RateDecision{Allowed: true, Limit: rl.limit, Remaining: rl.limit - 1}, nil
	}

	if b.count >= rl.limit {
		return ports.RateDecision{
			Allowed:    false,
			Limit:      rl.limit,
			RetryAfter: b.windowEnd.Sub(now),
		}, nil
	}

	b.count++
	return ports.RateDecision{Allowed: true, Limit: rl.limit, Remaining: rl.limit - b.count}, nil
}

// sweep drops expired buckets at most once per window so idle keys do not
// accumulate. Called with mu held.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.swept) < rl.window {
		return
	}
	rl.swept = now
	for k, b := range rl.clients {
		if !now.Before(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}
