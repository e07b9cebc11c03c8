package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	srv, client := newTestClient(t)
	rl := NewRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := rl.Allow(ctx, "ip:10.0.0.1")
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: expected allowed, got %+v, %v", i, d, err)
		}
	}

	d, err := rl.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expected third hit to be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry after: %v", d.RetryAfter)
	}

	if ttl := srv.TTL("ratelimit:ip:10.0.0.1"); ttl <= 0 {
		t.Fatalf("expected key to carry an expiry, got %v", ttl)
	}

	srv.FastForward(time.Minute + time.Second)
	if d, _ := rl.Allow(ctx, "ip:10.0.0.1"); !d.Allowed || d.Remaining != 1 {
		t.Fatalf("expected a fresh window, got %+v", d)
	}
}

func TestRateLimiter_KeysIndependent(t *testing.T) {
	_, client := newTestClient(t)
	rl := NewRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	_, _ = rl.Allow(ctx, "user:a")
	if d, _ := rl.Allow(ctx, "user:b"); !d.Allowed {
		t.Fatalf("keys must be counted independently")
	}
}

func TestRateLimiter_ConnectionError(t *testing.T) {
	srv, client := newTestClient(t)
	rl := NewRateLimiter(client, 1, time.Minute)
	srv.Close()

	if _, err := rl.Allow(context.Background(), "ip:1"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
