package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ports.RateDecision, error) {
	return ports.RateDecision{}, errors.New("redis down")
}

type recordingLimiter struct{ keys []string }

func (l *recordingLimiter) Allow(_ context.Context, key string) (ports.RateDecision, error) {
	l.keys = append(l.keys, key)
	return ports.RateDecision{Allowed: true, Limit: 10, Remaining: 9}, nil
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	e := echo.New()
	mw := RateLimit(memory.NewRateLimiter(1, time.Minute), zerolog.Nop())
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header: %q", rec.Header().Get("X-RateLimit-Remaining"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get(echo.HeaderRetryAfter) == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimit_KeysByUserWhenAuthenticated(t *testing.T) {
	e := echo.New()
	limiter := &recordingLimiter{}
	handler := RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(claimsKey, domain.Claims{ID: "u-7", Role: domain.RoleUser})
	_ = handler(c)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	_ = handler(e.NewContext(req, httptest.NewRecorder()))

	if len(limiter.keys) != 2 || limiter.keys[0] != "user:u-7" || limiter.keys[1] != "ip:10.0.0.2" {
		t.Fatalf("unexpected keys: %v", limiter.keys)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	e := echo.New()
	called := false
	handler := RateLimit(failingLimiter{}, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())); err != nil {
		t.Fatalf("expected request to pass, got %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}
