package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/metrics"
)

// errIncomplete is returned when the runner reports success but the hashing
// job never finished.
var errIncomplete = errors.New("hash password: job did not complete")

const (
	// MinCost is the lowest bcrypt cost accepted by configuration.
	MinCost = 10
	// DefaultCost is used when no cost is configured.
	DefaultCost = 12
)

// Runner executes fn, possibly on another goroutine, and returns once fn has
// completed or ctx is done. *queue.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost   int
	runner Runner
}

// NewHasher returns a Hasher with the given bcrypt cost. A nil runner runs
// bcrypt on the calling goroutine.
func NewHasher(cost int, runner Runner) *Hasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &Hasher{cost: cost, runner: runner}
}

// Hash returns the bcrypt encoding of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	var (
		out       []byte
		hashed    error
		completed bool
	)
	err := h.run(ctx, func() {
		start := time.Now()
		out, hashed = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
		completed = true
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if hashed != nil {
		return "", fmt.Errorf("hash password: %w", hashed)
	}
	if !completed || len(out) == 0 {
		return "", errIncomplete
	}
	return string(out), nil
}

// Verify reports whether password matches hash. A malformed hash or a
// cancelled ctx yields false.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	var ok, completed bool
	err := h.run(ctx, func() {
		start := time.Now()
		ok = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
		completed = true
	})
	return err == nil && completed && ok
}

func (h *Hasher) run(ctx context.Context, fn func()) error {
	if h.runner == nil {
		fn()
		return nil
	}
	return h.runner.Do(ctx, fn)
}
