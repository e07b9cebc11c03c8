// Package db holds what the store drivers under it share.
package db

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// ConnectBackoff is the retry policy used while a store comes up: exponential
// from 250ms, capped at 5s per wait, giving up after attempts retries.
func ConnectBackoff(attempts uint64) retry.Backoff {
	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(attempts, b)
}
