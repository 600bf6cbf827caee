// Package retry provides jittered exponential backoff, a bounded worker
// pool, and a circuit breaker wrapper for calls to external collaborators
// (web search, ad archive, warehouse AI surface).
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// BackoffConfig configures jittered exponential backoff between retry
// attempts.
type BackoffConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultBackoffConfig mirrors the retry budget used across upstream
// collaborator calls: a handful of attempts within a few seconds, not a
// long-running retry loop.
var DefaultBackoffConfig = BackoffConfig{
	MaxRetries: 3,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   4 * time.Second,
}

// Do calls fn, retrying up to cfg.MaxRetries additional times when shouldRetry
// returns true for the returned error, sleeping a jittered exponential
// backoff between attempts. Returns the last error if every attempt fails.
func Do(ctx context.Context, cfg BackoffConfig, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}
	}
	return lastErr
}

// backoffDelay computes delay for the given attempt (1-indexed): base *
// 2^(attempt-1), capped at MaxDelay, with full jitter applied.
func backoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	exp := cfg.BaseDelay << (attempt - 1)
	if exp > cfg.MaxDelay || exp <= 0 {
		exp = cfg.MaxDelay
	}
	// Full jitter: uniform random in [0, exp].
	return time.Duration(rand.Int64N(int64(exp) + 1))
}
