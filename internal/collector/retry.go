package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CoinSentinel/internal/logger"
)

// RetryPolicy controls how rate-limited requests are retried.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // wait before the second attempt; doubles afterwards

	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy allows five attempts starting at a 3s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 3 * time.Second}
}

// delay returns the wait before the given 1-based attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt-2))
}

// WithRetry calls fn until it succeeds, fails with an error other than ErrRateLimited,
// or the attempt budget is spent. Only rate-limit errors are retried.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := policy.delay(attempt)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, wait, lastErr)
			}
			logger.Warn("rate limited (attempt %d/%d), retrying in %v", attempt-1, attempts, wait)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(wait):
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("all %d attempts exhausted: %w", attempts, lastErr)
}
