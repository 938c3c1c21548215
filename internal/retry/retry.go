package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	// DelayFunc returns the pause after a failed attempt. Nil retries immediately.
	DelayFunc func(attempt int) time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
}

// ErrPermanent marks an error that must not be retried.
var ErrPermanent = errors.New("permanent failure")

// WithRetry calls fn until it succeeds, the attempts run out, the error is
// not retryable, or ctx is done. fn receives the 1-based attempt number.
func WithRetry(ctx context.Context, config RetryConfig, fn func(attempt int) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrPermanent) || (config.Retryable != nil && !config.Retryable(err)) {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("failed after %d attempts: %w", attempts, err)
		}

		var delay time.Duration
		if config.DelayFunc != nil {
			delay = config.DelayFunc(attempt)
		}

		if delay <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
