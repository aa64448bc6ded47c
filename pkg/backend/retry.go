package backend

import (
	"context"
	"time"
)

// Retry executes fn up to attempts times with exponential backoff.
// Only errors wrapped with RetryableError are retried; other errors are
// returned immediately. The delay doubles after each failed attempt.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
