package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/threadkit"
)

// Do executes the given function with retry logic. Only transient errors
// (per threadkit.IsTransient) are retried; the context is respected
// during backoff waits. Returns the result on success, or the last error
// once the retry budget is exhausted.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !threadkit.IsTransient(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Delay(attempt)):
			}
		}
	}

	return zero, lastErr
}

