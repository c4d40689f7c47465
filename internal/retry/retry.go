package retry

import (
	"context"
	"fmt"
	"time"
)

// DefaultAttempts is the bounded retry budget used for write paths and
// startup dependency checks.
const DefaultAttempts = 3

// DefaultBase is the first backoff interval; each subsequent wait
// doubles it (1s, 2s, 4s, ...).
const DefaultBase = time.Second

// Do runs fn up to attempts times, doubling the wait between attempts
// starting from base. The last error is returned once the budget is
// exhausted; a failure is never swallowed. Context cancellation aborts
// the wait and surfaces ctx.Err().
func Do(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		wait := base << uint(i)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
