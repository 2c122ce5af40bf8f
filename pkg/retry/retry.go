// Package retry provides a counted retry loop with a fixed inter-attempt
// delay, for side channels that must never block or fail the caller's
// main work.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy defines the retry behavior: a fixed number of attempts separated
// by a fixed delay. There is deliberately no backoff.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the pause between consecutive attempts.
	Delay time.Duration
}

// DefaultPolicy matches the notification delivery budget.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or the
// context is canceled. It returns the last error observed.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry canceled: %w", err)
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}
