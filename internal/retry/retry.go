// Package retry applies a bounded attempt/backoff policy to external calls.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sleep is swapped out in tests so backoff is observable without real waits.
var sleep = time.Sleep

// Policy describes how many times to try an external call and how long to
// wait between attempts. The wait grows linearly: Delay, 2*Delay, ...
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy matches the evaluation client's historical behavior:
// three attempts with a 3s linearly increasing backoff.
var DefaultPolicy = Policy{Attempts: 3, Delay: 3 * time.Second}

// Do runs fn until it succeeds or attempts are exhausted, returning the
// last error. Context cancellation stops waiting immediately.
func (p Policy) Do(ctx context.Context, logger *zap.Logger, name string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if logger != nil {
			logger.Warn("call failed",
				zap.String("call", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(lastErr),
			)
		}

		if attempt < attempts {
			if err := wait(ctx, p.Delay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: %d attempts: %w", name, attempts, lastErr)
}

// wait blocks for d or until ctx is done, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
