// internal/adapters/db/retry.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxConnRetries = 3

// connBackoff returns the pause before retry attempt n (1-based): 1s, 2s, 4s.
func connBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// WithConnRetry runs fn, retrying transient connection failures up to three
// times with exponential backoff. Non-transient errors surface immediately.
func WithConnRetry(ctx context.Context, logger *slog.Logger, fn func() error) error {
	var err error
	if err = fn(); err == nil || !IsTransient(err) {
		return err
	}

	for attempt := 1; attempt <= maxConnRetries; attempt++ {
		wait := connBackoff(attempt)
		logger.Warn("transient database failure, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}

	return fmt.Errorf("retries exhausted: %w", MapError(err))
}
