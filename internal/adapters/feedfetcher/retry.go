package feedfetcher

import (
	"context"
	"fmt"
	"time"

	"imobiliaria-sync/internal/core/port"
)

// withRetry runs fn up to maxAttempts times with exponential backoff.
// The delay doubles after every failed attempt, starting from baseDelay.
func withRetry(ctx context.Context, logger port.LoggerPort, name string, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		logger.Warn("Attempt failed, retrying", port.Fields{
			"operation": name,
			"attempt":   attempt,
			"delay":     delay.String(),
			"error":     lastErr.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, lastErr)
}
