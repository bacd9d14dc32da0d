package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	maxConnectAttempts = 3
	connectBaseDelay   = time.Second
	connectJitter      = 0.25
)

// connectBackoff returns the delay before the given 1-indexed retry. Delays
// double from connectBaseDelay with up to 25% jitter either way.
func connectBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := connectBaseDelay << (attempt - 1)
	jitter := time.Duration(float64(base) * connectJitter * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter
	return base + jitter
}

// Failure modes worth retrying at startup. Anything else, bad credentials or
// SQL errors included, fails fast.
var transientConnPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"could not connect",
	"server closed the connection unexpectedly",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"dial tcp",
	"EOF",
}

func transientConnError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range transientConnPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// retryTransient runs op up to maxConnectAttempts times, backing off between
// attempts. Only transient connection failures are retried; other errors are
// returned as-is from the first attempt that hit them. logger may be nil.
func retryTransient(ctx context.Context, logger *slog.Logger, what string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !transientConnError(err) {
			return err
		}
		if attempt == maxConnectAttempts {
			break
		}
		delay := connectBackoff(attempt)
		if logger != nil {
			logger.Warn(what+" failed, will retry",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxConnectAttempts),
				slog.Duration("backoff", delay),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, maxConnectAttempts, err)
}
