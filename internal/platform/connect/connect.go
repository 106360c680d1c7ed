// Package connect retries backend connection attempts with a linear backoff.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy controls how many times a connection is attempted and how long to
// wait between attempts. The wait before attempt n+1 is n × Backoff.
type Policy struct {
	Attempts uint64
	Backoff  time.Duration
}

// DefaultPolicy makes five attempts one, two, three and four seconds apart.
var DefaultPolicy = Policy{Attempts: 5, Backoff: time.Second}

// LinearBackoff returns a retry.Backoff that waits base, 2×base, 3×base and so
// on. It never stops on its own; bound it with retry.WithMaxRetries.
func LinearBackoff(base time.Duration) retry.Backoff {
	var attempt uint64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n := atomic.AddUint64(&attempt, 1)
		return time.Duration(n) * base, false
	})
}

// WithRetry calls fn until it succeeds, the policy is exhausted or ctx is
// done. Every failed attempt is logged at WARN. The returned error is the
// last error from fn.
func WithRetry(
	ctx context.Context,
	name string,
	policy Policy,
	log *slog.Logger,
	fn func(ctx context.Context) error,
) error {
	if log == nil {
		log = slog.Default()
	}
	if policy.Attempts == 0 {
		policy.Attempts = 1
	}

	backoff := retry.WithMaxRetries(policy.Attempts-1, LinearBackoff(policy.Backoff))

	var attempt uint64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			log.Warn("connection attempt failed",
				slog.String("target", name),
				slog.Uint64("attempt", attempt),
				slog.Uint64("max_attempts", policy.Attempts),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s after %d attempts: %w", name, attempt, err)
	}

	log.Info("connected", slog.String("target", name), slog.Uint64("attempts", attempt))
	return nil
}
