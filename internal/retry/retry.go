// Package retry runs an operation again after transient provider failures.
package retry

import (
	"context"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Default policy: one retry after a short fixed pause.
const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = 200 * time.Millisecond
)

// Config controls how an operation is retried.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 use the default.
	MaxAttempts int

	// Backoff is the fixed pause between attempts.
	Backoff time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to domain.IsTransient.
	Retryable func(error) bool

	// Name labels log lines.
	Name string
}

// DefaultConfig returns the single-retry policy used for provider calls.
func DefaultConfig(name string) Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		Retryable:   domain.IsTransient,
		Name:        name,
	}
}

// Do runs operation until it succeeds, fails with a non-retryable error,
// or runs out of attempts. The last error is returned unchanged.
func Do(ctx context.Context, cfg Config, operation func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// DoWithResult is Do for operations that return a value.
func DoWithResult[T any](ctx context.Context, cfg Config, operation func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retryable == nil {
		cfg.Retryable = domain.IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("%s succeeded on attempt %d", cfg.Name, attempt)
			}
			return result, nil
		}
		lastErr = err

		if !cfg.Retryable(err) || attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v",
			cfg.Name, attempt, cfg.MaxAttempts, cfg.Backoff, err)

		if cfg.Backoff > 0 {
			timer := time.NewTimer(cfg.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}
