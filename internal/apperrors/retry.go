package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior for IndexBusy-style conditions:
// commit, then retry the add/delete that failed.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (not including
	// the initial attempt).
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the factor by which delay grows after each retry.
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults: three retries, starting at
// 50ms, doubling up to 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}
}

// Retry executes fn, and on a retryable *AppError (ErrIndexBusy), calls
// onRetry (typically a commit) before trying again with exponential
// backoff. Non-retryable errors return immediately.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error, onRetry func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			return err
		}

		if onRetry != nil {
			if retryErr := onRetry(); retryErr != nil {
				return retryErr
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// As is a thin re-export of errors.As so callers needing both apperrors
// and errors in the same file only import this package for error-chain
// inspection where convenient.
func As(err error, target any) bool {
	return errors.As(err, target)
}
