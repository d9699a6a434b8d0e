// Package retry runs a call a bounded number of times with exponential
// backoff between attempts. Waits stop early when the context is done.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaignintel/internal"
)

// Config configures retry behavior.
type Config struct {
	Attempts       int           // total calls, including the first
	InitialBackoff time.Duration // wait after the first failure, doubled each retry
	MaxBackoff     time.Duration // cap on a single wait
}

// DefaultConfig makes three attempts waiting 200ms then 400ms.
func DefaultConfig() Config {
	return Config{
		Attempts:       3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// ErrAttemptsExhausted wraps the last error once every attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Do calls fn until it succeeds, returns a Permanent error, the context ends
// or cfg.Attempts calls have failed.
func Do[T any](ctx context.Context, cfg Config, operation string, logger *internal.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		out, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("[Retry] %s succeeded on attempt %d", operation, attempt)
			}
			return out, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if attempt == cfg.Attempts {
			break
		}

		wait := Backoff(cfg, attempt)
		logger.Warn("[Retry] %s attempt %d/%d failed: %v (retrying in %s)", operation, attempt, cfg.Attempts, err, wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return zero, lastErr
		}
	}
	return zero, fmt.Errorf("%s: %w after %d attempts: %w", operation, ErrAttemptsExhausted, cfg.Attempts, lastErr)
}

// Backoff returns the wait after the given failed attempt (1-based).
func Backoff(cfg Config, attempt int) time.Duration {
	wait := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if cfg.MaxBackoff > 0 && wait >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if cfg.MaxBackoff > 0 && wait > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
