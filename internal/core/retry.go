package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Retry defaults, matching the original service client knobs.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// RetryPolicy controls retrying of remote calls that fail transiently.
// The delay before attempt n+1 is BaseDelay * 2^(n-1) plus up to half the
// base delay in jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Test hooks. Nil means real sleeping and random jitter.
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// DefaultRetryPolicy returns the stock policy: 3 attempts, 500ms base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultRetryAttempts, BaseDelay: DefaultRetryBaseDelay}
}

// Do runs fn, retrying transient failures (per IsTransient) until the
// attempt budget is exhausted. Non-transient errors and context
// cancellation fail immediately. When retries were attempted, the
// returned error records the attempt count around the final underlying
// error.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("%s: giving up after %d attempt(s): %w", op, attempt, err)
		}

		delay := p.delay(attempt)
		logger.Warn("transient failure, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err,
		)
		if err := p.wait(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// delay computes the backoff before the next attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.jitter != nil {
		return d + p.jitter()
	}
	if p.BaseDelay > 0 {
		d += rand.N(p.BaseDelay/2 + 1)
	}
	return d
}

// wait sleeps for d unless the context ends first.
func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		p.sleep(d)
		return nil
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
