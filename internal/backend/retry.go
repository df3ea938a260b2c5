package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ekisa-team/toolguide/internal/telemetry"
)

// RetryPolicy bounds how often and how patiently a vendor call is repeated.
// Delays double from BaseDelay: 1s, 2s, 4s, ...
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = backoff.DefaultMaxInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done.
func Retry[T any](ctx context.Context, policy RetryPolicy, operation string, fn func(context.Context) (T, error)) (T, error) {
	var (
		result  T
		attempt int
	)

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	op := func() error {
		attempt++

		v, err := fn(ctx)
		if err == nil {
			result = v
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		telemetry.RecordRetry(operation)
		slog.Warn("Vendor call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", attempts,
			"next_delay", next,
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy.backOff(), uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		var zero T
		return zero, fmt.Errorf("%s failed after %d attempt(s): %w", operation, attempt, err)
	}

	return result, nil
}
