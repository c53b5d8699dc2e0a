package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/manifest-network/upgrade-helper/internal/failure"
)

// RetryPolicy bounds how often and how patiently a remote call is retried.
// Only the number of attempts is bounded, never the wall-clock time.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Multiplier grows the expected delay per attempt. Values <= 1 fall back to 2.
	Multiplier float64
	// Jitter is the randomization factor applied to each delay, in [0, 1].
	Jitter float64
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Multiplier = p.Multiplier
	if b.Multiplier <= 1 {
		b.Multiplier = 2
	}
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Retry runs op until it succeeds, fails with a non-transient error, or the
// policy runs out of attempts. It returns the number of attempts made and the
// last error observed.
func Retry(ctx context.Context, policy RetryPolicy, operation string, op func(context.Context) error) (int, error) {
	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			err := op(ctx)
			if err == nil {
				return nil
			}
			if !failure.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(policy.newBackOff(), ctx),
		func(err error, delay time.Duration) {
			slog.Warn("Retrying after transient failure",
				"operation", operation,
				"attempt", attempts,
				"delay", delay,
				"error", err)
		},
	)
	return attempts, err
}
