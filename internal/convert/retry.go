package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// Default retry policy.
const (
	DefaultAttempts = 3
	DefaultDelay    = 5 * time.Second
)

// Retrying retries a converter with a fixed delay between attempts.
// Missing programs and missing documents are not retried.
type Retrying struct {
	next     Converter
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// RetryOption configures a Retrying converter.
type RetryOption func(*Retrying)

// WithAttempts sets the total number of attempts.
func WithAttempts(n uint) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithDelay sets the wait between attempts.
func WithDelay(d time.Duration) RetryOption {
	return func(r *Retrying) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRetryLogger sets the logger.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrying) {
		r.logger = logger
	}
}

// NewRetrying wraps next.
func NewRetrying(next Converter, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:     next,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Convert runs the wrapped converter until it succeeds or the attempts
// are used up. The returned error wraps ErrConversionFailed and the last
// attempt's error.
func (r *Retrying) Convert(ctx context.Context, job Job) error {
	err := retry.Do(
		func() error {
			return r.next.Convert(ctx, job)
		},
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrConverterNotFound) && !errors.Is(err, ErrNoDocument)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("conversion attempt failed",
				"attempt", n+1,
				"attempts", r.attempts,
				"target", job.Target,
				"error", err,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return nil
}
