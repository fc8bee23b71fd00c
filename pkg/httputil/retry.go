package httputil

import (
	"context"
	"errors"
	"time"
)

// maxDelay caps the wait between two attempts.
const maxDelay = 30 * time.Second

// RetryableError marks a failure worth another attempt: a network error,
// a 429 or a 5xx response. [Retry] gives up at once on anything else.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err in a RetryableError. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err or anything it wraps is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Retry calls fn until it succeeds, fails with an error that is not
// retryable, or has run attempts times (at least once). The wait starts at
// delay and doubles after every failure, up to 30s. Cancelling ctx during a
// wait returns ctx.Err(); otherwise the last error from fn is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || attempt == attempts || !IsRetryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(2*delay, maxDelay)
	}
}
