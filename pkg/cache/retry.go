package cache

import (
	"context"
	"errors"
	"time"
)

// retryDelay is the wait before the second attempt; it doubles after that.
var retryDelay = time.Second

// retryAttempts bounds the number of calls RetryWithBackoff makes.
const retryAttempts = 3

// RetryableError marks a transient backend failure, such as a refused
// Redis connection, that is worth another attempt.
type RetryableError struct{ Err error }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an unmarked error,
// or retryAttempts calls have been made. Context cancellation during a
// wait aborts with ctx.Err().
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := retryDelay
	err := fn()
	for attempt := 1; attempt < retryAttempts && IsRetryable(err); attempt++ {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		err = fn()
	}
	return err
}
