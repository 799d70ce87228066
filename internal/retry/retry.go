// Package retry provides bounded retries with exponential backoff for calls
// that cross the process boundary to external collaborators.
//
// Failures come in two kinds. Transient failures (network errors, rate
// limits, 5xx responses) are worth retrying; permanent failures (bad
// requests, malformed content) are not. Adapters mark retryable errors with
// Transient; everything else stops the loop immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultBaseDelay is the delay before the first retry; each subsequent
// retry doubles it.
const DefaultBaseDelay = time.Second

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; doubles per retry.
	// Zero means DefaultBaseDelay.
	BaseDelay time.Duration
}

// Do invokes fn up to p.MaxAttempts times, sleeping with exponential backoff
// between attempts. It stops early on success, on a non-transient error, or
// when ctx is cancelled. The returned error is the last failure, wrapped
// with the attempt count once the budget is exhausted.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("%d attempt(s) exhausted: %w", attempts, err)
}
