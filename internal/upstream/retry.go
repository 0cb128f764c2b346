package upstream

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// permanentError marks a failure the retry loop must not retry
// (non-retryable upstream status, malformed response).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// retryWithBackoff executes fn with exponential backoff plus jitter on
// failure. The context is used for cancellation during backoff waits; if it
// is canceled during a wait, the context error is returned immediately.
// A permanentError stops the loop and is returned unwrapped.
func retryWithBackoff(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	delay := base

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}

		if attempt < attempts-1 {
			wait := delay + jitterFor(delay)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return err
}

// jitterFor returns a random offset in [0, d/2) so synchronized retries from
// parallel tasks spread out instead of hammering the upstream in lockstep.
func jitterFor(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)/2 + 1))
}
