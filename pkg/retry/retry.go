// Package retry runs an operation again with exponential backoff and jitter.
// Student Hub uses it while dialing storage backends at startup, when a
// container for redis, postgres or mongo may still be coming up.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Retryable marks err as worth another attempt under a Policy without
// ShouldRetry. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err: err}
}

// IsRetryable reports whether err was marked by Retryable.
func IsRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

// Policy describes how often and how patiently to retry. The zero value
// makes a single attempt.
type Policy struct {
	Attempts int           // total tries including the first
	Base     time.Duration // delay before the second try, doubled afterwards
	Cap      time.Duration // upper bound for one delay; zero means none
	Jitter   float64       // +/- fraction applied to each delay

	// ShouldRetry overrides the default of retrying only Retryable errors.
	ShouldRetry func(error) bool

	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do calls op until it succeeds, returns an error the policy will not
// retry, or runs out of attempts. The Retryable marker is stripped from the
// returned error. A cancelled ctx ends the loop with the last op error, or
// ctx.Err() when op never ran.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	retryIf := p.ShouldRetry
	if retryIf == nil {
		retryIf = IsRetryable
	}

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				return ctxErr
			}
			return unmark(err)
		}

		if err = op(ctx); err == nil {
			return nil
		}
		if attempt >= attempts || !retryIf(err) {
			return unmark(err)
		}

		delay := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, unmark(err), delay)
		}
		if timeutil.Sleep(ctx, delay) != nil {
			return unmark(err)
		}
	}
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt && (p.Cap <= 0 || d < p.Cap); i++ {
		d *= 2
	}
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	if p.Jitter > 0 {
		d += time.Duration(float64(d) * p.Jitter * (2*rand.Float64() - 1))
	}
	return max(d, 0)
}

func unmark(err error) error {
	if r, ok := err.(retryableError); ok {
		return r.err
	}
	return err
}

// BackendConnect is used while opening a storage backend. Every connect
// error is retried; the caller bounds the total with ctx.
func BackendConnect(onRetry func(attempt int, err error, delay time.Duration)) Policy {
	return Policy{
		Attempts: 5,
		Base:     200 * time.Millisecond,
		Cap:      3 * time.Second,
		Jitter:   0.2,
		ShouldRetry: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnRetry: onRetry,
	}
}

// StorageRoundTrip is used for single storage calls that hit a transient
// network error.
func StorageRoundTrip() Policy {
	return Policy{
		Attempts: 3,
		Base:     50 * time.Millisecond,
		Cap:      time.Second,
		Jitter:   0.05,
	}
}
