// Package retry runs operations with exponential backoff and
// short-circuits on errors that cannot succeed on a second try.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// ErrInvalidAttempts is returned when a policy asks for fewer than one attempt.
var ErrInvalidAttempts = errors.New("retry: max attempts must be at least 1")

// Policy controls retry behavior for a single operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration
}

// DefaultPolicy matches the documented tool defaults.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Second}

// statusCoder is implemented by errors carrying an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// Fatal reports whether err should never be retried: a client error
// (4xx) other than 429. Errors without a status code anywhere in
// their chain are retriable.
func Fatal(err error) bool {
	var sc statusCoder
	if !errors.As(err, &sc) {
		return false
	}
	code := sc.StatusCode()
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// Backoff returns the delay taken after failed attempt number attempt
// (counted from 1): base * 2^attempt, jittered to a uniformly random
// value in [0.5x, 1.5x) so concurrent callers do not retry in lockstep.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 1 {
		return 0
	}
	if attempt > 30 {
		attempt = 30 // keep the shift within int64 range
	}
	exp := base * time.Duration(int64(1)<<uint(attempt))
	return time.Duration(float64(exp) * (0.5 + rand.Float64()))
}

// Do runs op up to p.MaxAttempts times. A nil error stops immediately
// with the returned value. A fatal error stops immediately and is
// propagated as-is. Any other error is retried after a backoff delay;
// once attempts are exhausted the last error is propagated unchanged
// so callers can still inspect it with errors.Is and errors.As.
//
// The backoff wait honors ctx: cancellation during the wait aborts
// with ctx.Err() instead of running further attempts.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, ErrInvalidAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if Fatal(err) || attempt == p.MaxAttempts {
			break
		}
		if err := wait(ctx, Backoff(p.BaseDelay, attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
