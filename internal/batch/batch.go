// Package batch fans out independent work units under a concurrency
// bound and collects one outcome per unit, in input order.
package batch

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidConcurrency is returned when the bound is below one.
var ErrInvalidConcurrency = errors.New("batch: concurrency must be at least 1")

// Result holds the outcome for the input at Index. Exactly one of
// Value and Err is meaningful.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Run applies fn to every input with at most concurrency invocations
// in flight. The returned slice has the same length and order as
// inputs regardless of completion order. A failing unit is recorded in
// its slot and never cancels, delays, or fails the rest of the batch;
// the only error Run itself returns is an invalid concurrency bound,
// raised before any work starts.
func Run[U, T any](ctx context.Context, inputs []U, concurrency int, fn func(context.Context, U) (T, error)) ([]Result[T], error) {
	if concurrency < 1 {
		return nil, ErrInvalidConcurrency
	}

	results := make([]Result[T], len(inputs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, input := range inputs {
		g.Go(func() error {
			value, err := fn(ctx, input)
			// Each goroutine writes only its own slot.
			results[i] = Result[T]{Index: i, Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
