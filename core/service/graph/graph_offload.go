package graph

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type offloadResult[T any] struct {
	value T
	err   error
}

// offload runs a blocking driver call on its own goroutine and waits for it
// or for ctx, whichever finishes first. sem bounds the number of blocking
// calls in flight; nil means unbounded.
//
// When ctx ends first the caller gets ctx.Err() straight away. The goroutine
// keeps running, releases whatever it holds, and its result is passed to
// discard (if set) so resources such as a freshly opened driver are not
// leaked.
func offload[T any](ctx context.Context, sem *semaphore.Weighted, fn func(context.Context) (T, error), discard func(T)) (T, error) {
	var zero T
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
	}

	done := make(chan offloadResult[T], 1)
	go func() {
		if sem != nil {
			defer sem.Release(1)
		}
		v, err := fn(ctx)
		done <- offloadResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		go func() {
			r := <-done
			if r.err == nil && discard != nil {
				discard(r.value)
			}
		}()
		return zero, ctx.Err()
	}
}
