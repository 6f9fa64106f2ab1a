package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Future holds the eventual result of a task submitted to a Pool.
// A future completes exactly once, either with a value or with an error.
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves the future. It must be called exactly once.
func (f *Future[T]) complete(result T, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future completes and returns its outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.result, f.err
}

// Wait blocks until the future completes or ctx is cancelled. On
// cancellation the task keeps running; only the wait is abandoned.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved returns a future that is already completed with the given
// outcome. Useful for operations that short-circuit without touching
// the pool.
func Resolved[T any](result T, err error) *Future[T] {
	f := newFuture[T]()
	f.complete(result, err)

	return f
}

// Go submits fn to the pool and returns a future for its result.
//
// A panic inside fn is recovered and surfaces as the future's error
// instead of crashing the process. If the task cannot be enqueued the
// submission error is returned and no future is created.
func Go[T any](ctx context.Context, p *Pool, fn func() (T, error)) (*Future[T], error) {
	f := newFuture[T]()

	err := p.Submit(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.complete(zero, fmt.Errorf("dispatch: task panicked: %v\n%s", r, debug.Stack()))
			}
		}()

		f.complete(fn())
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}
