// Package future provides a deferred result handle for calls that run in
// the background.
package future

import (
	"context"
	"fmt"
	"sync"
)

// State is the lifecycle of a Future. Resolved and Rejected are terminal.
type State int

const (
	Idle State = iota
	Pending
	Resolved
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Future holds the eventual result of fn. The zero value is not usable;
// create one with New or Go.
type Future[T any] struct {
	fn   func(context.Context) (T, error)
	once sync.Once
	done chan struct{}

	mu    sync.Mutex
	state State
	value T
	err   error
}

// New returns an idle Future that runs fn when Start is called.
func New[T any](fn func(context.Context) (T, error)) *Future[T] {
	return &Future[T]{fn: fn, done: make(chan struct{})}
}

// Go starts fn in a new goroutine and returns its pending Future.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := New(fn)
	f.Start(ctx)
	return f
}

// Start moves the Future to Pending and runs fn in a new goroutine. Calls
// after the first have no effect. If fn panics the Future is rejected.
func (f *Future[T]) Start(ctx context.Context) {
	f.once.Do(func() {
		f.mu.Lock()
		f.state = Pending
		f.mu.Unlock()

		go f.run(ctx)
	})
}

// run calls fn and settles the Future. A panic in fn rejects it.
func (f *Future[T]) run(ctx context.Context) {
	var value T
	var err error
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("future: panic: %v", r)
		}
		f.settle(value, err)
	}()
	value, err = f.fn(ctx)
}

func (f *Future[T]) settle(value T, err error) {
	f.mu.Lock()
	f.value, f.err = value, err
	if err != nil {
		f.state = Rejected
	} else {
		f.state = Resolved
	}
	f.mu.Unlock()
	close(f.done)
}

func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done is closed once the Future is resolved or rejected.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future settles or ctx is done. Giving up on ctx
// does not stop the underlying call.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then returns a Future that resolves with next applied to f's value, or
// rejects with f's error. An idle f is started with a background context.
func Then[T, U any](f *Future[T], next func(T) (U, error)) *Future[U] {
	f.Start(context.Background())
	return Go(context.Background(), func(ctx context.Context) (U, error) {
		value, err := f.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return next(value)
	})
}
