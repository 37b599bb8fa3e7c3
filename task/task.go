// Package task describes asynchronous computations that may fail.
//
// A Task is a description, not a running computation. Nothing happens until
// Execute is called, and every call to Execute runs the underlying effect
// again from scratch (a new timer, a new request, a new random draw).
// Completion is reported once through a callback as a result.Result.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/comalice/mvux/result"
)

// ErrPanic wraps a panic recovered inside FromFunc or FromFuture.
var ErrPanic = errors.New("task panicked")

// Never is the error type of tasks that cannot fail.
type Never struct{}

type kind uint8

const (
	kindSucceed kind = iota
	kindFail
	kindAsync
)

// Task is a computation yielding Ok(R) or Err(E). The zero Task succeeds with
// the zero R.
type Task[E, R any] struct {
	kind  kind
	value R
	err   E
	run   func(ctx context.Context, done func(result.Result[E, R]))
}

// Execute runs the task and calls done with its outcome. Tasks built from
// Succeed and Fail complete before Execute returns; others may complete on
// another goroutine.
func (t Task[E, R]) Execute(ctx context.Context, done func(result.Result[E, R])) {
	switch t.kind {
	case kindSucceed:
		done(result.Ok[E](t.value))
	case kindFail:
		done(result.Err[E, R](t.err))
	case kindAsync:
		t.run(ctx, done)
	}
}

// Await runs the task and blocks until it completes or ctx ends. The error is
// ctx.Err() when ctx ended first.
func (t Task[E, R]) Await(ctx context.Context) (result.Result[E, R], error) {
	ch := make(chan result.Result[E, R], 1)
	t.Execute(ctx, func(r result.Result[E, R]) {
		select {
		case ch <- r:
		default:
		}
	})
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return result.Result[E, R]{}, ctx.Err()
	}
}

// Succeed returns a task that completes immediately with v.
func Succeed[E, R any](v R) Task[E, R] {
	return Task[E, R]{kind: kindSucceed, value: v}
}

// Fail returns a task that fails immediately with e.
func Fail[E, R any](e E) Task[E, R] {
	return Task[E, R]{kind: kindFail, err: e}
}

// New wraps a raw run function. run must call done exactly once.
func New[E, R any](run func(ctx context.Context, done func(result.Result[E, R]))) Task[E, R] {
	return Task[E, R]{kind: kindAsync, run: run}
}

// FromFunc wraps a synchronous function. A returned error or a panic becomes
// Err; it never reaches the caller of Execute.
func FromFunc[R any](f func() (R, error)) Task[error, R] {
	return New(func(_ context.Context, done func(result.Result[error, R])) {
		done(call(f))
	})
}

// FromFuture runs f on its own goroutine, like a promise: the value, the
// error and any panic are all captured into the result.
func FromFuture[R any](f func(ctx context.Context) (R, error)) Task[error, R] {
	return New(func(ctx context.Context, done func(result.Result[error, R])) {
		go func() {
			done(call(func() (R, error) { return f(ctx) }))
		}()
	})
}

func call[R any](f func() (R, error)) (r result.Result[error, R]) {
	defer func() {
		if p := recover(); p != nil {
			r = result.Err[error, R](fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()
	return result.FromPair(f())
}
