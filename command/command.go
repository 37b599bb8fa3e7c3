// Package command describes one-shot effects that report back with at most
// one message.
package command

import (
	"context"
	"fmt"

	"github.com/comalice/mvux/result"
	"github.com/comalice/mvux/task"
)

// Kind tags the variant of a Cmd.
type Kind uint8

const (
	KindNone Kind = iota
	KindBatch
	KindMapped
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBatch:
		return "batch"
	case KindMapped:
		return "mapped"
	case KindTask:
		return "task"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Cmd is an effect description. The zero Cmd does nothing.
type Cmd[Msg any] struct {
	kind  Kind
	batch []Cmd[Msg]
	run   func(ctx context.Context, dispatch func(Msg))
}

// Kind reports the variant of c.
func (c Cmd[Msg]) Kind() Kind { return c.kind }

// Len reports the number of children of a batch, and 0 otherwise.
func (c Cmd[Msg]) Len() int { return len(c.batch) }

// Execute starts the effect and returns without waiting for it. Results are
// delivered later through dispatch, always from another goroutine.
func (c Cmd[Msg]) Execute(ctx context.Context, dispatch func(Msg)) {
	switch c.kind {
	case KindNone:
	case KindBatch:
		for _, child := range c.batch {
			child.Execute(ctx, dispatch)
		}
	case KindMapped:
		c.run(ctx, dispatch)
	case KindTask:
		go c.run(ctx, dispatch)
	}
}

// None returns the command that never dispatches.
func None[Msg any]() Cmd[Msg] { return Cmd[Msg]{} }

// Batch combines commands. Nested batches are flattened and None children are
// dropped; a batch with nothing left is None.
func Batch[Msg any](cmds ...Cmd[Msg]) Cmd[Msg] {
	var flat []Cmd[Msg]
	for _, c := range cmds {
		switch c.kind {
		case KindNone:
		case KindBatch:
			flat = append(flat, c.batch...)
		default:
			flat = append(flat, c)
		}
	}
	switch len(flat) {
	case 0:
		return None[Msg]()
	case 1:
		return flat[0]
	}
	return Cmd[Msg]{kind: KindBatch, batch: flat}
}

// Map transforms every message c produces with f.
func Map[A, B any](c Cmd[A], f func(A) B) Cmd[B] {
	if c.kind == KindNone {
		return None[B]()
	}
	return Cmd[B]{kind: KindMapped, run: func(ctx context.Context, dispatch func(B)) {
		c.Execute(ctx, func(a A) { dispatch(f(a)) })
	}}
}

// Attempt runs t and turns its outcome, success or failure, into a message.
func Attempt[Msg, E, R any](t task.Task[E, R], f func(result.Result[E, R]) Msg) Cmd[Msg] {
	return Cmd[Msg]{kind: KindTask, run: func(ctx context.Context, dispatch func(Msg)) {
		t.Execute(ctx, func(r result.Result[E, R]) { dispatch(f(r)) })
	}}
}

// Perform runs a task that cannot fail. Receiving an Err anyway means the task
// broke its contract, and Perform panics.
func Perform[Msg, R any](t task.Task[task.Never, R], f func(R) Msg) Cmd[Msg] {
	return Cmd[Msg]{kind: KindTask, run: func(ctx context.Context, dispatch func(Msg)) {
		t.Execute(ctx, func(r result.Result[task.Never, R]) { dispatch(f(mustSucceed(r))) })
	}}
}

// Message dispatches msg on its own.
func Message[Msg any](msg Msg) Cmd[Msg] {
	return Cmd[Msg]{kind: KindTask, run: func(_ context.Context, dispatch func(Msg)) {
		dispatch(msg)
	}}
}

func mustSucceed[R any](r result.Result[task.Never, R]) R {
	v, ok := r.Value()
	if !ok {
		panic("command: Perform received an Err from a task that cannot fail")
	}
	return v
}
