package task

import (
	"context"
	"sync"

	"github.com/comalice/mvux/result"
)

// Map transforms the success value.
func Map[E, A, B any](t Task[E, A], f func(A) B) Task[E, B] {
	if t.kind == kindFail {
		return Fail[E, B](t.err)
	}
	return New(func(ctx context.Context, done func(result.Result[E, B])) {
		t.Execute(ctx, func(r result.Result[E, A]) {
			done(result.Map(r, f))
		})
	})
}

// MapError transforms the failure value.
func MapError[E, F, R any](t Task[E, R], f func(E) F) Task[F, R] {
	if t.kind == kindSucceed {
		return Succeed[F](t.value)
	}
	return New(func(ctx context.Context, done func(result.Result[F, R])) {
		t.Execute(ctx, func(r result.Result[E, R]) {
			done(result.MapError(r, f))
		})
	})
}

// AndThen runs t and then the task f builds from its value. If t fails, f is
// never called and the chain fails with t's error.
func AndThen[E, A, B any](t Task[E, A], f func(A) Task[E, B]) Task[E, B] {
	if t.kind == kindFail {
		return Fail[E, B](t.err)
	}
	return New(func(ctx context.Context, done func(result.Result[E, B])) {
		t.Execute(ctx, func(r result.Result[E, A]) {
			a, succeeded := r.Value()
			if !succeeded {
				e, _ := r.Error()
				done(result.Err[E, B](e))
				return
			}
			f(a).Execute(ctx, done)
		})
	})
}

// OnError runs the task f builds from t's error. Successes pass through.
func OnError[E, F, R any](t Task[E, R], f func(E) Task[F, R]) Task[F, R] {
	if t.kind == kindSucceed {
		return Succeed[F](t.value)
	}
	return New(func(ctx context.Context, done func(result.Result[F, R])) {
		t.Execute(ctx, func(r result.Result[E, R]) {
			if v, succeeded := r.Value(); succeeded {
				done(result.Ok[F](v))
				return
			}
			e, _ := r.Error()
			f(e).Execute(ctx, done)
		})
	})
}

// Recover turns a failure into a success value, giving a task that cannot fail.
func Recover[E, R any](t Task[E, R], f func(E) R) Task[Never, R] {
	return OnError(t, func(e E) Task[Never, R] {
		return Succeed[Never](f(e))
	})
}

// Parallel starts both tasks at once, each on its own goroutine. combine is
// called exactly once, after both succeed. The first failure observed fails
// the joined task; the other branch's outcome is discarded whenever it
// arrives.
func Parallel[E, A, B, R any](ta Task[E, A], tb Task[E, B], combine func(A, B) R) Task[E, R] {
	return New(func(ctx context.Context, done func(result.Result[E, R])) {
		j := &join[E, A, B, R]{combine: combine, done: done}
		go ta.Execute(ctx, j.left)
		go tb.Execute(ctx, j.right)
	})
}

type join[E, A, B, R any] struct {
	mu       sync.Mutex
	a        A
	b        B
	haveA    bool
	haveB    bool
	finished bool
	combine  func(A, B) R
	done     func(result.Result[E, R])
}

func (j *join[E, A, B, R]) left(r result.Result[E, A]) {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	if e, failed := r.Error(); failed {
		j.finished = true
		j.mu.Unlock()
		j.done(result.Err[E, R](e))
		return
	}
	j.a, j.haveA = r.WithDefault(j.a), true
	j.complete()
}

func (j *join[E, A, B, R]) right(r result.Result[E, B]) {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	if e, failed := r.Error(); failed {
		j.finished = true
		j.mu.Unlock()
		j.done(result.Err[E, R](e))
		return
	}
	j.b, j.haveB = r.WithDefault(j.b), true
	j.complete()
}

// complete is called with j.mu held and releases it.
func (j *join[E, A, B, R]) complete() {
	if !j.haveA || !j.haveB {
		j.mu.Unlock()
		return
	}
	j.finished = true
	a, b := j.a, j.b
	j.mu.Unlock()
	j.done(result.Ok[E](j.combine(a, b)))
}

// Sequence runs the tasks one after another and collects their values. The
// first failure stops the sequence.
func Sequence[E, R any](ts []Task[E, R]) Task[E, []R] {
	acc := Succeed[E]([]R{})
	for _, t := range ts {
		acc = AndThen(acc, func(vs []R) Task[E, []R] {
			return Map(t, func(v R) []R {
				out := make([]R, len(vs), len(vs)+1)
				copy(out, vs)
				return append(out, v)
			})
		})
	}
	return acc
}
