// Package result provides the Result and Option containers used by every
// fallible or partial operation in the runtime.
//
// Results are plain values. A Result is either Ok, carrying a success value,
// or Err, carrying a failure value. Nothing in this package panics.
package result

import "fmt"

// Result is the outcome of a fallible operation: Ok(R) or Err(E).
type Result[E, R any] struct {
	ok    bool
	value R
	err   E
}

// Ok returns a successful Result.
func Ok[E, R any](v R) Result[E, R] {
	return Result[E, R]{ok: true, value: v}
}

// Err returns a failed Result.
func Err[E, R any](e E) Result[E, R] {
	return Result[E, R]{err: e}
}

// FromPair converts a Go (value, error) pair into a Result.
func FromPair[R any](v R, err error) Result[error, R] {
	if err != nil {
		return Err[error, R](err)
	}
	return Ok[error](v)
}

func (r Result[E, R]) IsOk() bool  { return r.ok }
func (r Result[E, R]) IsErr() bool { return !r.ok }

// Value returns the success value and whether the Result is Ok.
func (r Result[E, R]) Value() (R, bool) {
	return r.value, r.ok
}

// Error returns the failure value and whether the Result is Err.
func (r Result[E, R]) Error() (E, bool) {
	return r.err, !r.ok
}

// WithDefault returns the success value, or def if the Result is Err.
func (r Result[E, R]) WithDefault(def R) R {
	if r.ok {
		return r.value
	}
	return def
}

func (r Result[E, R]) String() string {
	if r.ok {
		return fmt.Sprintf("Ok(%v)", r.value)
	}
	return fmt.Sprintf("Err(%v)", r.err)
}

// Map transforms the success value of r.
func Map[E, A, B any](r Result[E, A], f func(A) B) Result[E, B] {
	if !r.ok {
		return Err[E, B](r.err)
	}
	return Ok[E](f(r.value))
}

// MapError transforms the failure value of r.
func MapError[E, F, R any](r Result[E, R], f func(E) F) Result[F, R] {
	if r.ok {
		return Ok[F](r.value)
	}
	return Err[F, R](f(r.err))
}

// AndThen chains a second fallible step. f is only called if r is Ok.
func AndThen[E, A, B any](r Result[E, A], f func(A) Result[E, B]) Result[E, B] {
	if !r.ok {
		return Err[E, B](r.err)
	}
	return f(r.value)
}
