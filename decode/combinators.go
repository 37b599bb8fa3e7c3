package decode

import (
	"github.com/comalice/mvux/result"
)

// Map transforms the decoded value.
func Map[A, B any](d Decoder[A], f func(A) B) Decoder[B] {
	return New(func(v any) result.Result[string, B] {
		return result.Map(d.DecodeValue(v), f)
	})
}

// Map2 decodes the same value with two decoders, in order, and combines the
// results. The first failure wins.
func Map2[A, B, T any](da Decoder[A], db Decoder[B], f func(A, B) T) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		return result.AndThen(da.DecodeValue(v), func(a A) result.Result[string, T] {
			return result.Map(db.DecodeValue(v), func(b B) T { return f(a, b) })
		})
	})
}

// Map3 is Map2 for three decoders.
func Map3[A, B, C, T any](da Decoder[A], db Decoder[B], dc Decoder[C], f func(A, B, C) T) Decoder[T] {
	ab := Map2(da, db, func(a A, b B) func(C) T {
		return func(c C) T { return f(a, b, c) }
	})
	return Map2(ab, dc, func(g func(C) T, c C) T { return g(c) })
}

// Map4 is Map2 for four decoders.
func Map4[A, B, C, D, T any](da Decoder[A], db Decoder[B], dc Decoder[C], dd Decoder[D], f func(A, B, C, D) T) Decoder[T] {
	abc := Map3(da, db, dc, func(a A, b B, c C) func(D) T {
		return func(d D) T { return f(a, b, c, d) }
	})
	return Map2(abc, dd, func(g func(D) T, d D) T { return g(d) })
}

// AndThen picks the next decoder based on an already decoded value, e.g. a
// "type" discriminant.
func AndThen[A, B any](d Decoder[A], f func(A) Decoder[B]) Decoder[B] {
	return New(func(v any) result.Result[string, B] {
		return result.AndThen(d.DecodeValue(v), func(a A) result.Result[string, B] {
			return f(a).DecodeValue(v)
		})
	})
}

// OneOf tries each decoder in order and returns the first success.
func OneOf[T any](ds ...Decoder[T]) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		for _, d := range ds {
			if r := d.DecodeValue(v); r.IsOk() {
				return r
			}
		}
		return fail[T]("ran out of decoders for " + render(v))
	})
}

// Lazy defers building a decoder until decode time, which allows recursive
// decoders.
func Lazy[T any](f func() Decoder[T]) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		return f().DecodeValue(v)
	})
}
