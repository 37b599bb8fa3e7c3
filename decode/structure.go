package decode

import (
	"strconv"

	"github.com/comalice/mvux/result"
)

// Field decodes the value under key with d.
func Field[T any](key string, d Decoder[T]) Decoder[T] {
	return At([]string{key}, d)
}

// At walks the nested object keys in path and decodes the value found there
// with d. A missing key and a null value are both treated as absent, at every
// step, and reported with the full path.
func At[T any](path []string, d Decoder[T]) Decoder[T] {
	return New(func(root any) result.Result[string, T] {
		cur, found := walk(root, path)
		if !found {
			return fail[T](notFound(path, root))
		}
		if len(path) == 0 {
			return d.DecodeValue(cur)
		}
		return wrap(path, d.DecodeValue(cur))
	})
}

// Index decodes the i-th element of an array with d.
func Index[T any](i int, d Decoder[T]) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		path := []string{strconv.Itoa(i)}
		arr, isArray := v.([]any)
		if !isArray || i < 0 || i >= len(arr) {
			return fail[T](notFound(path, v))
		}
		return wrap(path, d.DecodeValue(arr[i]))
	})
}

// OptionalField distinguishes three outcomes: the key holds a valid value
// (Some), the key is absent or null (None), or the key holds a value d
// rejects (an error).
func OptionalField[T any](key string, d Decoder[T]) Decoder[result.Option[T]] {
	return New(func(v any) result.Result[string, result.Option[T]] {
		obj, isObject := v.(map[string]any)
		if !isObject {
			return fail[result.Option[T]](notA("an object", v))
		}
		raw, present := obj[key]
		if !present || raw == nil {
			return ok(result.None[T]())
		}
		r := wrap([]string{key}, d.DecodeValue(raw))
		return result.Map(r, result.Some[T])
	})
}

// Nullable decodes null as None and anything else with d.
func Nullable[T any](d Decoder[T]) Decoder[result.Option[T]] {
	return New(func(v any) result.Result[string, result.Option[T]] {
		if v == nil {
			return ok(result.None[T]())
		}
		return result.Map(d.DecodeValue(v), result.Some[T])
	})
}

// Maybe turns any failure of d into None.
func Maybe[T any](d Decoder[T]) Decoder[result.Option[T]] {
	return New(func(v any) result.Result[string, result.Option[T]] {
		out, decoded := d.DecodeValue(v).Value()
		if !decoded {
			return ok(result.None[T]())
		}
		return ok(result.Some(out))
	})
}

func walk(root any, path []string) (any, bool) {
	cur := root
	for _, key := range path {
		obj, isObject := cur.(map[string]any)
		if !isObject {
			return nil, false
		}
		next, present := obj[key]
		if !present || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func wrap[T any](path []string, r result.Result[string, T]) result.Result[string, T] {
	if msg, failed := r.Error(); failed {
		return fail[T](nested(path, msg))
	}
	return r
}
