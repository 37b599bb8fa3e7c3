package decode

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/comalice/mvux/result"
)

// Slice decodes a homogeneous array. The first element d rejects aborts the
// whole decode and is reported by index.
func Slice[T any](d Decoder[T]) Decoder[[]T] {
	return New(func(v any) result.Result[string, []T] {
		arr, isArray := v.([]any)
		if !isArray {
			return fail[[]T](notA("an array", v))
		}
		out := make([]T, 0, len(arr))
		for i, elem := range arr {
			r := d.DecodeValue(elem)
			item, decoded := r.Value()
			if !decoded {
				msg, _ := r.Error()
				return fail[[]T](nested([]string{strconv.Itoa(i)}, msg))
			}
			out = append(out, item)
		}
		return ok(out)
	})
}

// List is Slice.
func List[T any](d Decoder[T]) Decoder[[]T] {
	return Slice(d)
}

// Dict decodes an object whose values all decode with d. Keys are visited in
// sorted order so the reported failure is deterministic.
func Dict[T any](d Decoder[T]) Decoder[map[string]T] {
	return New(func(v any) result.Result[string, map[string]T] {
		pairs := KeyValuePairs(d).DecodeValue(v)
		return result.Map(pairs, func(ps []Pair[T]) map[string]T {
			out := make(map[string]T, len(ps))
			for _, p := range ps {
				out[p.Key] = p.Value
			}
			return out
		})
	})
}

// Pair is one decoded object entry.
type Pair[T any] struct {
	Key   string
	Value T
}

// KeyValuePairs decodes an object into entries sorted by key.
func KeyValuePairs[T any](d Decoder[T]) Decoder[[]Pair[T]] {
	return New(func(v any) result.Result[string, []Pair[T]] {
		obj, isObject := v.(map[string]any)
		if !isObject {
			return fail[[]Pair[T]](notA("an object", v))
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make([]Pair[T], 0, len(keys))
		for _, k := range keys {
			r := d.DecodeValue(obj[k])
			item, decoded := r.Value()
			if !decoded {
				msg, _ := r.Error()
				return fail[[]Pair[T]](nested([]string{k}, msg))
			}
			out = append(out, Pair[T]{Key: k, Value: item})
		}
		return ok(out)
	})
}

// Tuple2 decodes a two-element array positionally.
func Tuple2[A, B, T any](da Decoder[A], db Decoder[B], f func(A, B) T) Decoder[T] {
	return fixedLength(2, Map2(Index(0, da), Index(1, db), f))
}

// Tuple3 decodes a three-element array positionally.
func Tuple3[A, B, C, T any](da Decoder[A], db Decoder[B], dc Decoder[C], f func(A, B, C) T) Decoder[T] {
	return fixedLength(3, Map3(Index(0, da), Index(1, db), Index(2, dc), f))
}

func fixedLength[T any](n int, d Decoder[T]) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		arr, isArray := v.([]any)
		if !isArray || len(arr) != n {
			return fail[T](notA(fmt.Sprintf("an array of length %d", n), v))
		}
		return d.DecodeValue(v)
	})
}
