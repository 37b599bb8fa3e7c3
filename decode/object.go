package decode

import (
	"github.com/comalice/mvux/result"
)

// Fields collects per-field results while an Object decoder assembles a
// record. After the first failure every later Get is skipped and returns the
// zero value.
type Fields struct {
	root   any
	failed bool
	err    string
}

// Object builds a record from per-field decoders:
//
//	decode.Object(func(f *decode.Fields) point {
//		return point{X: decode.Get(f, "x", decode.Float()), Y: decode.Get(f, "y", decode.Float())}
//	})
//
// Fields are decoded in call order and the first failing field aborts the rest.
func Object[T any](build func(f *Fields) T) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		if _, isObject := v.(map[string]any); !isObject {
			return fail[T](notA("an object", v))
		}
		f := &Fields{root: v}
		out := build(f)
		if f.failed {
			return fail[T](f.err)
		}
		return ok(out)
	})
}

// Get decodes the value under key.
func Get[T any](f *Fields, key string, d Decoder[T]) T {
	return GetAt(f, []string{key}, d)
}

// GetAt decodes the value at a nested path.
func GetAt[T any](f *Fields, path []string, d Decoder[T]) T {
	return decodeField(f, At(path, d))
}

// GetOptional decodes an optional key, see OptionalField.
func GetOptional[T any](f *Fields, key string, d Decoder[T]) result.Option[T] {
	return decodeField(f, OptionalField(key, d))
}

func decodeField[T any](f *Fields, d Decoder[T]) T {
	var zero T
	if f.failed {
		return zero
	}
	r := d.DecodeValue(f.root)
	out, decoded := r.Value()
	if !decoded {
		f.err, _ = r.Error()
		f.failed = true
		return zero
	}
	return out
}
