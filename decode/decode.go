// Package decode validates untrusted external data and turns it into typed
// values.
//
// A Decoder is a pure function from an untyped value tree to a Result. The
// value tree is what encoding/json produces when unmarshalling into any:
// nil, bool, numbers, string, []any and map[string]any. Any Go numeric kind
// and json.Number are accepted wherever a number is expected.
//
// Decoders compose. Failures are returned, never thrown, and carry the
// structural path at which they happened:
//
//	type user struct {
//		Name string
//		Age  int
//	}
//
//	userDecoder := decode.Object(func(f *decode.Fields) user {
//		return user{
//			Name: decode.Get(f, "name", decode.String()),
//			Age:  decode.Get(f, "age", decode.Int()),
//		}
//	})
//	r := userDecoder.DecodeString(`{"name":"ada","age":36}`)
package decode

import (
	"encoding/json"

	"github.com/comalice/mvux/result"
)

// Decoder turns an untyped value into a T, or a path-qualified error message.
type Decoder[T any] struct {
	run func(v any) result.Result[string, T]
}

// New wraps a raw decoding function.
func New[T any](run func(v any) result.Result[string, T]) Decoder[T] {
	return Decoder[T]{run: run}
}

// DecodeValue decodes an already-parsed value tree.
func (d Decoder[T]) DecodeValue(v any) result.Result[string, T] {
	if d.run == nil {
		return result.Err[string, T]("decoder is not initialized")
	}
	return d.run(v)
}

// DecodeString parses s as JSON and decodes the resulting value. A syntax
// error is reported with the parser's own message.
func (d Decoder[T]) DecodeString(s string) result.Result[string, T] {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return result.Err[string, T](err.Error())
	}
	return d.DecodeValue(v)
}

// Decode is DecodeValue in (value, error) form.
func (d Decoder[T]) Decode(v any) (T, error) {
	r := d.DecodeValue(v)
	if msg, failed := r.Error(); failed {
		var zero T
		return zero, &Error{Message: msg}
	}
	out, _ := r.Value()
	return out, nil
}

// Error is the error returned by Decoder.Decode.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func ok[T any](v T) result.Result[string, T] {
	return result.Ok[string](v)
}

func fail[T any](msg string) result.Result[string, T] {
	return result.Err[string, T](msg)
}

// String decodes a JSON string.
func String() Decoder[string] {
	return New(func(v any) result.Result[string, string] {
		s, isString := v.(string)
		if !isString {
			return fail[string](notA("a string", v))
		}
		return ok(s)
	})
}

// Float decodes any JSON number.
func Float() Decoder[float64] {
	return New(func(v any) result.Result[string, float64] {
		f, isNumber := toFloat(v)
		if !isNumber {
			return fail[float64](notA("a number", v))
		}
		return ok(f)
	})
}

// Int decodes a JSON number with no fractional part.
func Int() Decoder[int] {
	return New(func(v any) result.Result[string, int] {
		n, isInt := toInt(v)
		if !isInt {
			return fail[int](notA("an integer", v))
		}
		return ok(n)
	})
}

// Bool decodes a JSON boolean.
func Bool() Decoder[bool] {
	return New(func(v any) result.Result[string, bool] {
		b, isBool := v.(bool)
		if !isBool {
			return fail[bool](notA("a boolean", v))
		}
		return ok(b)
	})
}

// Null succeeds with def when the value is null.
func Null[T any](def T) Decoder[T] {
	return New(func(v any) result.Result[string, T] {
		if v != nil {
			return fail[T](notA("null", v))
		}
		return ok(def)
	})
}

// Value accepts anything and returns it unchanged.
func Value() Decoder[any] {
	return New(func(v any) result.Result[string, any] {
		return ok(v)
	})
}

// Succeed ignores its input and always yields v.
func Succeed[T any](v T) Decoder[T] {
	return New(func(any) result.Result[string, T] {
		return ok(v)
	})
}

// Fail ignores its input and always fails with msg.
func Fail[T any](msg string) Decoder[T] {
	return New(func(any) result.Result[string, T] {
		return fail[T](msg)
	})
}
