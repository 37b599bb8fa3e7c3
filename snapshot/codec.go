// Package snapshot serializes values of closed variant types for dev tools.
//
// A Codec maps a discriminant string to the decoder of each known variant.
// Encoded values are envelopes of the form {"type": tag, "value": tree},
// where tree is the plain JSON value tree of the variant.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/comalice/mvux/decode"
)

// ErrUnregisteredType is returned by Encode for a value whose variant was
// never registered.
var ErrUnregisteredType = errors.New("snapshot: unregistered type")

// UnregisteredError is the panic value of Decode for an unknown tag.
type UnregisteredError struct {
	Tag string
}

func (e *UnregisteredError) Error() string {
	return fmt.Sprintf("snapshot: no variant registered for tag %q", e.Tag)
}

// Envelope is the serialized form of one value.
type Envelope struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

type variant[T any] struct {
	tag    string
	match  func(T) (any, bool)
	decode func(any) (T, error)
}

// Codec serializes the variants of T. Variants are usually the concrete
// types behind an interface T.
type Codec[T any] struct {
	mu       sync.RWMutex
	variants []variant[T]
	byTag    map[string]int
}

// NewCodec returns a codec with no variants.
func NewCodec[T any]() *Codec[T] {
	return &Codec[T]{byTag: make(map[string]int)}
}

// Register adds the variant V under tag. d rebuilds a V from its value tree
// and wrap converts it back to T. Registering a tag twice replaces it.
func Register[T, V any](c *Codec[T], tag string, d decode.Decoder[V], wrap func(V) T) {
	v := variant[T]{
		tag: tag,
		match: func(t T) (any, bool) {
			val, ok := any(t).(V)
			return val, ok
		},
		decode: func(tree any) (T, error) {
			val, err := d.Decode(tree)
			if err != nil {
				var zero T
				return zero, err
			}
			return wrap(val), nil
		},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.byTag[tag]; ok {
		c.variants[i] = v
		return
	}
	c.byTag[tag] = len(c.variants)
	c.variants = append(c.variants, v)
}

// Tags lists registered tags in registration order.
func (c *Codec[T]) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.variants))
	for i, v := range c.variants {
		out[i] = v.tag
	}
	return out
}

// Encode wraps t in an envelope tagged with its variant.
func (c *Codec[T]) Encode(t T) (Envelope, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.variants {
		val, ok := v.match(t)
		if !ok {
			continue
		}
		tree, err := toTree(val)
		if err != nil {
			return Envelope{}, fmt.Errorf("snapshot: encode %q: %w", v.tag, err)
		}
		return Envelope{Type: v.tag, Value: tree}, nil
	}
	return Envelope{}, fmt.Errorf("%w: %T", ErrUnregisteredType, t)
}

// Decode rebuilds the value in env. A value that does not fit its variant's
// decoder is an error; a tag with no registered variant panics with
// *UnregisteredError.
func (c *Codec[T]) Decode(env Envelope) (T, error) {
	c.mu.RLock()
	i, ok := c.byTag[env.Type]
	var v variant[T]
	if ok {
		v = c.variants[i]
	}
	c.mu.RUnlock()
	if !ok {
		panic(&UnregisteredError{Tag: env.Type})
	}
	t, err := v.decode(env.Value)
	if err != nil {
		return t, fmt.Errorf("snapshot: decode %q: %w", env.Type, err)
	}
	return t, nil
}

// MarshalJSON encodes t as a JSON envelope.
func (c *Codec[T]) MarshalJSON(t T) ([]byte, error) {
	env, err := c.Encode(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes a JSON envelope.
func (c *Codec[T]) UnmarshalJSON(data []byte) (T, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("snapshot: parse envelope: %w", err)
	}
	return c.Decode(env)
}

// MarshalYAML encodes t as a YAML envelope.
func (c *Codec[T]) MarshalYAML(t T) ([]byte, error) {
	env, err := c.Encode(t)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(env)
}

// UnmarshalYAML decodes a YAML envelope.
func (c *Codec[T]) UnmarshalYAML(data []byte) (T, error) {
	var zero T
	tree, err := decode.ParseYAML(data)
	if err != nil {
		return zero, fmt.Errorf("snapshot: parse envelope: %w", err)
	}
	env, err := envelopeDecoder.Decode(tree)
	if err != nil {
		return zero, fmt.Errorf("snapshot: parse envelope: %w", err)
	}
	return c.Decode(env)
}

var envelopeDecoder = decode.Object(func(f *decode.Fields) Envelope {
	return Envelope{
		Type:  decode.Get(f, "type", decode.String()),
		Value: decode.GetOptional(f, "value", decode.Value()).OrElse(nil),
	}
})

// toTree converts v into the value tree encoding/json would decode from its
// JSON form.
func toTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
