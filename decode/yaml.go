package decode

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/mvux/result"
)

// DecodeYAML parses s as a YAML document and decodes the resulting value.
// Mappings become map[string]any so every decoder behaves as it does on JSON
// input.
func (d Decoder[T]) DecodeYAML(s string) result.Result[string, T] {
	v, err := ParseYAML([]byte(s))
	if err != nil {
		return result.Err[string, T](err.Error())
	}
	return d.DecodeValue(v)
}

// ParseYAML parses a YAML document into the same value tree encoding/json
// produces for the equivalent JSON.
func ParseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalizeYAML(v), nil
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	}
	return v
}
