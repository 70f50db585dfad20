// Package wire holds the generic JSON tree that OData payloads are decoded
// into and encoded from. Objects are map[string]any, arrays are []any, and
// numbers stay json.Number so that decimals keep every digit.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
)

// Object is a JSON object node.
type Object = map[string]any

// Array is a JSON array node.
type Array = []any

// Parse decodes a JSON document into a wire tree.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse JSON: trailing data after document")
	}
	return v, nil
}

// ParseLenient is Parse for hand-written input: comments and trailing commas
// are stripped before decoding.
func ParseLenient(data []byte) (any, error) {
	return Parse(jsonc.ToJSON(data))
}

// ParseObject parses data and requires the top-level node to be an object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", KindOf(v))
	}
	return obj, nil
}

// Marshal renders a wire tree. Object keys come out sorted.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal wire tree: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal wire tree: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Clone returns a deep copy of a wire tree.
func Clone(v any) any {
	switch n := v.(type) {
	case Object:
		out := make(Object, len(n))
		for k, child := range n {
			out[k] = Clone(child)
		}
		return out
	case Array:
		out := make(Array, len(n))
		for i, child := range n {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

// KindOf names the JSON kind of a wire node for error messages.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case Object:
		return "object"
	case Array:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint8:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
