package codec

import (
	"fmt"
	"reflect"
)

// enumCodec maps a string enumeration by exact member name. Unknown names
// decode to no value rather than failing the whole entity, and a value that
// is not a member (the zero value left behind in a slice) encodes as null.
type enumCodec[T ~string] struct {
	names map[string]T
}

func (c enumCodec[T]) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, formatErr(raw, reflect.TypeFor[T]().String(), nil)
	}
	v, ok := c.names[s]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (c enumCodec[T]) Encode(value any) (any, error) {
	v, ok := value.(T)
	if !ok {
		return nil, formatErr(value, reflect.TypeFor[T]().String(), fmt.Errorf("unexpected Go type %T", value))
	}
	if member, ok := c.names[string(v)]; !ok || member != v {
		return nil, nil
	}
	return string(v), nil
}
