// Package codec converts between Go field values and OData JSON wire values.
//
// A Registry is built once per protocol version with a Builder and is
// immutable afterwards, so it can be shared by any number of goroutines.
package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

// Codec converts one Go type to and from its wire representation.
//
// Decode returns (nil, nil) for a null raw value. Malformed input yields a
// *ValueFormatError.
type Codec interface {
	Encode(value any) (any, error)
	Decode(raw any) (any, error)
}

// Funcs adapts a pair of plain functions to the Codec interface.
type Funcs struct {
	EncodeFunc func(value any) (any, error)
	DecodeFunc func(raw any) (any, error)
}

func (f Funcs) Encode(value any) (any, error) { return f.EncodeFunc(value) }
func (f Funcs) Decode(raw any) (any, error)   { return f.DecodeFunc(raw) }

// ValueFormatError reports a wire value that could not be decoded into the
// declared Go type, or a Go value the wire format cannot express.
type ValueFormatError struct {
	Raw    any
	Target string
	Err    error
}

func (e *ValueFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s %v to %s: %v", wire.KindOf(e.Raw), e.Raw, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %s %v to %s", wire.KindOf(e.Raw), e.Raw, e.Target)
}

func (e *ValueFormatError) Unwrap() error {
	return e.Err
}

func formatErr(raw any, target string, err error) error {
	return &ValueFormatError{Raw: raw, Target: target, Err: err}
}

type lookupMode int

const (
	modeExact lookupMode = iota
	modeDeref
	modeKind
)

// Registry maps Go types and names to codecs for one protocol version.
type Registry struct {
	protocol constants.Protocol
	byType   map[reflect.Type]Codec
	named    map[string]Codec
}

// Protocol returns the protocol version the registry encodes for.
func (r *Registry) Protocol() constants.Protocol {
	return r.protocol
}

// Named returns the codec registered under name.
func (r *Registry) Named(name string) (Codec, bool) {
	c, ok := r.named[name]
	return c, ok
}

// CodecFor returns the codec for t. Pointer types resolve to the codec of
// their element type when no codec is registered for the pointer itself.
// Named types over a basic kind (string, bool, ints, floats) fall back to the
// codec of that kind.
func (r *Registry) CodecFor(t reflect.Type) (Codec, bool) {
	c, _, _, ok := r.lookup(t)
	return c, ok
}

func (r *Registry) lookup(t reflect.Type) (Codec, lookupMode, reflect.Type, bool) {
	if c, ok := r.byType[t]; ok {
		return c, modeExact, t, true
	}
	base := t
	if t.Kind() == reflect.Pointer {
		base = t.Elem()
		if c, ok := r.byType[base]; ok {
			return c, modeDeref, base, true
		}
	}
	if canonical, ok := kindTypes[base.Kind()]; ok {
		if c, ok := r.byType[canonical]; ok {
			return c, modeKind, canonical, true
		}
	}
	return nil, modeExact, nil, false
}

// DecodeValue decodes raw into a value of type t using the registered codec.
// Slices whose element type has a codec are decoded element by element from a
// bare array or a "results" envelope. handled is false when no codec applies.
func (r *Registry) DecodeValue(raw any, t reflect.Type) (value reflect.Value, handled bool, err error) {
	c, _, _, ok := r.lookup(t)
	if !ok {
		if t.Kind() == reflect.Slice {
			if _, _, _, elemOK := r.lookup(t.Elem()); elemOK {
				v, err := r.decodeSlice(raw, t)
				return v, true, err
			}
		}
		return reflect.Value{}, false, nil
	}
	v, err := r.DecodeWith(c, raw, t)
	return v, true, err
}

// DecodeWith decodes raw with c and converts the result to t.
func (r *Registry) DecodeWith(c Codec, raw any, t reflect.Type) (reflect.Value, error) {
	decoded, err := c.Decode(raw)
	if err != nil {
		var vfe *ValueFormatError
		if errors.As(err, &vfe) {
			return reflect.Value{}, err
		}
		return reflect.Value{}, formatErr(raw, t.String(), err)
	}
	v, err := Assign(t, decoded)
	if err != nil {
		return reflect.Value{}, formatErr(raw, t.String(), err)
	}
	return v, nil
}

func (r *Registry) decodeSlice(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}
	items, ok := wire.Results(raw)
	if !ok {
		return reflect.Value{}, formatErr(raw, t.String(), errors.New(constants.ErrNotAnArray))
	}
	out := reflect.MakeSlice(t, 0, len(items))
	for i, item := range items {
		v, _, err := r.DecodeValue(item, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}

// EncodeValue encodes v with the codec registered for its type. Nil pointers
// and nil slices encode to null. handled is false when no codec applies.
func (r *Registry) EncodeValue(v reflect.Value) (out any, handled bool, err error) {
	t := v.Type()
	c, mode, canonical, ok := r.lookup(t)
	if !ok {
		if t.Kind() == reflect.Slice {
			if _, _, _, elemOK := r.lookup(t.Elem()); elemOK {
				out, err := r.encodeSlice(v)
				return out, true, err
			}
		}
		return nil, false, nil
	}
	if isNil(v) {
		return nil, true, nil
	}
	switch mode {
	case modeDeref:
		v = v.Elem()
	case modeKind:
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		v = v.Convert(canonical)
	}
	out, err = c.Encode(v.Interface())
	return out, true, err
}

// EncodeWith encodes v with c, dereferencing pointers first.
func (r *Registry) EncodeWith(c Codec, v reflect.Value) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return c.Encode(v.Interface())
}

func (r *Registry) encodeSlice(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	out := make(wire.Array, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item, _, err := r.EncodeValue(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Assign converts a decoded value to t. Values of the element type are
// wrapped in a new pointer when t is a pointer, and values of a named type
// convert to other named types over the same kind.
func Assign(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, err := Assign(t.Elem(), v)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", rv.Type(), t)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeFor[string](),
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}
