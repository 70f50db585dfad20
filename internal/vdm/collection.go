package vdm

import (
	"fmt"
	"reflect"

	"github.com/zmcp/odata-vdm/internal/wire"
)

// DecodeCollection decodes a bare array or a {"results": [...]} envelope into
// entities of type elem, resolving subtypes per item. Any other raw value
// yields nil. Items that cannot be instantiated are logged and skipped.
func (c *Codec) DecodeCollection(raw any, elem reflect.Type) ([]Object, error) {
	items, ok := wire.Results(raw)
	if !ok {
		return nil, nil
	}
	t := structType(elem)
	out := make([]Object, 0, len(items))
	for i, item := range items {
		obj, err := c.decodeEntity(item, t, true)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if obj == nil {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// DecodeCollectionAs is DecodeCollection for a known entity pointer type T.
// It fails when an item resolves to a subtype that is not a T.
func DecodeCollectionAs[T Object](c *Codec, raw any) ([]T, error) {
	objs, err := c.DecodeCollection(raw, reflect.TypeFor[T]())
	if err != nil || objs == nil {
		return nil, err
	}
	out := make([]T, 0, len(objs))
	for i, obj := range objs {
		typed, ok := obj.(T)
		if !ok {
			return nil, fmt.Errorf("item %d: decoded %s is not a %s", i, obj.ODataType(), reflect.TypeFor[T]())
		}
		out = append(out, typed)
	}
	return out, nil
}

// EncodeCollection renders items as a bare array.
func (c *Codec) EncodeCollection(items []Object) (wire.Array, error) {
	out := make(wire.Array, 0, len(items))
	for i, item := range items {
		if isNilObject(item) {
			out = append(out, nil)
			continue
		}
		obj, err := c.Encode(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// EncodeCollectionOf is EncodeCollection for a typed slice.
func EncodeCollectionOf[T Object](c *Codec, items []T) (wire.Array, error) {
	objs := make([]Object, len(items))
	for i, item := range items {
		objs[i] = item
	}
	return c.EncodeCollection(objs)
}
