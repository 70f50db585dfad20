package vdm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"

	"github.com/zmcp/odata-vdm/internal/codec"
	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

// Codec decodes wire objects into entities and encodes entities back. It
// holds no per-call state and can be shared between goroutines; the entities
// it produces cannot.
type Codec struct {
	registry *codec.Registry
	subtypes *SubtypeResolver
	logger   *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSubtypes enables polymorphic decoding for the base types registered in
// resolver.
func WithSubtypes(resolver *SubtypeResolver) Option {
	return func(c *Codec) {
		c.subtypes = resolver
	}
}

// NewCodec returns a codec using the value codecs of registry.
func NewCodec(registry *codec.Registry, opts ...Option) *Codec {
	c := &Codec{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Protocol returns the protocol version of the underlying registry.
func (c *Codec) Protocol() constants.Protocol {
	return c.registry.Protocol()
}

// Decode builds an entity of type target (a struct type or pointer to one)
// from a wire object.
//
// A null value or a v2 deferred navigation stub yields (nil, nil). When
// target has registered subtypes, the type discriminator picks the concrete
// type. A value that cannot be converted to its field type aborts the decode
// with a *codec.ValueFormatError. An entity that cannot be instantiated is
// logged and yields (nil, nil) so that one bad item does not void a whole
// collection.
func (c *Codec) Decode(raw any, target reflect.Type) (Object, error) {
	return c.decodeEntity(raw, structType(target), true)
}

// DecodeAs is Decode for a known entity pointer type T.
func DecodeAs[T Object](c *Codec, raw any) (T, error) {
	var zero T
	obj, err := c.Decode(raw, reflect.TypeFor[T]())
	if err != nil || obj == nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("decoded %s is not a %s", obj.ODataType(), reflect.TypeFor[T]())
	}
	return typed, nil
}

func (c *Codec) decodeEntity(raw any, t reflect.Type, polymorphic bool) (Object, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(wire.Object)
	if !ok {
		return nil, &codec.ValueFormatError{Raw: raw, Target: t.String(), Err: errors.New(constants.ErrNotAnObject)}
	}
	if _, deferred := obj[constants.V2Deferred]; deferred {
		return nil, nil
	}

	cat, err := CatalogOf(t)
	if err != nil {
		return nil, err
	}
	var wireType string
	if c.subtypes != nil && c.subtypes.HasSubtypes(cat.Type()) {
		if disc, ok := discriminator(obj); ok {
			resolved, err := c.subtypes.Resolve(disc, cat.Type())
			switch {
			case polymorphic:
				if err != nil {
					return nil, err
				}
				cat = resolved
			case err == nil && resolved != cat:
				// a navigation field cannot hold the subtype; its own
				// fields land in the extension store and the name is kept
				wireType = resolved.ODataType()
			}
		}
	}

	entity, err := instantiate(cat)
	if err != nil {
		c.logger.Error("failed to instantiate entity", "type", cat.ODataType(), "error", err)
		return nil, nil
	}

	root := reflect.ValueOf(entity).Elem()
	base := entity.vdmBase()
	base.wireType = wireType
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		value := obj[key]
		switch {
		case constants.IsTypeAnnotation(key):
			continue
		case constants.IsEtagAnnotation(key):
			setVersion(base, value)
			continue
		case key == constants.V2Metadata:
			if meta, ok := value.(wire.Object); ok {
				setVersion(base, meta[constants.V2MetadataEtag])
			}
			continue
		}

		f, declared := cat.Resolve(key)
		if !declared {
			base.putCustomField(key, value)
			continue
		}
		v, err := c.decodeField(f, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cat.ODataType(), key, err)
		}
		f.Accessor.Set(root, v)
	}

	base.ResetChangedFields()
	c.logger.Debug("decoded entity", "type", cat.ODataType(), "fields", len(obj))
	return entity, nil
}

func (c *Codec) decodeField(f FieldDescriptor, raw any) (reflect.Value, error) {
	if f.CodecName != "" {
		vc, ok := c.registry.Named(f.CodecName)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown codec %q", f.CodecName)
		}
		return c.registry.DecodeWith(vc, raw, f.Type)
	}

	switch f.Kind {
	case KindEntity:
		child, err := c.decodeEntity(raw, f.target, false)
		if err != nil || child == nil {
			return reflect.Zero(f.Type), err
		}
		return reflect.ValueOf(child), nil
	case KindEntityCollection:
		return c.decodeEntitySlice(raw, f.Type)
	}

	if v, handled, err := c.registry.DecodeValue(raw, f.Type); handled {
		return v, err
	}

	// No codec: the wire value is kept as is when the field can hold it
	v, err := codec.Assign(f.Type, raw)
	if err != nil {
		return reflect.Value{}, &codec.ValueFormatError{Raw: raw, Target: f.Type.String(), Err: err}
	}
	return v, nil
}

func (c *Codec) decodeEntitySlice(raw any, sliceType reflect.Type) (reflect.Value, error) {
	items, ok := wire.Results(raw)
	if !ok {
		return reflect.Zero(sliceType), nil
	}
	elem := sliceType.Elem().Elem()
	out := reflect.MakeSlice(sliceType, 0, len(items))
	for i, item := range items {
		child, err := c.decodeEntity(item, elem, false)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
		}
		if child == nil {
			continue
		}
		out = reflect.Append(out, reflect.ValueOf(child))
	}
	return out, nil
}

func instantiate(cat *FieldCatalog) (obj Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = &InstantiationError{Type: cat.Type(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	obj = reflect.New(cat.Type()).Interface().(Object)
	if ctor, ok := obj.(Constructor); ok {
		if err := ctor.Construct(); err != nil {
			return nil, &InstantiationError{Type: cat.Type(), Err: err}
		}
	}
	return obj, nil
}

func setVersion(base *Base, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		base.SetVersionIdentifier(v)
	default:
		base.SetVersionIdentifier(fmt.Sprint(v))
	}
}

// discriminator returns the type name carried by a v4 type annotation or the
// v2 __metadata object.
func discriminator(obj wire.Object) (string, bool) {
	for _, key := range []string{constants.ODataType, constants.TypeShort} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, true
		}
	}
	if meta, ok := obj[constants.V2Metadata].(wire.Object); ok {
		if s, ok := meta[constants.V2MetadataType].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Encode renders obj as a wire object, null fields included.
func (c *Codec) Encode(obj Object) (wire.Object, error) {
	out, err := c.encode(obj, true)
	if err != nil {
		return nil, &SerializationError{Type: typeName(obj), Err: err}
	}
	return out, nil
}

func (c *Codec) encode(obj Object, nulls bool) (wire.Object, error) {
	st := &encodeState{nulls: nulls, visiting: make(map[Object]bool)}
	return c.encodeEntity(obj, st)
}

type encodeState struct {
	nulls    bool
	visiting map[Object]bool
}

func (c *Codec) encodeEntity(obj Object, st *encodeState) (wire.Object, error) {
	if isNilObject(obj) {
		return nil, errors.New("nil entity")
	}
	if st.visiting[obj] {
		return nil, fmt.Errorf("%s: %s", constants.ErrCyclicReference, obj.ODataType())
	}
	st.visiting[obj] = true
	defer delete(st.visiting, obj)

	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return nil, err
	}
	out, err := c.encodeLevel(cat, reflect.ValueOf(obj).Elem(), st)
	if err != nil {
		return nil, err
	}

	base := obj.vdmBase()
	c.stampMarkers(out, base.odataType(obj), base)

	for _, name := range base.customNames {
		if _, exists := out[name]; exists {
			continue
		}
		v, err := c.encodeUntyped(base.customValues[name], st)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cat.ODataType(), name, err)
		}
		if v == nil && !st.nulls {
			continue
		}
		out[name] = v
	}
	return out, nil
}

// encodeLevel writes the supertype's fields first so the subtype's own fields
// overwrite any shadowed names.
func (c *Codec) encodeLevel(cat *FieldCatalog, level reflect.Value, st *encodeState) (wire.Object, error) {
	out := wire.Object{}
	if cat.parent != nil {
		var err error
		if out, err = c.encodeLevel(cat.parent, level.FieldByIndex(cat.parentIndex), st); err != nil {
			return nil, err
		}
	}
	for _, f := range cat.fields {
		v, err := c.encodeField(*f, f.Accessor.Value(level), st)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cat.ODataType(), f.WireName, err)
		}
		if v == nil && !st.nulls {
			delete(out, f.WireName)
			continue
		}
		out[f.WireName] = v
	}
	return out, nil
}

func (c *Codec) encodeField(f FieldDescriptor, v reflect.Value, st *encodeState) (any, error) {
	if f.CodecName != "" {
		vc, ok := c.registry.Named(f.CodecName)
		if !ok {
			return nil, fmt.Errorf("unknown codec %q", f.CodecName)
		}
		return c.registry.EncodeWith(vc, v)
	}

	switch f.Kind {
	case KindEntity:
		if v.IsNil() {
			return nil, nil
		}
		child, err := c.encodeEntity(v.Interface().(Object), st)
		if err != nil {
			return nil, err
		}
		return child, nil
	case KindEntityCollection:
		if v.IsNil() {
			return nil, nil
		}
		arr := make(wire.Array, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			if item.IsNil() {
				continue
			}
			child, err := c.encodeEntity(item.Interface().(Object), st)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			arr = append(arr, child)
		}
		return arr, nil
	}

	if out, handled, err := c.registry.EncodeValue(v); handled {
		return out, err
	}
	return passThrough(v), nil
}

// encodeUntyped renders an extension field value. Wire values decoded from a
// payload go back unchanged; Go values the registry knows are encoded.
func (c *Codec) encodeUntyped(value any, st *encodeState) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, json.Number, float64, wire.Object, wire.Array:
		return v, nil
	case Object:
		if isNilObject(v) {
			return nil, nil
		}
		child, err := c.encodeEntity(v, st)
		if err != nil {
			return nil, err
		}
		return child, nil
	}
	if out, handled, err := c.registry.EncodeValue(reflect.ValueOf(value)); handled {
		return out, err
	}
	return passThrough(reflect.ValueOf(value)), nil
}

func (c *Codec) stampMarkers(out wire.Object, odataType string, base *Base) {
	version, hasVersion := base.VersionIdentifier()
	if c.Protocol().IsV2() {
		meta := wire.Object{constants.V2MetadataType: odataType}
		if hasVersion {
			meta[constants.V2MetadataEtag] = version
		}
		out[constants.V2Metadata] = meta
		return
	}
	out[constants.ODataType] = "#" + odataType
	if hasVersion {
		out[constants.ODataEtag] = version
	}
}

func passThrough(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func typeName(obj Object) string {
	if isNilObject(obj) {
		return "<nil>"
	}
	return obj.ODataType()
}
