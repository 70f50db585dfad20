package vdm

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// FieldKind classifies how a declared field maps to the wire.
type FieldKind int

const (
	// KindPrimitive fields go through the codec registry.
	KindPrimitive FieldKind = iota
	// KindEntity fields hold a single nested entity (*T).
	KindEntity
	// KindEntityCollection fields hold a slice of nested entities ([]*T).
	KindEntityCollection
)

func (k FieldKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindEntityCollection:
		return "entity collection"
	}
	return "primitive"
}

const tagName = "odata"

var (
	objectType = reflect.TypeFor[Object]()
	baseType   = reflect.TypeFor[Base]()
)

// FieldAccessor reads and writes one struct field by index path.
type FieldAccessor struct {
	index []int
}

// Value returns the field of v, which must be the struct the accessor was
// resolved against.
func (a FieldAccessor) Value(v reflect.Value) reflect.Value {
	return v.FieldByIndex(a.index)
}

// Set assigns x to the field of v. v must be addressable.
func (a FieldAccessor) Set(v reflect.Value, x reflect.Value) {
	v.FieldByIndex(a.index).Set(x)
}

// FieldDescriptor describes one declared property.
type FieldDescriptor struct {
	WireName  string
	GoName    string
	Type      reflect.Type
	Kind      FieldKind
	Complex   bool
	CodecName string
	Accessor  FieldAccessor

	// struct type behind *T or []*T for navigation fields
	target reflect.Type
}

// Target returns the entity struct type a navigation field points to, or nil
// for primitive fields.
func (f FieldDescriptor) Target() reflect.Type {
	return f.target
}

// FieldCatalog is the immutable field map of one entity type. A subtype's
// catalog holds only the fields the subtype declares itself and points to the
// catalog of its supertype.
type FieldCatalog struct {
	typ         reflect.Type
	odataType   string
	fields      []*FieldDescriptor
	byWire      map[string]*FieldDescriptor
	parent      *FieldCatalog
	parentIndex []int
}

var catalogs sync.Map // reflect.Type -> *FieldCatalog

// CatalogOf returns the catalog of the entity type t (a struct type or a
// pointer to one), building and caching it on first use. Navigation targets
// are resolved lazily, so types that refer to each other build without
// recursion.
func CatalogOf(t reflect.Type) (*FieldCatalog, error) {
	t = structType(t)
	if c, ok := catalogs.Load(t); ok {
		return c.(*FieldCatalog), nil
	}
	c, err := buildCatalog(t)
	if err != nil {
		return nil, err
	}
	actual, _ := catalogs.LoadOrStore(t, c)
	return actual.(*FieldCatalog), nil
}

// MustCatalogOf is CatalogOf for package initialization; it panics on a
// malformed entity type.
func MustCatalogOf(t reflect.Type) *FieldCatalog {
	c, err := CatalogOf(t)
	if err != nil {
		panic(err)
	}
	return c
}

func structType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func buildCatalog(t reflect.Type) (*FieldCatalog, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &CatalogError{Type: t, Reason: "not a struct type"}
	}
	if !reflect.PointerTo(t).Implements(objectType) {
		return nil, &CatalogError{Type: t, Reason: "must embed vdm.Base or a supertype and declare ODataType"}
	}

	c := &FieldCatalog{
		typ:    t,
		byWire: make(map[string]*FieldDescriptor),
	}
	hasBase := false

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			isSuper, err := c.embed(sf)
			if err != nil {
				return nil, err
			}
			hasBase = hasBase || sf.Type == baseType || isSuper
			continue
		}

		tag, ok := sf.Tag.Lookup(tagName)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, &CatalogError{Type: t, Field: sf.Name, Reason: "tagged field must be exported"}
		}
		f, err := parseField(t, sf, tag)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byWire[f.WireName]; dup {
			return nil, &CatalogError{Type: t, Field: sf.Name, Reason: fmt.Sprintf("duplicate wire name %q", f.WireName)}
		}
		c.fields = append(c.fields, f)
		c.byWire[f.WireName] = f
	}

	if !hasBase {
		return nil, &CatalogError{Type: t, Reason: "must embed vdm.Base or a supertype"}
	}

	c.odataType = reflect.New(t).Interface().(Object).ODataType()
	if c.parent != nil && c.odataType == c.parent.odataType {
		return nil, &CatalogError{Type: t, Reason: fmt.Sprintf("subtype must declare its own ODataType, inherits %q", c.odataType)}
	}
	return c, nil
}

// embed handles an anonymous field: Base itself, a supertype embedded by
// value, or an unrelated embedded struct that is ignored.
func (c *FieldCatalog) embed(sf reflect.StructField) (bool, error) {
	ft := sf.Type
	switch {
	case ft == baseType:
		return false, nil
	case ft == reflect.PointerTo(baseType):
		return false, &CatalogError{Type: c.typ, Field: sf.Name, Reason: "vdm.Base must be embedded by value"}
	case ft.Kind() == reflect.Pointer && ft.Implements(objectType):
		return false, &CatalogError{Type: c.typ, Field: sf.Name, Reason: "supertype must be embedded by value"}
	case ft.Kind() == reflect.Struct && reflect.PointerTo(ft).Implements(objectType):
		if c.parent != nil {
			return false, &CatalogError{Type: c.typ, Field: sf.Name, Reason: "more than one supertype embedded"}
		}
		parent, err := CatalogOf(ft)
		if err != nil {
			return false, fmt.Errorf("supertype of %s: %w", c.typ, err)
		}
		c.parent = parent
		c.parentIndex = slices.Clone(sf.Index)
		return true, nil
	}
	return false, nil
}

func parseField(t reflect.Type, sf reflect.StructField, tag string) (*FieldDescriptor, error) {
	parts := strings.Split(tag, ",")
	f := &FieldDescriptor{
		WireName: strings.TrimSpace(parts[0]),
		GoName:   sf.Name,
		Type:     sf.Type,
		Accessor: FieldAccessor{index: slices.Clone(sf.Index)},
	}
	if f.WireName == "" {
		f.WireName = sf.Name
	}

	nav := false
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "nav":
			nav = true
		case opt == "complex":
			f.Complex = true
		case strings.HasPrefix(opt, "codec="):
			f.CodecName = strings.TrimPrefix(opt, "codec=")
		case opt == "":
		default:
			return nil, &CatalogError{Type: t, Field: sf.Name, Reason: fmt.Sprintf("unknown tag option %q", opt)}
		}
	}

	switch target, kind := navigationTarget(sf.Type); {
	case kind != KindPrimitive:
		f.Kind = kind
		f.target = target
	case nav || f.Complex:
		return nil, &CatalogError{Type: t, Field: sf.Name, Reason: "navigation and complex fields must be *Entity or []*Entity"}
	}
	if f.CodecName != "" && f.Kind != KindPrimitive {
		return nil, &CatalogError{Type: t, Field: sf.Name, Reason: "codec option is not allowed on navigation fields"}
	}
	return f, nil
}

// navigationTarget recognizes *T and []*T where *T is an entity.
func navigationTarget(ft reflect.Type) (reflect.Type, FieldKind) {
	isEntityPtr := func(t reflect.Type) bool {
		return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Implements(objectType)
	}
	switch {
	case isEntityPtr(ft):
		return ft.Elem(), KindEntity
	case ft.Kind() == reflect.Slice && isEntityPtr(ft.Elem()):
		return ft.Elem().Elem(), KindEntityCollection
	}
	return nil, KindPrimitive
}

// Type returns the entity struct type.
func (c *FieldCatalog) Type() reflect.Type {
	return c.typ
}

// ODataType returns the EDM type name declared by the entity type.
func (c *FieldCatalog) ODataType() string {
	return c.odataType
}

// Parent returns the supertype catalog, or nil for a root type.
func (c *FieldCatalog) Parent() *FieldCatalog {
	return c.parent
}

// Fields returns the fields declared by this type itself, in declaration
// order. Accessors are relative to this type's struct.
func (c *FieldCatalog) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(c.fields))
	for i, f := range c.fields {
		out[i] = *f
	}
	return out
}

// Resolve looks wireName up in this catalog and then in each supertype
// catalog in turn. The returned accessor is relative to the struct of the
// catalog Resolve was called on.
func (c *FieldCatalog) Resolve(wireName string) (FieldDescriptor, bool) {
	var prefix []int
	for cat := c; cat != nil; cat = cat.parent {
		if f, ok := cat.byWire[wireName]; ok {
			out := *f
			out.Accessor = FieldAccessor{index: concatIndex(prefix, f.Accessor.index)}
			return out, true
		}
		prefix = concatIndex(prefix, cat.parentIndex)
	}
	return FieldDescriptor{}, false
}

// AllFields flattens the supertype chain. Each wire name appears once; a
// subtype field shadows a supertype field of the same name. Supertype fields
// come first.
func (c *FieldCatalog) AllFields() []FieldDescriptor {
	var chain []*FieldCatalog
	for cat := c; cat != nil; cat = cat.parent {
		chain = append(chain, cat)
	}

	seen := make(map[string]bool)
	var out []FieldDescriptor
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].fields {
			if seen[f.WireName] {
				continue
			}
			resolved, _ := c.Resolve(f.WireName)
			seen[f.WireName] = true
			out = append(out, resolved)
		}
	}
	return out
}

// IsSubtypeOf reports whether base is c or one of c's supertypes.
func (c *FieldCatalog) IsSubtypeOf(base *FieldCatalog) bool {
	for cat := c; cat != nil; cat = cat.parent {
		if cat == base {
			return true
		}
	}
	return false
}

func concatIndex(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
