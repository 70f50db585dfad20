// Package vdm maps typed entity structs (the virtual data model) to and from
// OData JSON wire trees, tracks field changes and builds update payloads.
//
// An entity is a struct that embeds Base, or embeds its supertype struct by
// value, and tags its declared properties:
//
//	type Product struct {
//		vdm.Base
//		ID       *int64        `odata:"Id"`
//		Price    *apd.Decimal  `odata:"Price"`
//		Shelf    *Shelf        `odata:"Shelf,nav"`
//		Address  *Address      `odata:"Address,complex"`
//		Created  *time.Time    `odata:"CreatedAt,codec=legacy-datetime"`
//	}
//
//	func (Product) ODataType() string { return "Grocery.Product" }
package vdm

import (
	"fmt"
	"maps"
	"slices"
)

// Object is implemented by pointers to entity structs.
type Object interface {
	// ODataType returns the fully-qualified EDM type name.
	ODataType() string

	vdmBase() *Base
}

// Constructor is implemented by entities that need more than their zero value
// before wire fields are applied.
type Constructor interface {
	Construct() error
}

// Base carries the state every entity shares: extension fields the model does
// not declare, the change record and the version identifier (ETag). The zero
// value is ready to use.
type Base struct {
	customNames  []string
	customValues map[string]any
	changes      ChangeRecord
	version      *string
	wireType     string
}

func (b *Base) vdmBase() *Base { return b }

// odataType returns the type name written on encode: the subtype named on
// the wire when obj was decoded into one of its supertypes, else obj's own.
func (b *Base) odataType(obj Object) string {
	if b.wireType != "" {
		return b.wireType
	}
	return obj.ODataType()
}

// WireType returns the subtype name the entity was sent with when it was
// decoded into a supertype, or "".
func (b *Base) WireType() string {
	return b.wireType
}

// RememberChangedField records the value a field held before its first
// change. Later calls for the same name are ignored until the record is reset.
func (b *Base) RememberChangedField(wireName string, previous any) {
	b.changes.Remember(wireName, previous)
}

// ResetChangedFields forgets all recorded changes.
func (b *Base) ResetChangedFields() {
	b.changes.Reset()
}

// Changes exposes the change record.
func (b *Base) Changes() *ChangeRecord {
	return &b.changes
}

// VersionIdentifier returns the ETag the entity was loaded with.
func (b *Base) VersionIdentifier() (string, bool) {
	if b.version == nil {
		return "", false
	}
	return *b.version, true
}

// SetVersionIdentifier stores the ETag sent with the next update.
func (b *Base) SetVersionIdentifier(version string) {
	b.version = &version
}

// ClearVersionIdentifier removes the ETag.
func (b *Base) ClearVersionIdentifier() {
	b.version = nil
}

// setCustomField stores a tracked extension value. A new name counts as
// changed from absent. Callers have checked that name is not declared.
func (b *Base) setCustomField(name string, value any) {
	b.RememberChangedField(name, b.customValues[name])
	b.putCustomField(name, value)
}

func (b *Base) putCustomField(name string, value any) {
	if b.customValues == nil {
		b.customValues = make(map[string]any)
	}
	if _, ok := b.customValues[name]; !ok {
		b.customNames = append(b.customNames, name)
	}
	b.customValues[name] = value
}

// CustomField returns the value of an extension field, or an error wrapping
// ErrNoSuchField.
func (b *Base) CustomField(name string) (any, error) {
	v, ok := b.customValues[name]
	if !ok {
		return nil, fmt.Errorf("custom field %q: %w", name, ErrNoSuchField)
	}
	return v, nil
}

// HasCustomField reports whether an extension field with the name exists.
func (b *Base) HasCustomField(name string) bool {
	_, ok := b.customValues[name]
	return ok
}

// CustomFieldNames returns the extension field names in insertion order.
// Fields found while decoding come first, sorted by name, since the wire
// object is unordered.
func (b *Base) CustomFieldNames() []string {
	return slices.Clone(b.customNames)
}

// CustomFields returns a copy of the extension fields.
func (b *Base) CustomFields() map[string]any {
	return maps.Clone(b.customValues)
}

// SetTracked assigns value to *field after remembering the old value under
// wireName. Typed setters are built on it:
//
//	func (p *Product) SetName(v *string) { vdm.SetTracked(p, "Name", &p.Name, v) }
func SetTracked[T any](obj Object, wireName string, field *T, value T) {
	obj.vdmBase().RememberChangedField(wireName, *field)
	*field = value
}
