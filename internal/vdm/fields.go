package vdm

import (
	"fmt"
	"reflect"

	"github.com/zmcp/odata-vdm/internal/codec"
	"github.com/zmcp/odata-vdm/internal/constants"
)

// Field returns the value of the declared field or extension field named
// wireName.
func Field(obj Object, wireName string) (any, error) {
	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return nil, err
	}
	if f, ok := cat.Resolve(wireName); ok {
		return f.Accessor.Value(reflect.ValueOf(obj).Elem()).Interface(), nil
	}
	return obj.vdmBase().CustomField(wireName)
}

// SetField assigns value to the declared field named wireName and records the
// change. value must be assignable to the field type; a plain value is
// wrapped in a pointer for pointer fields. Names the model does not declare
// are rejected with ErrNoSuchField.
func SetField(obj Object, wireName string, value any) error {
	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return err
	}
	f, ok := cat.Resolve(wireName)
	if !ok {
		return fmt.Errorf("%s.%s: %w", cat.ODataType(), wireName, ErrNoSuchField)
	}
	v, err := codec.Assign(f.Type, value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", cat.ODataType(), wireName, err)
	}

	root := reflect.ValueOf(obj).Elem()
	obj.vdmBase().RememberChangedField(wireName, f.Accessor.Value(root).Interface())
	f.Accessor.Set(root, v)
	return nil
}

// SetCustomField sets the field named wireName. Declared names are assigned
// through SetField, so the extension store never holds a declared name. Any
// other name is stored as a tracked extension field. Type and version
// annotation keys are rejected with ErrReservedName.
func SetCustomField(obj Object, wireName string, value any) error {
	if isReservedName(wireName) {
		return fmt.Errorf("%s.%s: %w", obj.ODataType(), wireName, ErrReservedName)
	}
	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return err
	}
	if _, ok := cat.Resolve(wireName); ok {
		return SetField(obj, wireName, value)
	}
	obj.vdmBase().setCustomField(wireName, value)
	return nil
}

func isReservedName(name string) bool {
	return constants.IsTypeAnnotation(name) || constants.IsEtagAnnotation(name) || name == constants.V2Metadata
}

// CopyFields assigns every declared field and extension field of src to dst
// through the tracked setters, skipping values that are already equal. dst
// and src must be of the same entity type. Only fields named in names are
// copied when names is not empty.
func CopyFields(dst, src Object, names ...string) error {
	if reflect.TypeOf(dst) != reflect.TypeOf(src) {
		return fmt.Errorf("cannot copy %s into %s", src.ODataType(), dst.ODataType())
	}
	cat, err := CatalogOf(reflect.TypeOf(dst))
	if err != nil {
		return err
	}
	wanted := func(name string) bool {
		if len(names) == 0 {
			return true
		}
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}

	srcRoot := reflect.ValueOf(src).Elem()
	dstRoot := reflect.ValueOf(dst).Elem()
	for _, f := range cat.AllFields() {
		if !wanted(f.WireName) {
			continue
		}
		next := f.Accessor.Value(srcRoot).Interface()
		if valuesEqual(normalize(f.Accessor.Value(dstRoot).Interface()), normalize(next)) {
			continue
		}
		if err := SetField(dst, f.WireName, next); err != nil {
			return err
		}
	}

	srcBase, dstBase := src.vdmBase(), dst.vdmBase()
	for _, name := range srcBase.customNames {
		if !wanted(name) {
			continue
		}
		next := srcBase.customValues[name]
		if prev, ok := dstBase.customValues[name]; ok && valuesEqual(normalize(prev), normalize(next)) {
			continue
		}
		dstBase.setCustomField(name, next)
	}
	return nil
}
