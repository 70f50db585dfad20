package vdm

import (
	"bytes"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// ChangeRecord maps wire names to the value each field held before its first
// change since the last reset.
type ChangeRecord struct {
	originals map[string]any
}

// Remember stores previous for name unless name is already recorded.
func (r *ChangeRecord) Remember(name string, previous any) {
	if r.originals == nil {
		r.originals = make(map[string]any)
	}
	if _, ok := r.originals[name]; ok {
		return
	}
	r.originals[name] = previous
}

// Original returns the value recorded for name.
func (r *ChangeRecord) Original(name string) (any, bool) {
	v, ok := r.originals[name]
	return v, ok
}

// Names returns the recorded names in sorted order.
func (r *ChangeRecord) Names() []string {
	return slices.Sorted(maps.Keys(r.originals))
}

// Len returns the number of recorded names.
func (r *ChangeRecord) Len() int {
	return len(r.originals)
}

// Reset clears the record.
func (r *ChangeRecord) Reset() {
	clear(r.originals)
}

// ChangedFields returns the fields of obj whose live value differs from the
// value recorded before their first change, keyed by wire name. Declared and
// extension fields are both considered. A field holding a nested entity (or a
// slice of entities) also counts as changed when the nested entity has
// changes of its own.
func ChangedFields(obj Object) (map[string]any, error) {
	return changedFields(obj, true, make(map[Object]bool))
}

// DirectChangedFields is ChangedFields without the nested entity rule: only
// fields that were assigned a different value on obj itself are returned.
func DirectChangedFields(obj Object) (map[string]any, error) {
	return changedFields(obj, false, make(map[Object]bool))
}

func changedFields(obj Object, nested bool, visiting map[Object]bool) (map[string]any, error) {
	if isNilObject(obj) || visiting[obj] {
		return map[string]any{}, nil
	}
	visiting[obj] = true
	defer delete(visiting, obj)

	current, err := currentFields(obj)
	if err != nil {
		return nil, err
	}

	base := obj.vdmBase()
	out := make(map[string]any)
	for name, value := range current {
		changed, err := isFieldChanged(base, name, value, nested, visiting)
		if err != nil {
			return nil, err
		}
		if changed {
			out[name] = value
		}
	}
	return out, nil
}

// currentFields maps every declared wire name of obj, plus its extension
// fields, to the live value.
func currentFields(obj Object) (map[string]any, error) {
	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return nil, err
	}
	root := reflect.ValueOf(obj).Elem()
	base := obj.vdmBase()

	current := make(map[string]any)
	for _, f := range cat.AllFields() {
		current[f.WireName] = f.Accessor.Value(root).Interface()
	}
	for _, name := range base.customNames {
		if _, declared := current[name]; !declared {
			current[name] = base.customValues[name]
		}
	}
	return current, nil
}

func isFieldChanged(base *Base, name string, value any, nested bool, visiting map[Object]bool) (bool, error) {
	original, tracked := base.changes.Original(name)
	cur := normalize(value)
	orig := normalize(original)

	if cur == nil && orig == nil {
		return false, nil
	}
	if tracked && !valuesEqual(orig, cur) {
		return true, nil
	}
	if !nested {
		return false, nil
	}

	for _, child := range nestedObjects(cur) {
		changes, err := changedFields(child, true, visiting)
		if err != nil {
			return false, err
		}
		if len(changes) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// nestedObjects returns v when it is an entity, or the entities held by v
// when it is a slice of them.
func nestedObjects(v any) []Object {
	if o, ok := v.(Object); ok {
		return []Object{o}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || !rv.Type().Elem().Implements(objectType) {
		return nil
	}
	out := make([]Object, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if o, ok := rv.Index(i).Interface().(Object); ok && !isNilObject(o) {
			out = append(out, o)
		}
	}
	return out
}

// normalize maps nil pointers, slices and maps to nil and dereferences
// pointers to plain values so that a *string and a string compare by content.
// Entities and decimals keep their pointer.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if o, ok := v.(Object); ok {
		if isNilObject(o) {
			return nil
		}
		return o
	}
	if d, ok := v.(*apd.Decimal); ok {
		if d == nil {
			return nil
		}
		return d
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case *apd.Decimal:
		y, ok := b.(*apd.Decimal)
		// 1.0 and 1.00 are distinct on the wire
		return ok && x.Cmp(y) == 0 && x.Exponent == y.Exponent
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case Object:
		y, ok := b.(Object)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func isNilObject(o Object) bool {
	if o == nil {
		return true
	}
	rv := reflect.ValueOf(o)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
