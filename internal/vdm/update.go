package vdm

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

// UpdateStrategy selects how an update payload is derived from an entity.
type UpdateStrategy int

const (
	// FullReplace sends every field, nulls included, without the version
	// identifier (PUT).
	FullReplace UpdateStrategy = iota
	// PartialPatch sends the changed fields plus explicitly included ones.
	PartialPatch
	// PatchRecursiveFull sends the fields changed directly on the entity
	// plus the full value of each complex field with nested changes.
	PatchRecursiveFull
	// PatchRecursiveDelta sends the fields changed directly on the entity
	// plus only the changed parts of complex fields.
	PatchRecursiveDelta
)

var strategyNames = map[UpdateStrategy]string{
	FullReplace:         "put",
	PartialPatch:        "patch",
	PatchRecursiveFull:  "patch-recursive-full",
	PatchRecursiveDelta: "patch-recursive-delta",
}

func (s UpdateStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UpdateStrategy(%d)", int(s))
}

// Method returns the HTTP verb the payload is sent with under protocol.
func (s UpdateStrategy) Method(protocol constants.Protocol) string {
	if s == FullReplace {
		return constants.PUT
	}
	return protocol.UpdateMethod()
}

// ParseUpdateStrategy accepts the names printed by String, plus "full" and
// "replace" for FullReplace.
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "full", "replace":
		return FullReplace, nil
	}
	for strategy, name := range strategyNames {
		if name == s {
			return strategy, nil
		}
	}
	return 0, fmt.Errorf("unknown update strategy %q", s)
}

// BuildCreatePayload renders obj for a create request: null fields are left
// out and empty arrays are removed at every depth.
func (c *Codec) BuildCreatePayload(obj Object) (wire.Object, error) {
	out, err := c.encode(obj, false)
	if err != nil {
		return nil, &SerializationError{Type: typeName(obj), Strategy: "create", Err: err}
	}
	wire.RemoveEmptyArrays(out)
	return out, nil
}

// BuildUpdatePayload renders obj for an update request with the given
// strategy. include names fields to send even when unchanged; exclude names
// fields to leave out. Both refer to top-level wire names.
func (c *Codec) BuildUpdatePayload(obj Object, strategy UpdateStrategy, include, exclude []string) (wire.Object, error) {
	out, err := c.buildUpdatePayload(obj, strategy, include, exclude)
	if err != nil {
		return nil, &SerializationError{Type: typeName(obj), Strategy: strategy.String(), Err: err}
	}
	if strategy != FullReplace && len(out) == 0 {
		c.logger.Warn(constants.ErrNoChanges, "type", obj.ODataType(), "strategy", strategy.String())
	}
	c.logger.Debug("built update payload", "type", obj.ODataType(), "strategy", strategy.String(), "fields", slices.Sorted(maps.Keys(out)))
	return out, nil
}

func (c *Codec) buildUpdatePayload(obj Object, strategy UpdateStrategy, include, exclude []string) (wire.Object, error) {
	if isNilObject(obj) {
		return nil, errors.New("nil entity")
	}
	full, err := c.encode(obj, true)
	if err != nil {
		return nil, err
	}

	var out wire.Object
	switch strategy {
	case FullReplace:
		c.stripVersion(full)
		out = full
	case PartialPatch:
		changed, err := ChangedFields(obj)
		if err != nil {
			return nil, err
		}
		out = wire.Project(full, union(slices.Collect(maps.Keys(changed)), include))
	case PatchRecursiveFull:
		out, err = c.patchRecursiveFull(obj, full, include)
	case PatchRecursiveDelta:
		out, err = patchRecursiveDelta(obj, full, include)
	default:
		return nil, fmt.Errorf("unknown update strategy %d", int(strategy))
	}
	if err != nil {
		return nil, err
	}
	for _, name := range exclude {
		delete(out, name)
	}
	return out, nil
}

// stripVersion removes the version identifier from obj and every nested
// object.
func (c *Codec) stripVersion(obj wire.Object) {
	if !c.Protocol().IsV2() {
		wire.RemoveKeys(obj, constants.ODataEtag, constants.EtagShort)
		return
	}
	wire.Walk(obj, func(o wire.Object) {
		if meta, ok := o[constants.V2Metadata].(wire.Object); ok {
			delete(meta, constants.V2MetadataEtag)
		}
	})
}

func (c *Codec) patchRecursiveFull(obj Object, full wire.Object, include []string) (wire.Object, error) {
	changed, err := DirectChangedFields(obj)
	if err != nil {
		return nil, err
	}
	out := wire.Project(full, union(slices.Collect(maps.Keys(changed)), include))

	fields, root, err := complexFields(obj)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if _, ok := out[f.WireName]; ok {
			continue
		}
		child, ok := f.Accessor.Value(root).Interface().(Object)
		if !ok || isNilObject(child) {
			continue
		}
		nested, err := containsNestedChanges(child, make(map[Object]bool))
		if err != nil {
			return nil, err
		}
		if nested {
			out[f.WireName] = full[f.WireName]
		}
	}
	return out, nil
}

// containsNestedChanges reports whether obj or any complex value below it
// has fields changed directly on it.
func containsNestedChanges(obj Object, visiting map[Object]bool) (bool, error) {
	if visiting[obj] {
		return false, nil
	}
	visiting[obj] = true

	changed, err := DirectChangedFields(obj)
	if err != nil || len(changed) > 0 {
		return len(changed) > 0, err
	}
	fields, root, err := complexFields(obj)
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		child, ok := f.Accessor.Value(root).Interface().(Object)
		if !ok || isNilObject(child) {
			continue
		}
		if nested, err := containsNestedChanges(child, visiting); err != nil || nested {
			return nested, err
		}
	}
	return false, nil
}

func patchRecursiveDelta(obj Object, full wire.Object, include []string) (wire.Object, error) {
	delta, err := deltaObject(obj, full, make(map[Object]bool))
	if err != nil {
		return nil, err
	}
	// included fields are root-level only and take the full value
	out := wire.Project(full, include)
	for k, v := range delta {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out, nil
}

// deltaObject keeps the directly changed fields of obj and, for each complex
// field, the delta of the nested value when it is not empty.
func deltaObject(obj Object, encoded wire.Object, visiting map[Object]bool) (wire.Object, error) {
	patch := wire.Object{}
	if visiting[obj] {
		return patch, nil
	}
	visiting[obj] = true

	fields, root, err := complexFields(obj)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		child, ok := f.Accessor.Value(root).Interface().(Object)
		if !ok || isNilObject(child) {
			continue
		}
		childJSON, _ := encoded[f.WireName].(wire.Object)
		childPatch, err := deltaObject(child, childJSON, visiting)
		if err != nil {
			return nil, err
		}
		if len(childPatch) > 0 {
			patch[f.WireName] = childPatch
		}
	}

	changed, err := DirectChangedFields(obj)
	if err != nil {
		return nil, err
	}
	for name := range changed {
		patch[name] = encoded[name]
	}
	return patch, nil
}

// complexFields returns the single-valued complex fields of obj along with
// the struct value their accessors apply to.
func complexFields(obj Object) ([]FieldDescriptor, reflect.Value, error) {
	cat, err := CatalogOf(reflect.TypeOf(obj))
	if err != nil {
		return nil, reflect.Value{}, err
	}
	var out []FieldDescriptor
	for _, f := range cat.AllFields() {
		if f.Complex && f.Kind == KindEntity {
			out = append(out, f)
		}
	}
	return out, reflect.ValueOf(obj).Elem(), nil
}

func union(a, b []string) []string {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}
