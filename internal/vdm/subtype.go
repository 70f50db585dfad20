package vdm

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// SubtypeResolver picks the concrete entity type for a wire object from its
// type discriminator. Registration normally happens at start-up; lookups are
// safe for concurrent use.
type SubtypeResolver struct {
	mu    sync.RWMutex
	bases map[reflect.Type]map[string]*FieldCatalog
}

// NewSubtypeResolver returns an empty resolver.
func NewSubtypeResolver() *SubtypeResolver {
	return &SubtypeResolver{bases: make(map[reflect.Type]map[string]*FieldCatalog)}
}

// Register makes subtypes selectable when decoding into base. Every subtype
// must embed base, directly or through intermediate supertypes. The base
// type's own name always resolves to base.
func (r *SubtypeResolver) Register(base reflect.Type, subtypes ...reflect.Type) error {
	baseCat, err := CatalogOf(base)
	if err != nil {
		return err
	}

	table := map[string]*FieldCatalog{baseCat.ODataType(): baseCat}
	for _, sub := range subtypes {
		subCat, err := CatalogOf(sub)
		if err != nil {
			return err
		}
		if !subCat.IsSubtypeOf(baseCat) {
			return fmt.Errorf("%s is not a subtype of %s", subCat.ODataType(), baseCat.ODataType())
		}
		table[subCat.ODataType()] = subCat
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.bases[baseCat.Type()]
	if !ok {
		r.bases[baseCat.Type()] = table
		return nil
	}
	for name, cat := range table {
		existing[name] = cat
	}
	return nil
}

// HasSubtypes reports whether base has registrations.
func (r *SubtypeResolver) HasSubtypes(base reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bases[structType(base)]
	return ok
}

// Resolve returns the catalog of the type named by discriminator, with or
// without its leading '#'. A base type without registrations resolves to
// itself; an unknown name for a registered base is an *UnknownSubtypeError.
func (r *SubtypeResolver) Resolve(discriminator string, base reflect.Type) (*FieldCatalog, error) {
	base = structType(base)
	name := strings.TrimPrefix(discriminator, "#")

	r.mu.RLock()
	table, ok := r.bases[base]
	var cat *FieldCatalog
	if ok {
		cat = table[name]
	}
	r.mu.RUnlock()

	if !ok {
		return CatalogOf(base)
	}
	if cat == nil {
		baseName := base.String()
		if baseCat, err := CatalogOf(base); err == nil {
			baseName = baseCat.ODataType()
		}
		return nil, &UnknownSubtypeError{Discriminator: discriminator, Base: baseName}
	}
	return cat, nil
}
