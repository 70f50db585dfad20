// Package grocery is a sample data model of a grocery store service. The
// command line tool decodes and encodes payloads with it.
package grocery

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zmcp/odata-vdm/internal/codec"
	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/vdm"
)

// Namespace of every type in the model
const Namespace = "GroceryStore"

// ProductCategory is the Edm enumeration GroceryStore.ProductCategory.
type ProductCategory string

const (
	CategoryFruits     ProductCategory = "Fruits"
	CategoryVegetables ProductCategory = "Vegetables"
	CategoryDairy      ProductCategory = "Dairy"
	CategoryBakery     ProductCategory = "Bakery"
	CategoryBeverages  ProductCategory = "Beverages"
	CategoryMeat       ProductCategory = "Meat"
)

// entityTypes lists the entity types by their unqualified name.
var entityTypes = map[string]reflect.Type{
	"Product":      reflect.TypeFor[Product](),
	"Customer":     reflect.TypeFor[Customer](),
	"Address":      reflect.TypeFor[Address](),
	"Vendor":       reflect.TypeFor[Vendor](),
	"OpeningHours": reflect.TypeFor[OpeningHours](),
	"Shelf":        reflect.TypeFor[Shelf](),
	"Floor":        reflect.TypeFor[Floor](),
	"ServiceFloor": reflect.TypeFor[ServiceFloor](),
	"Receipt":      reflect.TypeFor[Receipt](),
	"ProductCount": reflect.TypeFor[ProductCount](),
}

// TypeByName returns the entity type for name, qualified or not.
func TypeByName(name string) (reflect.Type, error) {
	short := strings.TrimPrefix(strings.TrimPrefix(name, "#"), Namespace+".")
	for n, t := range entityTypes {
		if strings.EqualFold(n, short) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown entity type %q, expected one of %s", name, strings.Join(TypeNames(), ", "))
}

// TypeNames returns the unqualified entity type names, sorted.
func TypeNames() []string {
	names := make([]string, 0, len(entityTypes))
	for n := range entityTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewRegistry returns a codec registry for protocol with the model's
// enumerations registered.
func NewRegistry(protocol constants.Protocol) *codec.Registry {
	b := codec.NewBuilder(protocol)
	codec.RegisterEnum(b,
		CategoryFruits, CategoryVegetables, CategoryDairy,
		CategoryBakery, CategoryBeverages, CategoryMeat,
	)
	return b.Build()
}

// NewSubtypes returns a resolver knowing the model's type hierarchy.
func NewSubtypes() (*vdm.SubtypeResolver, error) {
	r := vdm.NewSubtypeResolver()
	if err := r.Register(reflect.TypeFor[Floor](), reflect.TypeFor[ServiceFloor]()); err != nil {
		return nil, err
	}
	return r, nil
}

// NewCodec wires a codec for the model.
func NewCodec(protocol constants.Protocol, opts ...vdm.Option) (*vdm.Codec, error) {
	subtypes, err := NewSubtypes()
	if err != nil {
		return nil, err
	}
	opts = append([]vdm.Option{vdm.WithSubtypes(subtypes)}, opts...)
	return vdm.NewCodec(NewRegistry(protocol), opts...), nil
}

// Validate builds the catalog of every entity type.
func Validate() error {
	for _, name := range TypeNames() {
		if _, err := vdm.CatalogOf(entityTypes[name]); err != nil {
			return err
		}
	}
	return nil
}
