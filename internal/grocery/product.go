package grocery

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/zmcp/odata-vdm/internal/vdm"
)

// Product is the entity type GroceryStore.Product.
type Product struct {
	vdm.Base

	ID            *int32            `odata:"Id"`
	Name          *string           `odata:"Name"`
	ShelfID       *int32            `odata:"ShelfId"`
	VendorID      *int32            `odata:"VendorId"`
	Price         *apd.Decimal      `odata:"Price"`
	Categories    []ProductCategory `odata:"Categories"`
	SKU           *uuid.UUID        `odata:"Sku"`
	BestBefore    *civil.Date       `odata:"BestBefore"`
	LastRestocked *time.Time        `odata:"LastRestocked"`
	Image         []byte            `odata:"Image"`

	Vendor    *Vendor  `odata:"toVendor,nav"`
	Shelf     *Shelf   `odata:"toShelf,nav"`
	Successor *Product `odata:"Successor,nav"`
}

func (Product) ODataType() string { return Namespace + ".Product" }

func (p *Product) SetID(v *int32)          { vdm.SetTracked(p, "Id", &p.ID, v) }
func (p *Product) SetName(v *string)       { vdm.SetTracked(p, "Name", &p.Name, v) }
func (p *Product) SetShelfID(v *int32)     { vdm.SetTracked(p, "ShelfId", &p.ShelfID, v) }
func (p *Product) SetVendorID(v *int32)    { vdm.SetTracked(p, "VendorId", &p.VendorID, v) }
func (p *Product) SetPrice(v *apd.Decimal) { vdm.SetTracked(p, "Price", &p.Price, v) }
func (p *Product) SetCategories(v []ProductCategory) {
	vdm.SetTracked(p, "Categories", &p.Categories, v)
}
func (p *Product) SetSKU(v *uuid.UUID)         { vdm.SetTracked(p, "Sku", &p.SKU, v) }
func (p *Product) SetBestBefore(v *civil.Date) { vdm.SetTracked(p, "BestBefore", &p.BestBefore, v) }
func (p *Product) SetLastRestocked(v *time.Time) {
	vdm.SetTracked(p, "LastRestocked", &p.LastRestocked, v)
}
func (p *Product) SetImage(v []byte)       { vdm.SetTracked(p, "Image", &p.Image, v) }
func (p *Product) SetVendor(v *Vendor)     { vdm.SetTracked(p, "toVendor", &p.Vendor, v) }
func (p *Product) SetShelf(v *Shelf)       { vdm.SetTracked(p, "toShelf", &p.Shelf, v) }
func (p *Product) SetSuccessor(v *Product) { vdm.SetTracked(p, "Successor", &p.Successor, v) }
