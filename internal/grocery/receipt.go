package grocery

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/zmcp/odata-vdm/internal/vdm"
)

// ProductCount is the complex type GroceryStore.ProductCount.
type ProductCount struct {
	vdm.Base

	ProductID *int32 `odata:"ProductId"`
	Quantity  *int32 `odata:"Quantity"`
}

func (ProductCount) ODataType() string { return Namespace + ".ProductCount" }

func (p *ProductCount) SetProductID(v *int32) { vdm.SetTracked(p, "ProductId", &p.ProductID, v) }
func (p *ProductCount) SetQuantity(v *int32)  { vdm.SetTracked(p, "Quantity", &p.Quantity, v) }

// Receipt is the entity type GroceryStore.Receipt. IssuedAt is an
// Edm.DateTime, which has no offset on v2 services.
type Receipt struct {
	vdm.Base

	ID          *int32       `odata:"Id"`
	CustomerID  *int32       `odata:"CustomerId"`
	TotalAmount *apd.Decimal `odata:"TotalAmount"`
	IssuedAt    *time.Time   `odata:"IssuedAt,codec=datetime"`

	ProductCounts []*ProductCount `odata:"ProductCounts,complex"`
	Customer      *Customer       `odata:"toCustomer,nav"`
}

func (Receipt) ODataType() string { return Namespace + ".Receipt" }

func (r *Receipt) SetID(v *int32)                { vdm.SetTracked(r, "Id", &r.ID, v) }
func (r *Receipt) SetCustomerID(v *int32)        { vdm.SetTracked(r, "CustomerId", &r.CustomerID, v) }
func (r *Receipt) SetTotalAmount(v *apd.Decimal) { vdm.SetTracked(r, "TotalAmount", &r.TotalAmount, v) }
func (r *Receipt) SetIssuedAt(v *time.Time)      { vdm.SetTracked(r, "IssuedAt", &r.IssuedAt, v) }
func (r *Receipt) SetProductCounts(v []*ProductCount) {
	vdm.SetTracked(r, "ProductCounts", &r.ProductCounts, v)
}
func (r *Receipt) SetCustomer(v *Customer) { vdm.SetTracked(r, "toCustomer", &r.Customer, v) }
