package grocery

import (
	"cloud.google.com/go/civil"
	"github.com/zmcp/odata-vdm/internal/vdm"
)

// OpeningHours is the complex type GroceryStore.OpeningHours.
type OpeningHours struct {
	vdm.Base

	DayOfWeek *int32      `odata:"DayOfWeek"`
	OpenTime  *civil.Time `odata:"OpenTime"`
	CloseTime *civil.Time `odata:"CloseTime"`
}

func (OpeningHours) ODataType() string { return Namespace + ".OpeningHours" }

func (o *OpeningHours) SetDayOfWeek(v *int32)     { vdm.SetTracked(o, "DayOfWeek", &o.DayOfWeek, v) }
func (o *OpeningHours) SetOpenTime(v *civil.Time) { vdm.SetTracked(o, "OpenTime", &o.OpenTime, v) }
func (o *OpeningHours) SetCloseTime(v *civil.Time) {
	vdm.SetTracked(o, "CloseTime", &o.CloseTime, v)
}

// Vendor is the entity type GroceryStore.Vendor.
type Vendor struct {
	vdm.Base

	ID        *int32  `odata:"Id"`
	Name      *string `odata:"Name"`
	AddressID *int32  `odata:"AddressId"`

	OpeningHours []*OpeningHours `odata:"OpeningHours,complex"`
	Address      *Address        `odata:"toAddress,nav"`
	Products     []*Product      `odata:"toProducts,nav"`
}

func (Vendor) ODataType() string { return Namespace + ".Vendor" }

func (v *Vendor) SetID(x *int32)        { vdm.SetTracked(v, "Id", &v.ID, x) }
func (v *Vendor) SetName(x *string)     { vdm.SetTracked(v, "Name", &v.Name, x) }
func (v *Vendor) SetAddressID(x *int32) { vdm.SetTracked(v, "AddressId", &v.AddressID, x) }
func (v *Vendor) SetOpeningHours(x []*OpeningHours) {
	vdm.SetTracked(v, "OpeningHours", &v.OpeningHours, x)
}
func (v *Vendor) SetAddress(x *Address)    { vdm.SetTracked(v, "toAddress", &v.Address, x) }
func (v *Vendor) SetProducts(x []*Product) { vdm.SetTracked(v, "toProducts", &v.Products, x) }
