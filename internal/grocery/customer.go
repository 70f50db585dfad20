package grocery

import (
	"cloud.google.com/go/civil"
	"github.com/go-openapi/strfmt"
	"github.com/zmcp/odata-vdm/internal/vdm"
)

// Address is the complex type GroceryStore.Address.
type Address struct {
	vdm.Base

	ID         *int32   `odata:"Id"`
	Street     *string  `odata:"Street"`
	City       *string  `odata:"City"`
	State      *string  `odata:"State"`
	Country    *string  `odata:"Country"`
	PostalCode *string  `odata:"PostalCode"`
	Latitude   *float64 `odata:"Latitude"`
	Longitude  *float64 `odata:"Longitude"`
}

func (Address) ODataType() string { return Namespace + ".Address" }

func (a *Address) SetID(v *int32)          { vdm.SetTracked(a, "Id", &a.ID, v) }
func (a *Address) SetStreet(v *string)     { vdm.SetTracked(a, "Street", &a.Street, v) }
func (a *Address) SetCity(v *string)       { vdm.SetTracked(a, "City", &a.City, v) }
func (a *Address) SetState(v *string)      { vdm.SetTracked(a, "State", &a.State, v) }
func (a *Address) SetCountry(v *string)    { vdm.SetTracked(a, "Country", &a.Country, v) }
func (a *Address) SetPostalCode(v *string) { vdm.SetTracked(a, "PostalCode", &a.PostalCode, v) }
func (a *Address) SetLatitude(v *float64)  { vdm.SetTracked(a, "Latitude", &a.Latitude, v) }
func (a *Address) SetLongitude(v *float64) { vdm.SetTracked(a, "Longitude", &a.Longitude, v) }

// Customer is the entity type GroceryStore.Customer.
type Customer struct {
	vdm.Base

	ID          *int32        `odata:"Id"`
	Name        *string       `odata:"Name"`
	Email       *string       `odata:"Email"`
	AddressID   *int32        `odata:"AddressId"`
	MemberSince *civil.Date   `odata:"MemberSince"`
	LoyaltyCard *strfmt.UUID  `odata:"LoyaltyCard"`
	Avatar      strfmt.Base64 `odata:"Avatar"`

	Address *Address `odata:"Address,complex"`
}

func (Customer) ODataType() string { return Namespace + ".Customer" }

func (c *Customer) SetID(v *int32)               { vdm.SetTracked(c, "Id", &c.ID, v) }
func (c *Customer) SetName(v *string)            { vdm.SetTracked(c, "Name", &c.Name, v) }
func (c *Customer) SetEmail(v *string)           { vdm.SetTracked(c, "Email", &c.Email, v) }
func (c *Customer) SetAddressID(v *int32)        { vdm.SetTracked(c, "AddressId", &c.AddressID, v) }
func (c *Customer) SetMemberSince(v *civil.Date) { vdm.SetTracked(c, "MemberSince", &c.MemberSince, v) }
func (c *Customer) SetLoyaltyCard(v *strfmt.UUID) {
	vdm.SetTracked(c, "LoyaltyCard", &c.LoyaltyCard, v)
}
func (c *Customer) SetAvatar(v strfmt.Base64) { vdm.SetTracked(c, "Avatar", &c.Avatar, v) }
func (c *Customer) SetAddress(v *Address)     { vdm.SetTracked(c, "Address", &c.Address, v) }
