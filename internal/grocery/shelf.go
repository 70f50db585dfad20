package grocery

import (
	"time"

	"github.com/zmcp/odata-vdm/internal/vdm"
)

// Floor is the entity type GroceryStore.Floor.
type Floor struct {
	vdm.Base

	ID    *int32  `odata:"Id"`
	Name  *string `odata:"Name"`
	Level *int16  `odata:"Level"`
}

func (Floor) ODataType() string { return Namespace + ".Floor" }

func (f *Floor) SetID(v *int32)    { vdm.SetTracked(f, "Id", &f.ID, v) }
func (f *Floor) SetName(v *string) { vdm.SetTracked(f, "Name", &f.Name, v) }
func (f *Floor) SetLevel(v *int16) { vdm.SetTracked(f, "Level", &f.Level, v) }

// ServiceFloor is GroceryStore.ServiceFloor, a Floor with service counters.
type ServiceFloor struct {
	Floor

	Services      []string       `odata:"Services"`
	ServiceWindow *time.Duration `odata:"ServiceWindow"`
	Staffed       *bool          `odata:"Staffed"`
}

func (ServiceFloor) ODataType() string { return Namespace + ".ServiceFloor" }

func (s *ServiceFloor) SetServices(v []string) { vdm.SetTracked(s, "Services", &s.Services, v) }
func (s *ServiceFloor) SetServiceWindow(v *time.Duration) {
	vdm.SetTracked(s, "ServiceWindow", &s.ServiceWindow, v)
}
func (s *ServiceFloor) SetStaffed(v *bool) { vdm.SetTracked(s, "Staffed", &s.Staffed, v) }

// Shelf is the entity type GroceryStore.Shelf.
type Shelf struct {
	vdm.Base

	ID          *int32 `odata:"Id"`
	FloorPlanID *int32 `odata:"FloorPlanId"`

	Floor    *Floor     `odata:"toFloor,nav"`
	Products []*Product `odata:"toProducts,nav"`
}

func (Shelf) ODataType() string { return Namespace + ".Shelf" }

func (s *Shelf) SetID(v *int32)           { vdm.SetTracked(s, "Id", &s.ID, v) }
func (s *Shelf) SetFloorPlanID(v *int32)  { vdm.SetTracked(s, "FloorPlanId", &s.FloorPlanID, v) }
func (s *Shelf) SetFloor(v *Floor)        { vdm.SetTracked(s, "toFloor", &s.Floor, v) }
func (s *Shelf) SetProducts(v []*Product) { vdm.SetTracked(s, "toProducts", &s.Products, v) }
