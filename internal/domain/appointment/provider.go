package appointment

import (
	"fmt"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// ProviderRef points at the calendar that owns an appointment: a whole shop
// or one barber.
type ProviderRef struct {
	ShopID   *uint
	BarberID *uint
}

func ShopRef(id uint) ProviderRef   { return ProviderRef{ShopID: &id} }
func BarberRef(id uint) ProviderRef { return ProviderRef{BarberID: &id} }

func (p ProviderRef) Empty() bool {
	return p.ShopID == nil && p.BarberID == nil
}

// Validate enforces exactly one destination.
func (p ProviderRef) Validate() error {
	if p.Empty() {
		return httperr.Validation("no_booking_destination")
	}
	if p.ShopID != nil && p.BarberID != nil {
		return httperr.Validation("ambiguous_destination")
	}
	return nil
}

// Key identifies the provider for locks and feed filters.
func (p ProviderRef) Key() string {
	if p.BarberID != nil {
		return fmt.Sprintf("barber:%d", *p.BarberID)
	}
	if p.ShopID != nil {
		return fmt.Sprintf("shop:%d", *p.ShopID)
	}
	return ""
}

func (p ProviderRef) String() string {
	return p.Key()
}
