package appointment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

func TestResolveSlotsScenario(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, beardID, at(10, 0)) // 10:00-10:45

	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(fixedClock(at(7, 0)))
	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		Provider:  shop,
		ServiceID: haircutID,
		Date:      day,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(slots) != 19 {
		t.Fatalf("got %d slots, want 19", len(slots))
	}

	byTime := slotMap(slots)
	tests := []struct {
		slot      string
		available bool
		reason    domain.BlockReason
	}{
		{"09:00", true, domain.ReasonNone},
		{"09:30", true, domain.ReasonNone},
		{"10:00", false, domain.ReasonBooked},
		{"10:30", false, domain.ReasonBooked},
		{"11:00", true, domain.ReasonNone},
		{"17:30", true, domain.ReasonNone},
		{"18:00", false, domain.ReasonAfterClosing},
	}
	for _, tt := range tests {
		got := byTime[tt.slot]
		if got.Available != tt.available || got.Reason != tt.reason {
			t.Errorf("%s: got %v/%q, want %v/%q", tt.slot, got.Available, got.Reason, tt.available, tt.reason)
		}
	}
}

func TestResolveSlotsExplicitDuration(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, beardID, at(10, 0))

	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(fixedClock(at(7, 0)))
	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		Provider:        shop,
		DurationMinutes: 90,
		Date:            day,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	byTime := slotMap(slots)
	// 09:00-10:30 reaches into the 10:00 appointment
	if byTime["09:00"].Available {
		t.Fatal("09:00 for 90 minutes should overlap 10:00")
	}
	if !byTime["08:30"].Start.IsZero() {
		t.Fatal("no slot before opening")
	}
	if !byTime["16:30"].Available || byTime["17:00"].Available {
		t.Fatalf("closing boundary: 16:30=%v 17:00=%v", byTime["16:30"].Available, byTime["17:00"].Available)
	}
}

func TestResolveSlotsIdempotent(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, beardID, at(10, 0))
	scheduled(repo, shop, haircutID, at(14, 30))

	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(fixedClock(at(11, 10)))
	in := domain.AvailabilityInput{Provider: shop, ServiceID: haircutID, Date: day}

	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two resolutions with unchanged inputs differ")
	}
}

func TestResolveSlotsPastRule(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	in := domain.AvailabilityInput{Provider: shop, ServiceID: haircutID, Date: day}

	now := at(12, 0)
	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(func() time.Time { return now })

	slots, _ := uc.Execute(context.Background(), in)
	byTime := slotMap(slots)
	if byTime["11:30"].Reason != domain.ReasonPast {
		t.Fatalf("11:30 reason = %q, want past", byTime["11:30"].Reason)
	}
	if !byTime["12:00"].Available {
		t.Fatal("12:00 should still be available at 12:00")
	}

	now = now.Add(time.Second)
	slots, _ = uc.Execute(context.Background(), in)
	if got := slotMap(slots)["12:00"]; got.Available || got.Reason != domain.ReasonPast {
		t.Fatalf("12:00 after the instant passed: %+v", got)
	}
}

func TestResolveSlotsFailClosed(t *testing.T) {
	repo, _ := newRepo(t)
	repo.FailReads = errors.New("connection reset")

	uc := NewResolveSlots(repo, domain.Policy{})
	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		Provider:        domain.ShopRef(shopID),
		DurationMinutes: 30,
		Date:            day,
	})
	if slots != nil {
		t.Fatalf("got %d slots on store failure, want none", len(slots))
	}
	if !httperr.IsKind(err, httperr.KindTransientStore) || !httperr.IsBusiness(err, "availability_unavailable") {
		t.Fatalf("err = %v, want availability_unavailable", err)
	}
}

func TestResolveSlotsInputErrors(t *testing.T) {
	repo, _ := newRepo(t)
	uc := NewResolveSlots(repo, domain.Policy{})

	tests := []struct {
		name string
		in   domain.AvailabilityInput
		code string
	}{
		{"no provider", domain.AvailabilityInput{ServiceID: haircutID, Date: day}, "no_booking_destination"},
		{"no service", domain.AvailabilityInput{Provider: domain.ShopRef(shopID), Date: day}, "service_required"},
		{"unknown service", domain.AvailabilityInput{Provider: domain.ShopRef(shopID), ServiceID: 999, Date: day}, "service_not_found"},
		{"foreign service", domain.AvailabilityInput{Provider: domain.ShopRef(shopID), ServiceID: otherShops, Date: day}, "service_not_found"},
		{"inactive service", domain.AvailabilityInput{Provider: domain.ShopRef(shopID), ServiceID: retiredID, Date: day}, "service_not_found"},
		{"unknown shop", domain.AvailabilityInput{Provider: domain.ShopRef(77), DurationMinutes: 30, Date: day}, "provider_not_found"},
		{"client is no barber", domain.AvailabilityInput{Provider: domain.BarberRef(clientID), DurationMinutes: 30, Date: day}, "provider_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.in)
			if !httperr.IsBusiness(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveSlotsIgnoresResolvedAndOtherProviders(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)

	cancelled := scheduled(repo, shop, haircutID, at(9, 0))
	cancelled.Status = string(domain.StatusCancelled)
	repo.AddAppointment(cancelled)
	scheduled(repo, domain.BarberRef(barberID), barberCut, at(9, 30))

	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(fixedClock(at(7, 0)))
	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{Provider: shop, ServiceID: haircutID, Date: day})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	byTime := slotMap(slots)
	if !byTime["09:00"].Available || !byTime["09:30"].Available {
		t.Fatal("cancelled or other-provider appointments must not block")
	}
}

// Busy intervals follow the service's current duration, not the one at
// booking time.
func TestResolveSlotsUsesLiveServiceDuration(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, beardID, at(10, 0))

	uc := NewResolveSlots(repo, domain.Policy{}).WithClock(fixedClock(at(7, 0)))
	in := domain.AvailabilityInput{Provider: shop, ServiceID: haircutID, Date: day}

	slots, _ := uc.Execute(context.Background(), in)
	if !slotMap(slots)["11:00"].Available {
		t.Fatal("11:00 should be free with a 45 minute service")
	}

	repo.SetServiceDuration(beardID, 90)
	slots, _ = uc.Execute(context.Background(), in)
	if slotMap(slots)["11:00"].Available {
		t.Fatal("11:00 should be blocked once the service takes 90 minutes")
	}
}
