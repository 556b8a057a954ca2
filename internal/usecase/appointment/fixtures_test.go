package appointment

import (
	"context"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

const (
	shopID      uint = 1
	barberID    uint = 2
	ownerID     uint = 3
	otherBarber uint = 4
	clientID    uint = 5

	haircutID  uint = 10 // 30 min, shop
	beardID    uint = 11 // 45 min, shop
	barberCut  uint = 12 // 30 min, barber 2
	retiredID  uint = 13 // inactive, shop
	otherShops uint = 14 // 30 min, shop 99
)

// day is 2024-06-10; the shop runs 09:00-18:00 every 30 minutes in UTC.
var day = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2024, 6, 10, h, m, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func uintPtr(v uint) *uint { return &v }

func newRepo(t *testing.T) (*repository.AppointmentMemoryRepository, *feed.Hub) {
	t.Helper()

	hub := feed.NewHub()
	repo := repository.NewAppointmentMemoryRepository(hub)

	repo.AddShop(models.Barbershop{ID: shopID, Name: "Downtown", Slug: "downtown", Timezone: "UTC", OpenHour: 9, CloseHour: 18, SlotMinutes: 30})

	repo.AddUser(models.User{ID: barberID, Name: "Ana", Role: models.RoleBarber, ShopID: uintPtr(shopID)})
	repo.AddUser(models.User{ID: ownerID, Name: "Owner", Role: models.RoleOwner, ShopID: uintPtr(shopID)})
	repo.AddUser(models.User{ID: otherBarber, Name: "Bruno", Role: models.RoleBarber, ShopID: uintPtr(shopID)})
	repo.AddUser(models.User{ID: clientID, Name: "Carla", Role: models.RoleClient})

	repo.AddService(models.Service{ID: haircutID, ShopID: uintPtr(shopID), Name: "Haircut", DurationMinutes: 30, PriceCents: 4000, Active: true})
	repo.AddService(models.Service{ID: beardID, ShopID: uintPtr(shopID), Name: "Beard", DurationMinutes: 45, PriceCents: 3000, Active: true})
	repo.AddService(models.Service{ID: barberCut, BarberID: uintPtr(barberID), Name: "Fade", DurationMinutes: 30, PriceCents: 5000, Active: true})
	repo.AddService(models.Service{ID: retiredID, ShopID: uintPtr(shopID), Name: "Perm", DurationMinutes: 60, Active: false})
	repo.AddService(models.Service{ID: otherShops, ShopID: uintPtr(99), Name: "Elsewhere", DurationMinutes: 30, Active: true})

	return repo, hub
}

func scheduled(repo *repository.AppointmentMemoryRepository, provider domain.ProviderRef, serviceID uint, start time.Time) models.Appointment {
	return repo.AddAppointment(models.Appointment{
		ShopID:    provider.ShopID,
		BarberID:  provider.BarberID,
		ClientID:  clientID,
		ServiceID: serviceID,
		StartTime: start,
		Status:    string(domain.StatusScheduled),
	})
}

func as(id identity.Identity) context.Context {
	return identity.WithIdentity(context.Background(), id)
}

var (
	client = identity.Identity{UserID: clientID, Name: "Carla", Role: models.RoleClient}
	barber = identity.Identity{UserID: barberID, Name: "Ana", Role: models.RoleBarber, ShopID: uintPtr(shopID)}
	owner  = identity.Identity{UserID: ownerID, Name: "Owner", Role: models.RoleOwner, ShopID: uintPtr(shopID)}
	other  = identity.Identity{UserID: otherBarber, Name: "Bruno", Role: models.RoleBarber, ShopID: uintPtr(shopID)}
)

func slotMap(slots []domain.SlotAvailability) map[string]domain.SlotAvailability {
	out := make(map[string]domain.SlotAvailability, len(slots))
	for _, s := range slots {
		out[s.Start.Format("15:04")] = s
	}
	return out
}
