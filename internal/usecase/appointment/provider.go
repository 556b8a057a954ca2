package appointment

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// loadSettings resolves the operating day of a provider. An unknown provider
// is a NotFound error; any other failure is returned untouched so each caller
// can apply its own read or write policy.
func loadSettings(
	ctx context.Context,
	repo domain.Repository,
	provider domain.ProviderRef,
) (domain.Settings, error) {

	if provider.BarberID != nil {
		barber, err := repo.GetBarber(ctx, *provider.BarberID)
		if err != nil {
			return domain.Settings{}, providerErr(err)
		}
		return domain.SettingsFromShop(barber.Barbershop), nil
	}

	shop, err := repo.GetShop(ctx, *provider.ShopID)
	if err != nil {
		return domain.Settings{}, providerErr(err)
	}
	return domain.SettingsFromShop(shop), nil
}

func providerErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.NotFoundErr("provider_not_found")
	}
	return err
}

// ProviderFor maps an acting identity to the calendar it manages: a barber
// manages their own, an owner manages the shop's.
func ProviderFor(id identity.Identity) (domain.ProviderRef, error) {
	switch id.Role {
	case models.RoleBarber:
		return domain.BarberRef(id.UserID), nil
	case models.RoleOwner:
		if id.ShopID != nil {
			return domain.ShopRef(*id.ShopID), nil
		}
		return domain.BarberRef(id.UserID), nil
	}
	return domain.ProviderRef{}, httperr.Forbidden("forbidden")
}

// owns reports whether the acting identity may change ap.
func owns(id identity.Identity, ap *models.Appointment) bool {
	if ap.BarberID != nil && *ap.BarberID == id.UserID {
		return true
	}
	if id.Role == models.RoleOwner && id.ShopID != nil && ap.ShopID != nil {
		return *ap.ShopID == *id.ShopID
	}
	return false
}

func serviceDuration(s *models.Service) int {
	if s == nil || s.DurationMinutes <= 0 {
		return domain.DefaultDurationMinutes
	}
	return s.DurationMinutes
}

// offeredBy reports whether s is an active service of provider.
func offeredBy(s *models.Service, provider domain.ProviderRef) bool {
	if !s.Active {
		return false
	}
	if provider.BarberID != nil {
		return s.BarberID != nil && *s.BarberID == *provider.BarberID
	}
	return s.ShopID != nil && *s.ShopID == *provider.ShopID
}
