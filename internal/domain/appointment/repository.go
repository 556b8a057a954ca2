package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrNotChanged = errors.New("status precondition failed")
)

// Guard runs inside the store's serialized section with the provider's
// scheduled appointments for the day. Returning an error aborts the insert.
type Guard func(scheduled []models.Appointment) error

type Repository interface {
	// -------- Provider --------
	GetShop(
		ctx context.Context,
		id uint,
	) (*models.Barbershop, error)

	GetBarber(
		ctx context.Context,
		id uint,
	) (*models.User, error)

	// -------- Service --------
	GetService(
		ctx context.Context,
		id uint,
	) (*models.Service, error)

	ListServices(
		ctx context.Context,
		provider ProviderRef,
	) ([]models.Service, error)

	// -------- Appointment (read) --------
	ListScheduled(
		ctx context.Context,
		provider ProviderRef,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	ListForPeriod(
		ctx context.Context,
		provider ProviderRef,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// -------- Appointment (write) --------

	// CreateGuarded serializes check-and-insert per provider: concurrent
	// callers for the same provider observe each other's inserts.
	CreateGuarded(
		ctx context.Context,
		ap *models.Appointment,
		dayStart time.Time,
		dayEnd time.Time,
		guard Guard,
	) error

	// TransitionStatus updates only while the row is still in from. It
	// returns ErrNotChanged when another writer got there first.
	TransitionStatus(
		ctx context.Context,
		ap *models.Appointment,
		from Status,
	) error
}
