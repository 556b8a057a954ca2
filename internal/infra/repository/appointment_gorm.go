package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type AppointmentGormRepository struct {
	db   *gorm.DB
	feed *feed.Hub
}

func NewAppointmentGormRepository(db *gorm.DB, hub *feed.Hub) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db, feed: hub}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func scopeProvider(q *gorm.DB, provider domain.ProviderRef) *gorm.DB {
	if provider.BarberID != nil {
		return q.Where("barber_id = ?", *provider.BarberID)
	}
	return q.Where("shop_id = ?", *provider.ShopID)
}

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (r *AppointmentGormRepository) GetShop(
	ctx context.Context,
	id uint,
) (*models.Barbershop, error) {

	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &shop, nil
}

func (r *AppointmentGormRepository) GetBarber(
	ctx context.Context,
	id uint,
) (*models.User, error) {

	var barber models.User
	if err := r.db.WithContext(ctx).
		Preload("Barbershop").
		Where("id = ? AND role IN ?", id, []string{models.RoleBarber, models.RoleOwner}).
		First(&barber).Error; err != nil {
		return nil, notFound(err)
	}
	return &barber, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	id uint,
) (*models.Service, error) {

	var service models.Service
	if err := r.db.WithContext(ctx).First(&service, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

func (r *AppointmentGormRepository) ListServices(
	ctx context.Context,
	provider domain.ProviderRef,
) ([]models.Service, error) {

	var services []models.Service
	q := scopeProvider(r.db.WithContext(ctx), provider).Where("active = ?", true)
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// --------------------------------------------------
// Appointment (read)
// --------------------------------------------------

func (r *AppointmentGormRepository) listScheduled(
	tx *gorm.DB,
	provider domain.ProviderRef,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	err := scopeProvider(tx, provider).
		Preload("Service").
		Where(
			"status = ? AND start_time >= ? AND start_time < ?",
			string(domain.StatusScheduled), start, end,
		).
		Order("start_time ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListScheduled(
	ctx context.Context,
	provider domain.ProviderRef,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {
	return r.listScheduled(r.db.WithContext(ctx), provider, start, end)
}

func (r *AppointmentGormRepository) ListForPeriod(
	ctx context.Context,
	provider domain.ProviderRef,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment

	err := scopeProvider(r.db.WithContext(ctx), provider).
		Preload("Client").
		Preload("Service").
		Where("start_time >= ? AND start_time < ?", start, end).
		Order("start_time ASC").
		Find(&apps).Error

	if err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Service").
		First(&ap, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ap, nil
}

// --------------------------------------------------
// Appointment (write)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateGuarded(
	ctx context.Context,
	ap *models.Appointment,
	dayStart time.Time,
	dayEnd time.Time,
	guard domain.Guard,
) error {

	provider := domain.ProviderRef{ShopID: ap.ShopID, BarberID: ap.BarberID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// one writer per provider until commit
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", provider.Key()).Error; err != nil {
			return err
		}

		scheduled, err := r.listScheduled(tx, provider, dayStart, dayEnd)
		if err != nil {
			return err
		}

		if err := guard(scheduled); err != nil {
			return err
		}

		return tx.Create(ap).Error
	})

	if err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.Conflict("slot_unavailable")
		}
		return err
	}

	r.publish(feed.OpInsert, ap)
	return nil
}

func (r *AppointmentGormRepository) TransitionStatus(
	ctx context.Context,
	ap *models.Appointment,
	from domain.Status,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", ap.ID, string(from)).
		Updates(map[string]any{
			"status":       ap.Status,
			"completed_at": ap.CompletedAt,
			"cancelled_at": ap.CancelledAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotChanged
	}

	r.publish(feed.OpUpdate, ap)
	return nil
}

func (r *AppointmentGormRepository) publish(op feed.Op, ap *models.Appointment) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(feed.Change{
		Op:            op,
		AppointmentID: ap.ID,
		ProviderKeys:  ProviderKeys(ap.ShopID, ap.BarberID),
	})
}

// ProviderKeys lists every provider calendar an appointment shows up on.
func ProviderKeys(shopID, barberID *uint) []string {
	var keys []string
	if barberID != nil {
		keys = append(keys, domain.BarberRef(*barberID).Key())
	}
	if shopID != nil {
		keys = append(keys, domain.ShopRef(*shopID).Key())
	}
	return keys
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
