package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// AppointmentMemoryRepository keeps everything in process memory. One mutex
// serializes all writes, which is the same guarantee the postgres advisory
// lock gives per provider.
type AppointmentMemoryRepository struct {
	mu sync.Mutex

	feed *feed.Hub

	shops        map[uint]models.Barbershop
	users        map[uint]models.User
	services     map[uint]models.Service
	appointments map[uint]models.Appointment
	nextID       uint

	// FailReads makes every read return the error, to exercise fail-closed paths.
	FailReads error
	// FailWrites does the same for writes.
	FailWrites error
}

func NewAppointmentMemoryRepository(hub *feed.Hub) *AppointmentMemoryRepository {
	return &AppointmentMemoryRepository{
		feed:         hub,
		shops:        make(map[uint]models.Barbershop),
		users:        make(map[uint]models.User),
		services:     make(map[uint]models.Service),
		appointments: make(map[uint]models.Appointment),
	}
}

// --------------------------------------------------
// Seeding
// --------------------------------------------------

func (r *AppointmentMemoryRepository) AddShop(shop models.Barbershop) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[shop.ID] = shop
}

func (r *AppointmentMemoryRepository) AddUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *AppointmentMemoryRepository) AddService(s models.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[s.ID] = s
}

// AddAppointment stores ap as-is, bypassing the guard.
func (r *AppointmentMemoryRepository) AddAppointment(ap models.Appointment) models.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ap.ID == 0 {
		r.nextID++
		ap.ID = r.nextID
	} else if ap.ID > r.nextID {
		r.nextID = ap.ID
	}
	ap.Service = nil
	r.appointments[ap.ID] = ap
	return ap
}

// SetServiceDuration edits a service in place, the way an owner would.
func (r *AppointmentMemoryRepository) SetServiceDuration(id uint, minutes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.services[id]
	s.DurationMinutes = minutes
	r.services[id] = s
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (r *AppointmentMemoryRepository) GetShop(_ context.Context, id uint) (*models.Barbershop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	shop, ok := r.shops[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &shop, nil
}

func (r *AppointmentMemoryRepository) GetBarber(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	u, ok := r.users[id]
	if !ok || (u.Role != models.RoleBarber && u.Role != models.RoleOwner) {
		return nil, domain.ErrNotFound
	}
	if u.ShopID != nil {
		if shop, ok := r.shops[*u.ShopID]; ok {
			u.Barbershop = &shop
		}
	}
	return &u, nil
}

func (r *AppointmentMemoryRepository) GetService(_ context.Context, id uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	s, ok := r.services[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *AppointmentMemoryRepository) ListServices(_ context.Context, provider domain.ProviderRef) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	var out []models.Service
	for _, s := range r.services {
		if s.Active && sameProvider(provider, s.ShopID, s.BarberID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AppointmentMemoryRepository) ListScheduled(_ context.Context, provider domain.ProviderRef, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	return r.list(provider, start, end, true), nil
}

func (r *AppointmentMemoryRepository) ListForPeriod(_ context.Context, provider domain.ProviderRef, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	return r.list(provider, start, end, false), nil
}

func (r *AppointmentMemoryRepository) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReads != nil {
		return nil, r.FailReads
	}
	ap, ok := r.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ap = r.joined(ap)
	return &ap, nil
}

// --------------------------------------------------
// Writes
// --------------------------------------------------

func (r *AppointmentMemoryRepository) CreateGuarded(_ context.Context, ap *models.Appointment, dayStart, dayEnd time.Time, guard domain.Guard) error {
	r.mu.Lock()
	if r.FailWrites != nil {
		r.mu.Unlock()
		return r.FailWrites
	}

	provider := domain.ProviderRef{ShopID: ap.ShopID, BarberID: ap.BarberID}
	if err := guard(r.list(provider, dayStart, dayEnd, true)); err != nil {
		r.mu.Unlock()
		return err
	}

	r.nextID++
	now := time.Now()
	ap.ID = r.nextID
	ap.CreatedAt = now
	ap.UpdatedAt = now

	stored := *ap
	stored.Service = nil
	r.appointments[ap.ID] = stored
	r.mu.Unlock()

	r.publish(feed.OpInsert, ap)
	return nil
}

func (r *AppointmentMemoryRepository) TransitionStatus(_ context.Context, ap *models.Appointment, from domain.Status) error {
	r.mu.Lock()
	if r.FailWrites != nil {
		r.mu.Unlock()
		return r.FailWrites
	}

	stored, ok := r.appointments[ap.ID]
	if !ok || domain.Status(stored.Status) != from {
		r.mu.Unlock()
		return domain.ErrNotChanged
	}

	stored.Status = ap.Status
	stored.CompletedAt = ap.CompletedAt
	stored.CancelledAt = ap.CancelledAt
	stored.UpdatedAt = time.Now()
	r.appointments[ap.ID] = stored
	r.mu.Unlock()

	r.publish(feed.OpUpdate, ap)
	return nil
}

// --------------------------------------------------
// Helpers (caller holds mu)
// --------------------------------------------------

func (r *AppointmentMemoryRepository) list(provider domain.ProviderRef, start, end time.Time, scheduledOnly bool) []models.Appointment {
	var out []models.Appointment
	for _, ap := range r.appointments {
		if !sameProvider(provider, ap.ShopID, ap.BarberID) {
			continue
		}
		if scheduledOnly && domain.Status(ap.Status) != domain.StatusScheduled {
			continue
		}
		if ap.StartTime.Before(start) || !ap.StartTime.Before(end) {
			continue
		}
		out = append(out, r.joined(ap))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *AppointmentMemoryRepository) joined(ap models.Appointment) models.Appointment {
	if s, ok := r.services[ap.ServiceID]; ok {
		ap.Service = &s
	} else {
		ap.Service = nil
	}
	if u, ok := r.users[ap.ClientID]; ok {
		ap.Client = u
	}
	return ap
}

func (r *AppointmentMemoryRepository) publish(op feed.Op, ap *models.Appointment) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(feed.Change{
		Op:            op,
		AppointmentID: ap.ID,
		ProviderKeys:  ProviderKeys(ap.ShopID, ap.BarberID),
	})
}

func sameProvider(provider domain.ProviderRef, shopID, barberID *uint) bool {
	if provider.BarberID != nil {
		return barberID != nil && *barberID == *provider.BarberID
	}
	if provider.ShopID != nil {
		return shopID != nil && *shopID == *provider.ShopID
	}
	return false
}

var _ domain.Repository = (*AppointmentMemoryRepository)(nil)
