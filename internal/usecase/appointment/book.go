package appointment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/events"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type BookInput struct {
	Provider  domain.ProviderRef
	ServiceID uint      `validate:"required" errcode:"service_required"`
	Slot      time.Time `validate:"required" errcode:"slot_required"`
}

type BookedAppointment struct {
	Appointment models.Appointment `json:"appointment"`
	EndTime     time.Time          `json:"end_time"`
	CalendarURL string             `json:"calendar_url"`
}

// ======================================================
// USE CASE
// ======================================================

type Book struct {
	repo     domain.Repository
	identity identity.Provider
	policy   domain.Policy
	audit    *audit.Dispatcher
	events   events.Publisher
	now      func() time.Time
}

func NewBook(
	repo domain.Repository,
	ids identity.Provider,
	policy domain.Policy,
	audit *audit.Dispatcher,
	pub events.Publisher,
) *Book {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Book{
		repo:     repo,
		identity: ids,
		policy:   policy,
		audit:    audit,
		events:   pub,
		now:      time.Now,
	}
}

func (uc *Book) WithClock(now func() time.Time) *Book {
	uc.now = now
	return uc
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *Book) Execute(
	ctx context.Context,
	in BookInput,
) (*BookedAppointment, error) {

	// --------------------------------------------------
	// 1️⃣ Identity
	// --------------------------------------------------
	who, ok := uc.identity.CurrentUser(ctx)
	if !ok {
		return nil, httperr.Authentication("not_authenticated")
	}

	// --------------------------------------------------
	// 2️⃣ Destination
	// --------------------------------------------------
	if err := in.Provider.Validate(); err != nil {
		return nil, err
	}

	if err := validators.Struct(in); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3️⃣ Service
	// --------------------------------------------------
	service, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.NotFoundErr("service_not_found")
		}
		return nil, httperr.TransientStore("booking_failed", err)
	}
	if !offeredBy(service, in.Provider) {
		return nil, httperr.NotFoundErr("service_not_found")
	}
	duration := serviceDuration(service)

	// --------------------------------------------------
	// 4️⃣ Provider day
	// --------------------------------------------------
	settings, err := loadSettings(ctx, uc.repo, in.Provider)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return nil, err
		}
		return nil, httperr.TransientStore("booking_failed", err)
	}

	slot := in.Slot.In(settings.Location)
	w := settings.WindowFor(slot)
	if !w.OnGrid(slot) {
		return nil, httperr.Validation("slot_off_grid")
	}
	dayStart, dayEnd := domain.DayBounds(w.Date)

	// --------------------------------------------------
	// 5️⃣ Re-check + insert under the provider lock
	// --------------------------------------------------
	ap := &models.Appointment{
		ShopID:    in.Provider.ShopID,
		BarberID:  in.Provider.BarberID,
		ClientID:  who.UserID,
		ServiceID: service.ID,
		StartTime: slot,
		Status:    string(domain.InitialStatus()),
	}

	guard := func(scheduled []models.Appointment) error {
		res := uc.policy.Classify(slot, duration, domain.BusyIntervals(scheduled), uc.now(), w)
		if !res.Available {
			return httperr.Conflict("slot_unavailable")
		}
		return nil
	}

	if err := uc.repo.CreateGuarded(ctx, ap, dayStart, dayEnd, guard); err != nil {
		var be httperr.BusinessError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, httperr.TransientStore("booking_failed", err)
	}

	ap.Service = service
	end := domain.DeriveEnd(slot, duration)

	// --------------------------------------------------
	// 6️⃣ Audit + event
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		ShopID:   ap.ShopID,
		UserID:   &who.UserID,
		Action:   "appointment_booked",
		Entity:   "appointment",
		EntityID: strconv.FormatUint(uint64(ap.ID), 10),
		Metadata: map[string]any{"provider": in.Provider.Key(), "start_time": slot},
	})

	uc.events.Publish(events.New(events.AppointmentBooked, map[string]any{
		"appointment_id": ap.ID,
		"provider":       in.Provider.Key(),
		"client_id":      who.UserID,
		"service_id":     service.ID,
		"start_time":     slot,
		"end_time":       end,
	}))

	return &BookedAppointment{
		Appointment: *ap,
		EndTime:     end,
		CalendarURL: domain.CalendarURL(service.Name, slot, end),
	}, nil
}
