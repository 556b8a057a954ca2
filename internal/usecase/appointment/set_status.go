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
)

type SetStatus struct {
	repo     domain.Repository
	identity identity.Provider
	audit    *audit.Dispatcher
	events   events.Publisher
	now      func() time.Time
}

func NewSetStatus(
	repo domain.Repository,
	ids identity.Provider,
	audit *audit.Dispatcher,
	pub events.Publisher,
) *SetStatus {
	if pub == nil {
		pub = events.Noop{}
	}
	return &SetStatus{
		repo:     repo,
		identity: ids,
		audit:    audit,
		events:   pub,
		now:      time.Now,
	}
}

// Execute moves a scheduled appointment to completed or cancelled. Resolved
// appointments are never changed.
func (uc *SetStatus) Execute(
	ctx context.Context,
	appointmentID uint,
	status string,
) (*models.Appointment, error) {

	target, err := domain.ParseTarget(status)
	if err != nil {
		return nil, err
	}

	who, ok := uc.identity.CurrentUser(ctx)
	if !ok {
		return nil, httperr.Authentication("not_authenticated")
	}

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.NotFoundErr("appointment_not_found")
		}
		return nil, httperr.TransientStore("update_failed", err)
	}

	if !owns(who, ap) {
		return nil, httperr.Forbidden("forbidden")
	}

	current := domain.Status(ap.Status)
	if err := domain.Apply(ap, target, uc.now()); err != nil {
		return nil, err
	}

	if err := uc.repo.TransitionStatus(ctx, ap, current); err != nil {
		if errors.Is(err, domain.ErrNotChanged) {
			return nil, uc.lostRace(ctx, appointmentID)
		}
		return nil, httperr.TransientStore("update_failed", err)
	}

	uc.audit.Dispatch(audit.Event{
		ShopID:   ap.ShopID,
		UserID:   &who.UserID,
		Action:   "appointment_" + string(target),
		Entity:   "appointment",
		EntityID: strconv.FormatUint(uint64(ap.ID), 10),
	})

	eventType := events.AppointmentCompleted
	if target == domain.StatusCancelled {
		eventType = events.AppointmentCancelled
	}
	uc.events.Publish(events.New(eventType, map[string]any{
		"appointment_id": ap.ID,
		"actor_id":       who.UserID,
		"start_time":     ap.StartTime,
	}))

	return ap, nil
}

// lostRace explains a failed conditional update by re-reading the row.
func (uc *SetStatus) lostRace(ctx context.Context, id uint) error {
	if _, err := uc.repo.GetAppointment(ctx, id); errors.Is(err, domain.ErrNotFound) {
		return httperr.NotFoundErr("appointment_not_found")
	}
	return httperr.Conflict("already_resolved")
}
