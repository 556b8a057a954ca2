package appointment

import (
	"context"
	"errors"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

type ResolveSlots struct {
	repo   domain.Repository
	policy domain.Policy
	now    func() time.Time
}

func NewResolveSlots(
	repo domain.Repository,
	policy domain.Policy,
) *ResolveSlots {
	return &ResolveSlots{
		repo:   repo,
		policy: policy,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for the past-time rule.
func (uc *ResolveSlots) WithClock(now func() time.Time) *ResolveSlots {
	uc.now = now
	return uc
}

// Execute tags every candidate slot of in.Date as available or blocked. Any
// store failure yields no slots at all.
func (uc *ResolveSlots) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.SlotAvailability, error) {

	if err := in.Provider.Validate(); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Duration (explicit, or from the service)
	// --------------------------------------------------
	duration := in.DurationMinutes
	if duration <= 0 {
		if in.ServiceID == 0 {
			return nil, httperr.Validation("service_required")
		}
		service, err := uc.repo.GetService(ctx, in.ServiceID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, httperr.NotFoundErr("service_not_found")
			}
			return nil, httperr.TransientStore("availability_unavailable", err)
		}
		if !offeredBy(service, in.Provider) {
			return nil, httperr.NotFoundErr("service_not_found")
		}
		duration = serviceDuration(service)
	}

	// --------------------------------------------------
	// Provider day
	// --------------------------------------------------
	settings, err := loadSettings(ctx, uc.repo, in.Provider)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return nil, err
		}
		return nil, httperr.TransientStore("availability_unavailable", err)
	}

	w := settings.WindowFor(in.Date)
	dayStart, dayEnd := domain.DayBounds(w.Date)

	scheduled, err := uc.repo.ListScheduled(ctx, in.Provider, dayStart, dayEnd)
	if err != nil {
		return nil, httperr.TransientStore("availability_unavailable", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Classification
	// --------------------------------------------------
	busy := domain.BusyIntervals(scheduled)
	now := uc.now()

	out := make([]domain.SlotAvailability, 0, 24)
	for start := range w.Slots() {
		out = append(out, uc.policy.Classify(start, duration, busy, now, w))
	}

	return out, nil
}
