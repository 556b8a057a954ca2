package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

type DaySchedule struct {
	Date         string                   `json:"date"`
	Appointments []dto.AppointmentListDTO `json:"appointments"`

	// NextUp is the first scheduled appointment that has not started yet.
	NextUp           *dto.AppointmentListDTO `json:"next_up,omitempty"`
	MinutesUntilNext int                     `json:"minutes_until_next,omitempty"`
}

type ListDay struct {
	repo domain.Repository
	now  func() time.Time
}

func NewListDay(
	repo domain.Repository,
) *ListDay {
	return &ListDay{
		repo: repo,
		now:  time.Now,
	}
}

func (uc *ListDay) WithClock(now func() time.Time) *ListDay {
	uc.now = now
	return uc
}

// Execute lists every appointment of the provider-local calendar day of date,
// ordered by start. A zero date means today. On store failure the schedule is
// empty and the error is a TransientStore one.
func (uc *ListDay) Execute(
	ctx context.Context,
	provider domain.ProviderRef,
	date time.Time,
) (*DaySchedule, error) {

	empty := &DaySchedule{Appointments: []dto.AppointmentListDTO{}}

	if err := provider.Validate(); err != nil {
		return empty, err
	}

	settings, err := loadSettings(ctx, uc.repo, provider)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return empty, err
		}
		return empty, httperr.TransientStore("schedule_unavailable", err)
	}

	now := uc.now()
	if date.IsZero() {
		date = settings.Today(now)
	}

	day := settings.WindowFor(date).Date
	start, end := domain.DayBounds(day)
	empty.Date = day.Format("2006-01-02")

	appointments, err := uc.repo.ListForPeriod(ctx, provider, start, end)
	if err != nil {
		return empty, httperr.TransientStore("schedule_unavailable", err)
	}

	out := &DaySchedule{
		Date:         empty.Date,
		Appointments: dto.FromAppointments(appointments),
	}

	for i := range out.Appointments {
		ap := out.Appointments[i]
		if ap.Status != string(domain.StatusScheduled) || ap.StartTime.Before(now) {
			continue
		}
		out.NextUp = &ap
		out.MinutesUntilNext = int(ap.StartTime.Sub(now).Minutes())
		break
	}

	return out, nil
}
