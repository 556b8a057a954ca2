package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

type ListMonth struct {
	repo domain.Repository
}

func NewListMonth(
	repo domain.Repository,
) *ListMonth {
	return &ListMonth{
		repo: repo,
	}
}

func (uc *ListMonth) Execute(
	ctx context.Context,
	provider domain.ProviderRef,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	if month < 1 || month > 12 {
		return nil, httperr.Validation("invalid_date")
	}

	settings, err := loadSettings(ctx, uc.repo, provider)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return nil, err
		}
		return nil, httperr.TransientStore("schedule_unavailable", err)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, settings.Location)
	end := start.AddDate(0, 1, 0)

	appointments, err := uc.repo.ListForPeriod(ctx, provider, start, end)
	if err != nil {
		return nil, httperr.TransientStore("schedule_unavailable", err)
	}

	return dto.FromAppointments(appointments), nil
}
