package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type ListServices struct {
	repo domain.Repository
}

func NewListServices(repo domain.Repository) *ListServices {
	return &ListServices{repo: repo}
}

func (uc *ListServices) Execute(
	ctx context.Context,
	provider domain.ProviderRef,
) ([]models.Service, error) {

	if err := provider.Validate(); err != nil {
		return nil, err
	}

	services, err := uc.repo.ListServices(ctx, provider)
	if err != nil {
		return nil, httperr.TransientStore("services_unavailable", err)
	}
	if services == nil {
		services = []models.Service{}
	}
	return services, nil
}
