package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

// ServiceHandler manages the catalogue of the caller's own calendar. The
// booking core only reads it.
type ServiceHandler struct {
	db *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name            string `json:"name" validate:"required" errcode:"name_required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1" errcode:"invalid_service_duration"`
	PriceCents      int64  `json:"price_cents" validate:"min=0" errcode:"invalid_price"`
}

type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	provider, err := callerProvider(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	activeStr := strings.TrimSpace(c.Query("active"))
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := whereProvider(h.db.WithContext(c.Request.Context()), provider)

	switch activeStr {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	if query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Respond(c, httperr.TransientStore("services_unavailable", err))
		return
	}

	httpresp.List(c, services)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	provider, err := callerProvider(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}
	if err := validators.Struct(req); err != nil {
		httperr.Respond(c, err)
		return
	}

	service := models.Service{
		ShopID:          provider.ShopID,
		BarberID:        provider.BarberID,
		Name:            strings.TrimSpace(req.Name),
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "Unable to create service.")
		return
	}

	c.JSON(http.StatusCreated, service)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	provider, err := callerProvider(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	id, err := idParam(c, "id")
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var service models.Service
	if err := whereProvider(h.db.WithContext(c.Request.Context()), provider).
		Where("id = ?", id).
		First(&service).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Respond(c, httperr.NotFoundErr("service_not_found"))
			return
		}
		httperr.Respond(c, httperr.TransientStore("services_unavailable", err))
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			httperr.Respond(c, httperr.Validation("invalid_service_duration"))
			return
		}
		service.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			httperr.Respond(c, httperr.Validation("invalid_price"))
			return
		}
		service.PriceCents = *req.PriceCents
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&service).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Unable to update service.")
		return
	}

	c.JSON(http.StatusOK, service)
}

func whereProvider(q *gorm.DB, p domain.ProviderRef) *gorm.DB {
	if p.BarberID != nil {
		return q.Where("barber_id = ?", *p.BarberID)
	}
	return q.Where("shop_id = ?", *p.ShopID)
}
