package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// BarbershopHandler edits the settings the slot generator reads: opening
// hours, slot length and timezone.
type BarbershopHandler struct {
	db *gorm.DB
}

func NewBarbershopHandler(db *gorm.DB) *BarbershopHandler {
	return &BarbershopHandler{db: db}
}

type UpdateBarbershopConfigRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Timezone    *string `json:"timezone"`
	OpenHour    *int    `json:"open_hour"`
	CloseHour   *int    `json:"close_hour"`
	SlotMinutes *int    `json:"slot_minutes"`
}

func (h *BarbershopHandler) GetMeBarbershop(c *gin.Context) {
	shop, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *BarbershopHandler) UpdateMeBarbershop(c *gin.Context) {
	shop, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateBarbershopConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}

	if err := applyShopConfig(shop, req); err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(shop).Error; err != nil {
		httperr.Internal(c, "failed_to_update_barbershop", "Unable to save barbershop settings.")
		return
	}

	c.JSON(http.StatusOK, shop)
}

func (h *BarbershopHandler) load(c *gin.Context) (*models.Barbershop, bool) {
	shopID, ok := c.Get(middleware.ContextBarbershopID)
	if !ok {
		httperr.Respond(c, httperr.NotFoundErr("provider_not_found"))
		return nil, false
	}

	var shop models.Barbershop
	if err := h.db.WithContext(c.Request.Context()).First(&shop, shopID.(uint)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Respond(c, httperr.NotFoundErr("provider_not_found"))
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_barbershop", "Unable to load barbershop.")
		return nil, false
	}
	return &shop, true
}

// applyShopConfig validates the merged result, so a partial update cannot
// leave an empty window behind.
func applyShopConfig(shop *models.Barbershop, req UpdateBarbershopConfigRequest) error {
	next := *shop

	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.Phone != nil {
		next.Phone = *req.Phone
	}
	if req.Address != nil {
		next.Address = *req.Address
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			return httperr.Validation("invalid_timezone")
		}
		next.Timezone = *req.Timezone
	}
	if req.OpenHour != nil {
		next.OpenHour = *req.OpenHour
	}
	if req.CloseHour != nil {
		next.CloseHour = *req.CloseHour
	}
	if req.SlotMinutes != nil {
		next.SlotMinutes = *req.SlotMinutes
	}

	if next.OpenHour < 0 || next.CloseHour > 24 || next.CloseHour <= next.OpenHour || next.SlotMinutes <= 0 {
		return httperr.Validation("invalid_window")
	}

	*shop = next
	return nil
}
