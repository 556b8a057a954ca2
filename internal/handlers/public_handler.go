package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type PublicHandler struct {
	services *appointment.ListServices
	resolve  *appointment.ResolveSlots
}

func NewPublicHandler(
	services *appointment.ListServices,
	resolve *appointment.ResolveSlots,
) *PublicHandler {
	return &PublicHandler{
		services: services,
		resolve:  resolve,
	}
}

// ======================================================
// SERVICES
// ======================================================

func (h *PublicHandler) ListServices(c *gin.Context) {
	provider, err := providerFromQuery(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	services, err := h.services.Execute(c.Request.Context(), provider)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, services)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) Availability(c *gin.Context) {
	provider, err := providerFromQuery(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	date, err := parseDay(c.Query("date"))
	if err != nil || date.IsZero() {
		httperr.Respond(c, httperr.Validation("invalid_date"))
		return
	}

	var serviceID uint
	if s := c.Query("service_id"); s != "" {
		if serviceID, err = parseID(s); err != nil {
			httperr.Respond(c, err)
			return
		}
	}

	slots, err := h.resolve.Execute(c.Request.Context(), domain.AvailabilityInput{
		Provider:  provider,
		ServiceID: serviceID,
		Date:      date,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format(dateLayout),
		"slots": slots,
	})
}
