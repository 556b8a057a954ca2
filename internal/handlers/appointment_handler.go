package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	book      *appointment.Book
	listDay   *appointment.ListDay
	listMonth *appointment.ListMonth
	setStatus *appointment.SetStatus
}

func NewAppointmentHandler(
	book *appointment.Book,
	listDay *appointment.ListDay,
	listMonth *appointment.ListMonth,
	setStatus *appointment.SetStatus,
) *AppointmentHandler {
	return &AppointmentHandler{
		book:      book,
		listDay:   listDay,
		listMonth: listMonth,
		setStatus: setStatus,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type BookRequest struct {
	ShopID    *uint  `json:"shop_id"`
	BarberID  *uint  `json:"barber_id"`
	ServiceID uint   `json:"service_id"`
	StartTime string `json:"start_time"` // RFC3339
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ======================================================
// BOOK
// ======================================================

func (h *AppointmentHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}

	var slot time.Time
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			httperr.Respond(c, httperr.Validation("slot_required"))
			return
		}
		slot = t
	}

	booked, err := h.book.Execute(c.Request.Context(), appointment.BookInput{
		Provider:  domain.ProviderRef{ShopID: req.ShopID, BarberID: req.BarberID},
		ServiceID: req.ServiceID,
		Slot:      slot,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, booked)
}

// ======================================================
// SCHEDULE
// ======================================================

func (h *AppointmentHandler) Day(c *gin.Context) {
	provider, err := callerProvider(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	date, err := parseDay(c.Query("date"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	schedule, err := h.listDay.Execute(c.Request.Context(), provider, date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, schedule)
}

func (h *AppointmentHandler) Month(c *gin.Context) {
	provider, err := callerProvider(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		httperr.Respond(c, httperr.Validation("invalid_date"))
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		httperr.Respond(c, httperr.Validation("invalid_date"))
		return
	}

	list, err := h.listMonth.Execute(c.Request.Context(), provider, year, month)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, list)
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_status"))
		return
	}

	ap, err := h.setStatus.Execute(c.Request.Context(), id, req.Status)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromAppointment(*ap))
}

// callerProvider is the calendar the signed-in barber or owner works on.
func callerProvider(c *gin.Context) (domain.ProviderRef, error) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		return domain.ProviderRef{}, httperr.Authentication("not_authenticated")
	}
	return appointment.ProviderFor(who)
}
