package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/breaks"
)

type BreakHandler struct {
	breaks *breaks.Coordinator
}

func NewBreakHandler(c *breaks.Coordinator) *BreakHandler {
	return &BreakHandler{breaks: c}
}

type RequestBreakRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

type SetBusyRequest struct {
	Busy bool `json:"busy"`
}

// --------------------------------------------------
// Barber
// --------------------------------------------------

func (h *BreakHandler) Request(c *gin.Context) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return
	}

	var req RequestBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_duration"))
		return
	}

	request, status, err := h.breaks.RequestBreak(c.Request.Context(), who, req.DurationMinutes)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  status,
		"request": request,
	})
}

func (h *BreakHandler) Cancel(c *gin.Context) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return
	}

	if err := h.breaks.CancelOwnRequest(c.Request.Context(), who.UserID); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BreakHandler) End(c *gin.Context) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return
	}

	if err := h.breaks.EndBreak(c.Request.Context(), who.UserID); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BreakHandler) Status(c *gin.Context) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return
	}

	state, err := h.breaks.State(c.Request.Context(), who.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, state)
}

// --------------------------------------------------
// POS
// --------------------------------------------------

// approver is the acting owner; break queues are per shop.
func approver(c *gin.Context) (identity.Identity, bool) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return identity.Identity{}, false
	}
	if who.ShopID == nil {
		httperr.Respond(c, httperr.Forbidden("forbidden"))
		return identity.Identity{}, false
	}
	return who, true
}

func (h *BreakHandler) List(c *gin.Context) {
	who, ok := approver(c)
	if !ok {
		return
	}

	reqs, err := h.breaks.ActiveRequests(c.Request.Context(), *who.ShopID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, reqs)
}

func (h *BreakHandler) Approve(c *gin.Context) {
	who, ok := approver(c)
	if !ok {
		return
	}

	req, err := h.breaks.Approve(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, req)
}

func (h *BreakHandler) Deny(c *gin.Context) {
	who, ok := approver(c)
	if !ok {
		return
	}

	req, err := h.breaks.Deny(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, req)
}

func (h *BreakHandler) Acknowledge(c *gin.Context) {
	who, ok := approver(c)
	if !ok {
		return
	}

	if err := h.breaks.Acknowledge(c.Request.Context(), who, c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BreakHandler) SetBusy(c *gin.Context) {
	who, ok := approver(c)
	if !ok {
		return
	}

	barberID, err := idParam(c, "id")
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req SetBusyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}

	status, err := h.breaks.SetBusy(c.Request.Context(), who, barberID, req.Busy)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, gin.H{"barber_id": barberID, "status": status})
}
