package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/realtime"
)

type WSHandler struct {
	hub *realtime.Hub
	svc realtime.Services
}

func NewWSHandler(hub *realtime.Hub, svc realtime.Services) *WSHandler {
	return &WSHandler{hub: hub, svc: svc}
}

// Serve upgrades to a surface connection. The request must have passed the
// auth middleware.
func (h *WSHandler) Serve(c *gin.Context) {
	who, ok := identity.FromContext(c.Request.Context())
	if !ok {
		httperr.Respond(c, httperr.Authentication("not_authenticated"))
		return
	}
	realtime.Serve(h.hub, h.svc, c.Writer, c.Request, who)
}
