package realtime

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// Client -> server
const (
	TypeResolveSlots     = "resolve_slots"
	TypeWatchSchedule    = "watch_schedule"
	TypeWatchBreakStatus = "watch_break_status"
	TypeWatchBreakQueue  = "watch_break_queue"
	TypeUnwatch          = "unwatch"
	TypePing             = "ping"
)

// Server -> client
const (
	TypeSlots       = "slots"
	TypeSchedule    = "schedule"
	TypeBreakStatus = "break_status"
	TypeBreakQueue  = "break_queue"
	TypeError       = "error"
	TypePong        = "pong"
)

type Inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type Outbound struct {
	Type      string             `json:"type"`
	RequestID string             `json:"request_id,omitempty"`
	Data      any                `json:"data,omitempty"`
	Error     *httperr.HTTPError `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type resolveSlotsData struct {
	ShopID          *uint  `json:"shop_id"`
	BarberID        *uint  `json:"barber_id"`
	ServiceID       uint   `json:"service_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
}

type watchScheduleData struct {
	Date string `json:"date"`
}

type watchBreakStatusData struct {
	BarberID uint `json:"barber_id"`
}

type unwatchData struct {
	Topic string `json:"topic"`
}

// errorPayload renders err the way the HTTP API does.
func errorPayload(err error) *httperr.HTTPError {
	var be httperr.BusinessError
	if errors.As(err, &be) {
		return &httperr.HTTPError{Code: be.Code, Message: httperr.Message(be.Code)}
	}
	return &httperr.HTTPError{Code: "internal_error", Message: "Unexpected error."}
}
