package breakstatus

import (
	"fmt"
	"time"
)

// ===============================
// Barber availability
// ===============================

type Status string

const (
	StatusAvailable      Status = "available"
	StatusBreakRequested Status = "break_requested"
	StatusOnBreak        Status = "on_break"
	StatusBusy           Status = "busy"
)

// State is the stored flag for one barber. It is a cache: the pending request
// key decides whether a break is being requested.
type State struct {
	BarberID    uint       `json:"barber_id"`
	Status      Status     `json:"status"`
	BreakEndsAt *time.Time `json:"break_ends_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Reconcile derives the effective status from the stored flag and the queue.
func Reconcile(stored Status, hasPending bool) Status {
	if hasPending {
		return StatusBreakRequested
	}
	switch stored {
	case StatusOnBreak, StatusBusy:
		return stored
	}
	return StatusAvailable
}

// ===============================
// Break request
// ===============================

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

type Request struct {
	ID              string        `json:"id"`
	BarberID        uint          `json:"barber_id"`
	BarberName      string        `json:"barber_name"`
	ShopID          *uint         `json:"shop_id,omitempty"`
	RequestedAt     time.Time     `json:"requested_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          RequestStatus `json:"status"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
}

func (r Request) Pending() bool {
	return r.Status == RequestPending
}

// InShop reports whether the request was raised by a barber of shopID.
func (r Request) InShop(shopID uint) bool {
	return r.ShopID != nil && *r.ShopID == shopID
}

// ===============================
// Keys
// ===============================

const (
	RequestPrefix = "break:request:"
	PendingPrefix = "break:pending:"
	StatusPrefix  = "barber_status:"
	ClaimPrefix   = "break:claim:"
)

func RequestKey(id string) string {
	return RequestPrefix + id
}

// PendingKey holds the id of the barber's pending request, if any. Setting it
// only when absent is what keeps one pending request per barber.
func PendingKey(barberID uint) string {
	return fmt.Sprintf("%s%d", PendingPrefix, barberID)
}

func StatusKey(barberID uint) string {
	return fmt.Sprintf("%s%d", StatusPrefix, barberID)
}

// ClaimKey is set by whoever resolves or withdraws request id first.
func ClaimKey(id string) string {
	return ClaimPrefix + id
}
