package appointment

import "time"

type BlockReason string

const (
	ReasonNone         BlockReason = ""
	ReasonBooked       BlockReason = "booked"
	ReasonPast         BlockReason = "past"
	ReasonAfterClosing BlockReason = "after_closing"
)

type AvailabilityInput struct {
	Provider        ProviderRef
	ServiceID       uint
	DurationMinutes int
	Date            time.Time
}

type SlotAvailability struct {
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	Available bool        `json:"available"`
	Reason    BlockReason `json:"reason,omitempty"`
}

// Policy holds the rules shared by slot resolution and the booking re-check.
type Policy struct {
	// AllowOverrun keeps slots whose service would run past closing bookable.
	AllowOverrun bool
}

// Classify decides whether a slot of durationMinutes starting at start can be
// booked given the busy intervals, the current instant and the window.
func (p Policy) Classify(start time.Time, durationMinutes int, busy []Interval, now time.Time, w Window) SlotAvailability {
	slot := Interval{Start: start, End: DeriveEnd(start, durationMinutes)}
	out := SlotAvailability{Start: slot.Start, End: slot.End}

	switch {
	case start.Before(now):
		out.Reason = ReasonPast
	case OverlapsAny(slot, busy):
		out.Reason = ReasonBooked
	case !p.AllowOverrun && slot.End.After(w.End()):
		out.Reason = ReasonAfterClosing
	default:
		out.Available = true
	}
	return out
}
