package appointment

import "github.com/BruksfildServices01/barber-booking/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseTarget accepts only the statuses an actor may move an appointment to.
func ParseTarget(s string) (Status, error) {
	switch Status(s) {
	case StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", httperr.Validation("invalid_status")
}

// CanTransition allows scheduled -> completed and scheduled -> cancelled only.
func CanTransition(current, target Status) error {
	if current != StatusScheduled {
		return httperr.Conflict("already_resolved")
	}
	if !target.Terminal() {
		return httperr.Validation("invalid_status")
	}
	return nil
}

func InitialStatus() Status {
	return StatusScheduled
}
