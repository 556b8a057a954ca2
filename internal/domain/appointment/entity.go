package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Apply moves ap to target, stamping the matching timestamp.
func Apply(ap *models.Appointment, target Status, now time.Time) error {
	if err := CanTransition(Status(ap.Status), target); err != nil {
		return err
	}

	ap.Status = string(target)
	switch target {
	case StatusCompleted:
		ap.CompletedAt = &now
	case StatusCancelled:
		ap.CancelledAt = &now
	}
	return nil
}

func DurationOf(ap models.Appointment) int {
	if ap.Service == nil || ap.Service.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return ap.Service.DurationMinutes
}

// BusyInterval is the range a scheduled appointment occupies, derived from
// its joined service at read time.
func BusyInterval(ap models.Appointment) Interval {
	return Interval{Start: ap.StartTime, End: DeriveEnd(ap.StartTime, DurationOf(ap))}
}

func BusyIntervals(aps []models.Appointment) []Interval {
	out := make([]Interval, 0, len(aps))
	for _, ap := range aps {
		if Status(ap.Status) != StatusScheduled {
			continue
		}
		out = append(out, BusyInterval(ap))
	}
	return out
}
