package appointment

import "time"

// DefaultDurationMinutes is used when an appointment's service cannot be
// joined. Degraded data still blocks its slot instead of freeing it.
const DefaultDurationMinutes = 30

// Interval is a half-open [Start, End) range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share any instant. Touching endpoints do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func DeriveEnd(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

func OverlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(slot, b) {
			return true
		}
	}
	return false
}
