package appointment

import (
	"iter"
	"time"
)

const (
	DefaultStartHour      = 9
	DefaultEndHour        = 18
	DefaultCadenceMinutes = 30
)

// Window is one provider's operating day. Date supplies the calendar day and
// the location; its clock part is ignored.
type Window struct {
	Date           time.Time
	StartHour      int
	EndHour        int
	CadenceMinutes int
}

func DefaultWindow(date time.Time) Window {
	return Window{
		Date:           date,
		StartHour:      DefaultStartHour,
		EndHour:        DefaultEndHour,
		CadenceMinutes: DefaultCadenceMinutes,
	}
}

func (w Window) Start() time.Time {
	return time.Date(w.Date.Year(), w.Date.Month(), w.Date.Day(), w.StartHour, 0, 0, 0, w.Date.Location())
}

func (w Window) End() time.Time {
	return time.Date(w.Date.Year(), w.Date.Month(), w.Date.Day(), w.EndHour, 0, 0, 0, w.Date.Location())
}

func (w Window) valid() bool {
	return w.CadenceMinutes > 0 && w.EndHour > w.StartHour
}

// Slots yields candidate starts from the opening hour up to and including the
// closing instant. Every call to the returned sequence starts over.
func (w Window) Slots() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !w.valid() {
			return
		}
		step := time.Duration(w.CadenceMinutes) * time.Minute
		end := w.End()
		for t := w.Start(); !t.After(end); t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}
}

// OnGrid reports whether t is one of the slots this window generates.
func (w Window) OnGrid(t time.Time) bool {
	if !w.valid() {
		return false
	}
	start := w.Start()
	if t.Before(start) || t.After(w.End()) {
		return false
	}
	return t.Sub(start)%(time.Duration(w.CadenceMinutes)*time.Minute) == 0
}

// DayBounds returns the provider-local calendar day containing date.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
