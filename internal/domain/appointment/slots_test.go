package appointment

import (
	"testing"
	"time"
)

func collect(w Window) []time.Time {
	var out []time.Time
	for s := range w.Slots() {
		out = append(out, s)
	}
	return out
}

func TestWindowSlotsDefault(t *testing.T) {
	w := DefaultWindow(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	slots := collect(w)

	// 09:00 through 18:00 inclusive at 30 minutes
	if len(slots) != 19 {
		t.Fatalf("got %d slots, want 19", len(slots))
	}
	if !slots[0].Equal(at(9, 0)) {
		t.Fatalf("first slot = %v, want 09:00", slots[0])
	}
	if !slots[len(slots)-1].Equal(at(18, 0)) {
		t.Fatalf("last slot = %v, want 18:00", slots[len(slots)-1])
	}
}

func TestWindowSlotsOnGridAndInside(t *testing.T) {
	for _, cadence := range []int{7, 15, 20, 30, 45, 60, 90} {
		w := Window{Date: at(0, 0), StartHour: 8, EndHour: 17, CadenceMinutes: cadence}
		for s := range w.Slots() {
			if s.Before(w.Start()) || s.After(w.End()) {
				t.Fatalf("cadence %d: slot %v outside window", cadence, s)
			}
			if int(s.Sub(w.Start()).Minutes())%cadence != 0 {
				t.Fatalf("cadence %d: slot %v off grid", cadence, s)
			}
			if !w.OnGrid(s) {
				t.Fatalf("cadence %d: OnGrid(%v) = false", cadence, s)
			}
		}
	}
}

func TestWindowSlotsRestartable(t *testing.T) {
	w := DefaultWindow(at(0, 0))
	first := collect(w)
	second := collect(w)
	if len(first) != len(second) {
		t.Fatalf("second pass yielded %d slots, first %d", len(second), len(first))
	}

	// early stop must not disturb later passes
	for range w.Slots() {
		break
	}
	if len(collect(w)) != len(first) {
		t.Fatal("sequence changed after early stop")
	}
}

func TestWindowSlotsEmpty(t *testing.T) {
	tests := []struct {
		name string
		w    Window
	}{
		{"zero cadence", Window{Date: at(0, 0), StartHour: 9, EndHour: 18}},
		{"negative cadence", Window{Date: at(0, 0), StartHour: 9, EndHour: 18, CadenceMinutes: -30}},
		{"end before start", Window{Date: at(0, 0), StartHour: 18, EndHour: 9, CadenceMinutes: 30}},
		{"end equals start", Window{Date: at(0, 0), StartHour: 9, EndHour: 9, CadenceMinutes: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := len(collect(tt.w)); n != 0 {
				t.Fatalf("got %d slots, want 0", n)
			}
		})
	}
}

func TestWindowOnGrid(t *testing.T) {
	w := DefaultWindow(at(0, 0))
	tests := []struct {
		t    time.Time
		want bool
	}{
		{at(9, 0), true},
		{at(9, 30), true},
		{at(18, 0), true},
		{at(9, 15), false},
		{at(8, 30), false},
		{at(18, 30), false},
		{time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if got := w.OnGrid(tt.t); got != tt.want {
			t.Errorf("OnGrid(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	start, end := DayBounds(time.Date(2024, 6, 10, 22, 15, 0, 0, loc))
	if !start.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, loc)) {
		t.Fatalf("start = %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("day length = %v", end.Sub(start))
	}
}
