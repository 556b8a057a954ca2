package audit

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type memWriter struct {
	mu     sync.Mutex
	events []Event
	fail   error
}

func (w *memWriter) Write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.events = append(w.events, ev)
	return nil
}

func TestDispatcherWritesInOrder(t *testing.T) {
	w := &memWriter{}
	d := NewDispatcher(w, zap.NewNop())

	for _, action := range []string{"appointment_booked", "appointment_cancelled"} {
		d.Dispatch(Event{Action: action, Entity: "appointment"})
	}
	d.Close()

	if len(w.events) != 2 || w.events[0].Action != "appointment_booked" || w.events[1].Action != "appointment_cancelled" {
		t.Fatalf("events = %+v", w.events)
	}
}

func TestDispatcherSurvivesWriteErrors(t *testing.T) {
	w := &memWriter{fail: errors.New("db down")}
	d := NewDispatcher(w, zap.NewNop())
	d.Dispatch(Event{Action: "break_requested"})
	d.Close()
	d.Close()
}

func TestNilDispatcher(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(Event{Action: "ignored"})
	d.Close()
}
