// Package events publishes domain events to RabbitMQ for downstream
// consumers (notifications, reporting). Publishing is best effort and never
// fails the request that produced the event.
package events

import "time"

const (
	AppointmentBooked    = "appointment.booked"
	AppointmentCompleted = "appointment.completed"
	AppointmentCancelled = "appointment.cancelled"
	BreakRequested       = "break.requested"
	BreakApproved        = "break.approved"
	BreakDenied          = "break.denied"
)

type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

func New(eventType string, data map[string]any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ev Event)
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	ch chan Event
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Event, size)}
}

func (r *Recorder) Publish(ev Event) {
	select {
	case r.ch <- ev:
	default:
	}
}

func (r *Recorder) Events() <-chan Event {
	return r.ch
}
