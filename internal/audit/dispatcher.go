package audit

import (
	"sync"

	"go.uber.org/zap"
)

type Event struct {
	ShopID   *uint
	UserID   *uint
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Writer persists one audit event.
type Writer interface {
	Write(ev Event) error
}

type Dispatcher struct {
	writer Writer
	log    *zap.Logger
	queue  chan Event

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewDispatcher(writer Writer, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		log:    log,
		queue:  make(chan Event, 100),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		if err := d.writer.Write(ev); err != nil {
			d.log.Warn("audit write failed",
				zap.String("action", ev.Action),
				zap.Error(err),
			)
		}
	}
}

// Dispatch never blocks the request path. A full queue drops the event.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close drains the queue and waits for the worker.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}
