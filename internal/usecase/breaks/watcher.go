package breaks

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/breakstatus"
	"github.com/BruksfildServices01/barber-booking/internal/infra/broadcast"
)

const DefaultPollInterval = time.Second

// Watcher drives one refresh from two triggers: channel notifications and a
// fixed poll. Notifications can be lost, the poll bounds how stale a reader
// gets.
type Watcher struct {
	ch       broadcast.Channel
	interval time.Duration
}

func NewWatcher(ch broadcast.Channel, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{ch: ch, interval: interval}
}

// Run calls refresh once, then on every matching notification and every
// tick, until ctx is done. A nil match accepts every key.
func (w *Watcher) Run(ctx context.Context, match func(key string) bool, refresh func(ctx context.Context)) {
	notify := make(chan struct{}, 1)
	unsubscribe := w.ch.OnAnyWrite(func(key string) {
		if match != nil && !match(key) {
			return
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		refresh(ctx)
	}
}

// WatchState emits the barber's reconciled state whenever it changes. Errors
// are emitted once per failure streak.
func (w *Watcher) WatchState(
	ctx context.Context,
	c *Coordinator,
	barberID uint,
	emit func(breakstatus.State, error),
) {
	statusKey := breakstatus.StatusKey(barberID)
	pendingKey := breakstatus.PendingKey(barberID)
	match := func(key string) bool {
		return key == statusKey || key == pendingKey
	}

	var (
		last    breakstatus.State
		sent    bool
		failing bool
	)
	w.Run(ctx, match, func(ctx context.Context) {
		state, err := c.State(ctx, barberID)
		if err != nil {
			if !failing {
				failing = true
				emit(breakstatus.State{}, err)
			}
			return
		}
		failing = false
		if sent && sameState(last, state) {
			return
		}
		last, sent = state, true
		emit(state, nil)
	})
}

// WatchQueue emits the shop's request list whenever it changes.
func (w *Watcher) WatchQueue(
	ctx context.Context,
	c *Coordinator,
	shopID uint,
	emit func([]breakstatus.Request, error),
) {
	match := func(key string) bool {
		return strings.HasPrefix(key, breakstatus.RequestPrefix) ||
			strings.HasPrefix(key, breakstatus.PendingPrefix)
	}

	var (
		last    []breakstatus.Request
		sent    bool
		failing bool
	)
	w.Run(ctx, match, func(ctx context.Context) {
		reqs, err := c.ActiveRequests(ctx, shopID)
		if err != nil {
			if !failing {
				failing = true
				emit(nil, err)
			}
			return
		}
		failing = false
		if sent && slices.EqualFunc(last, reqs, sameRequest) {
			return
		}
		last, sent = reqs, true
		emit(reqs, nil)
	})
}

func sameState(a, b breakstatus.State) bool {
	if a.Status != b.Status {
		return false
	}
	if (a.BreakEndsAt == nil) != (b.BreakEndsAt == nil) {
		return false
	}
	return a.BreakEndsAt == nil || a.BreakEndsAt.Equal(*b.BreakEndsAt)
}

func sameRequest(a, b breakstatus.Request) bool {
	return a.ID == b.ID && a.Status == b.Status
}
