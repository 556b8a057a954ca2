package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/feed"
)

// Tracker keeps a surface's day schedule converged with the store. Every
// change for the provider schedules a re-fetch; bursts inside the coalesce
// window share one re-fetch.
type Tracker struct {
	list     *ListDay
	hub      *feed.Hub
	coalesce time.Duration
	log      *zap.Logger
}

func NewTracker(list *ListDay, hub *feed.Hub, coalesce time.Duration, log *zap.Logger) *Tracker {
	return &Tracker{
		list:     list,
		hub:      hub,
		coalesce: coalesce,
		log:      log.With(zap.String("component", "schedule_tracker")),
	}
}

// Watch delivers the schedule once immediately and again after every change
// burst, until ctx is done.
func (t *Tracker) Watch(
	ctx context.Context,
	provider domain.ProviderRef,
	date time.Time,
	onUpdate func(*DaySchedule, error),
) {
	sub := t.hub.SubscribeProvider(provider.Key())
	defer sub.Close()

	refresh := func() {
		schedule, err := t.list.Execute(ctx, provider, date)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			t.log.Warn("schedule refresh failed",
				zap.String("provider", provider.Key()),
				zap.Error(err),
			)
		}
		onUpdate(schedule, err)
	}

	refresh()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-sub.C:
			if !ok {
				return
			}
			if t.coalesce <= 0 {
				refresh()
				continue
			}
			if fire == nil {
				timer = time.NewTimer(t.coalesce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			refresh()
		}
	}
}
