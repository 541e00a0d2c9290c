// Package reminder raises a heads-up shortly before each cached event
// starts. The already-notified set is persisted in the local store, so
// restarting the process cannot re-alert for the same event.
package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/engine"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/store"
)

// NotifyFunc delivers one reminder to the user.
type NotifyFunc func(event engine.Event)

// Scheduler polls the cached event list on a fixed interval and fires
// notify once per event whose start falls inside the lead window.
type Scheduler struct {
	store  store.Store
	window time.Duration
	notify NotifyFunc
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler builds a scheduler. window is how far before an event's
// start the reminder fires.
func NewScheduler(st store.Store, window time.Duration, notify NotifyFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:  st,
		window: window,
		notify: notify,
		logger: logger,
		now:    time.Now,
	}
}

// Run polls until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.check(ctx); err != nil {
				s.logger.Warn("reminder check failed", zap.Error(err))
			}
		}
	}
}

// check runs one poll: compare the clock against every cached event,
// fire for events inside the window, and persist the notified-set
// before returning so a crash between ticks cannot replay a reminder.
func (s *Scheduler) check(ctx context.Context) error {
	var events []engine.Event
	if _, err := s.store.Load(ctx, store.SlotEvents, &events); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	notified := make(map[string]bool)
	if _, err := s.store.Load(ctx, store.SlotReminders, &notified); err != nil {
		return err
	}

	now := s.now()
	fired := false
	for _, ev := range events {
		if notified[ev.EventID] {
			continue
		}
		if now.After(ev.StartAt) {
			// Started already: mark seen without alerting, otherwise a
			// cold start mid-event would alert for old events forever.
			notified[ev.EventID] = true
			fired = true
			continue
		}
		if ev.StartAt.Sub(now) > s.window {
			continue
		}

		s.logger.Info("event reminder",
			zap.String("event_id", ev.EventID),
			zap.Time("start_at", ev.StartAt))
		s.notify(ev)
		notified[ev.EventID] = true
		fired = true
	}

	if !fired {
		return nil
	}
	return s.store.Save(ctx, store.SlotReminders, notified)
}
