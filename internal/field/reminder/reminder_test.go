package reminder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/engine"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/store"
)

type memStore struct {
	slots map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.slots[key] = raw
	return nil
}

func (s *memStore) Load(_ context.Context, key string, out interface{}) (bool, error) {
	raw, ok := s.slots[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.slots, key)
	return nil
}

func (s *memStore) Close() error { return nil }

type reminderFixture struct {
	scheduler *Scheduler
	store     *memStore
	fired     []string
	clock     time.Time
}

func newReminderFixture(t *testing.T, window time.Duration) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		store: newMemStore(),
		clock: time.Date(2026, 3, 29, 16, 0, 0, 0, time.UTC),
	}
	f.scheduler = NewScheduler(f.store, window, func(ev engine.Event) {
		f.fired = append(f.fired, ev.EventID)
	}, zap.NewNop())
	f.scheduler.now = func() time.Time { return f.clock }
	return f
}

func (f *reminderFixture) cacheEvents(t *testing.T, events ...engine.Event) {
	t.Helper()
	if err := f.store.Save(context.Background(), store.SlotEvents, events); err != nil {
		t.Fatalf("seed events: %v", err)
	}
}

func TestScheduler_FiresInsideWindow(t *testing.T) {
	f := newReminderFixture(t, time.Hour)
	f.cacheEvents(t,
		engine.Event{EventID: "event-001", Name: "Ensayo", StartAt: f.clock.Add(30 * time.Minute)},
		engine.Event{EventID: "event-002", Name: "Salida", StartAt: f.clock.Add(3 * time.Hour)},
	)

	if err := f.scheduler.check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(f.fired) != 1 || f.fired[0] != "event-001" {
		t.Errorf("expected only the imminent event, got %v", f.fired)
	}
}

func TestScheduler_FiresOncePerEvent(t *testing.T) {
	f := newReminderFixture(t, time.Hour)
	f.cacheEvents(t, engine.Event{EventID: "event-001", StartAt: f.clock.Add(30 * time.Minute)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.scheduler.check(ctx); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if len(f.fired) != 1 {
		t.Errorf("expected exactly one reminder, got %d", len(f.fired))
	}
}

func TestScheduler_NotifiedSetSurvivesRestart(t *testing.T) {
	f := newReminderFixture(t, time.Hour)
	f.cacheEvents(t, engine.Event{EventID: "event-001", StartAt: f.clock.Add(30 * time.Minute)})
	ctx := context.Background()

	if err := f.scheduler.check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(f.fired) != 1 {
		t.Fatalf("expected one reminder before restart, got %d", len(f.fired))
	}

	// New scheduler over the same store stands in for a process restart.
	var refired []string
	restarted := NewScheduler(f.store, time.Hour, func(ev engine.Event) {
		refired = append(refired, ev.EventID)
	}, zap.NewNop())
	restarted.now = f.scheduler.now

	if err := restarted.check(ctx); err != nil {
		t.Fatalf("check after restart: %v", err)
	}
	if len(refired) != 0 {
		t.Errorf("restart must not re-alert, got %v", refired)
	}
}

func TestScheduler_StartedEventsMarkedWithoutAlert(t *testing.T) {
	f := newReminderFixture(t, time.Hour)
	f.cacheEvents(t, engine.Event{EventID: "event-001", StartAt: f.clock.Add(-2 * time.Hour)})

	if err := f.scheduler.check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(f.fired) != 0 {
		t.Errorf("expected no alert for a started event, got %v", f.fired)
	}

	var notified map[string]bool
	if _, err := f.store.Load(context.Background(), store.SlotReminders, &notified); err != nil {
		t.Fatalf("load notified set: %v", err)
	}
	if !notified["event-001"] {
		t.Error("expected started event recorded as seen")
	}
}

func TestScheduler_EmptyCacheIsNoop(t *testing.T) {
	f := newReminderFixture(t, time.Hour)

	if err := f.scheduler.check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(f.fired) != 0 {
		t.Errorf("expected nothing fired, got %v", f.fired)
	}
}
