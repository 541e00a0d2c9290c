// Package queue manages the field device's pending-mutation queue:
// writes captured while offline, replayed against the relation gateway
// on reconnect. The queue accepts only the idempotent upsert kind;
// drain is all-or-nothing, so a partially failed drain re-executes
// every entry on the next attempt and correctness relies on the
// entries being replay-safe.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/gateway"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/store"
)

// KindUpsert is the only mutation kind the queue accepts.
const KindUpsert = "upsert"

// ErrUnsupportedKind rejects mutation kinds that are not safe to
// replay.
var ErrUnsupportedKind = errors.New("queue: only idempotent upsert mutations may be queued")

// Mutation is one pending write. NaturalKey identifies the target
// entity within its relation (for attendance, "eventID:memberID");
// a later enqueue for the same (relation, natural key, kind) replaces
// the earlier payload instead of appending.
type Mutation struct {
	Relation    string                 `json:"relation"`
	Kind        string                 `json:"kind"`
	NaturalKey  string                 `json:"natural_key"`
	Payload     map[string]interface{} `json:"payload"`
	ConflictKey []string               `json:"conflict_key"`
	CapturedAt  time.Time              `json:"captured_at"`
}

// Manager owns the mutation queue slot in the local store.
type Manager struct {
	mu     sync.Mutex
	store  store.Store
	gw     gateway.Gateway
	logger *zap.Logger
	now    func() time.Time
}

// NewManager builds the queue manager.
func NewManager(st store.Store, gw gateway.Gateway, logger *zap.Logger) *Manager {
	return &Manager{store: st, gw: gw, logger: logger, now: time.Now}
}

func (m *Manager) load(ctx context.Context) ([]Mutation, error) {
	var queued []Mutation
	if _, err := m.store.Load(ctx, store.SlotQueue, &queued); err != nil {
		return nil, err
	}
	return queued, nil
}

// Enqueue captures a mutation and returns the resulting queue depth.
// An existing entry for the same (relation, natural key, kind) is
// overwritten in place, so the queue never holds two contradictory
// writes for one entity.
func (m *Manager) Enqueue(ctx context.Context, mut Mutation) (int, error) {
	if mut.Kind != KindUpsert {
		return 0, fmt.Errorf("%w (got %q)", ErrUnsupportedKind, mut.Kind)
	}
	mut.CapturedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	queued, err := m.load(ctx)
	if err != nil {
		return 0, err
	}

	replaced := false
	for i := range queued {
		if queued[i].Relation == mut.Relation &&
			queued[i].NaturalKey == mut.NaturalKey &&
			queued[i].Kind == mut.Kind {
			queued[i] = mut
			replaced = true
			break
		}
	}
	if !replaced {
		queued = append(queued, mut)
	}

	if err := m.store.Save(ctx, store.SlotQueue, queued); err != nil {
		return 0, err
	}

	m.logger.Info("mutation queued",
		zap.String("relation", mut.Relation),
		zap.String("natural_key", mut.NaturalKey),
		zap.Bool("merged", replaced),
		zap.Int("depth", len(queued)))
	return len(queued), nil
}

// Peek returns a copy of the queue without consuming it.
func (m *Manager) Peek(ctx context.Context) ([]Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// Depth reports the number of pending mutations.
func (m *Manager) Depth(ctx context.Context) (int, error) {
	queued, err := m.Peek(ctx)
	if err != nil {
		return 0, err
	}
	return len(queued), nil
}

// Drain replays the queue against the gateway in capture order and
// returns the number of mutations sent. The queue is cleared only when
// every entry succeeds; any failure leaves the whole snapshot in place
// for the next attempt, already-sent upserts included.
func (m *Manager) Drain(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued, err := m.load(ctx)
	if err != nil {
		return 0, err
	}
	if len(queued) == 0 {
		return 0, nil
	}

	for i, mut := range queued {
		if _, err := m.gw.Upsert(ctx, mut.Relation, []map[string]interface{}{mut.Payload}, mut.ConflictKey); err != nil {
			m.logger.Warn("drain aborted, queue left intact",
				zap.String("relation", mut.Relation),
				zap.String("natural_key", mut.NaturalKey),
				zap.Int("sent", i),
				zap.Int("depth", len(queued)),
				zap.Error(err))
			return 0, fmt.Errorf("drain mutation %s/%s: %w", mut.Relation, mut.NaturalKey, err)
		}
	}

	if err := m.store.Save(ctx, store.SlotQueue, []Mutation{}); err != nil {
		return 0, err
	}

	m.logger.Info("queue drained", zap.Int("sent", len(queued)))
	return len(queued), nil
}

// Clear empties the queue unconditionally.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Save(ctx, store.SlotQueue, []Mutation{})
}
