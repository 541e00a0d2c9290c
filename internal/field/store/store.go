// Package store is the field device's local durable store: named slots
// holding opaque JSON values that survive process restarts. Each slot
// is owned by exactly one feature, so no cross-slot locking is needed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Well-known slot keys.
const (
	SlotEvents    = "events_cache"
	SlotMembers   = "members_cache"
	SlotNotices   = "notices_cache"
	SlotQueue     = "mutation_queue"
	SlotReminders = "reminder_notified"
)

// Store persists opaque values under string keys. Load reports found
// as false both when the key is absent and when the stored value is
// unreadable; callers get an empty value either way.
type Store interface {
	Save(ctx context.Context, key string, value interface{}) error
	Load(ctx context.Context, key string, out interface{}) (found bool, err error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// SQLiteStore keeps slots in a single-table sqlite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Open creates or opens the store file and ensures the schema exists.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// sqlite allows one writer at a time; a second connection would
	// just contend on the file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSlotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save serializes value and writes it under key, replacing any prior
// value.
func (s *SQLiteStore) Save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

// Load reads the value stored under key into out. A missing key or an
// undecodable value both yield found=false with out untouched; the
// caller proceeds with its empty default. Only the storage medium
// itself failing is reported as an error.
func (s *SQLiteStore) Load(ctx context.Context, key string, out interface{}) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read slot %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("slot value unreadable, treating as empty",
			zap.String("key", key),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Delete removes a slot. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
