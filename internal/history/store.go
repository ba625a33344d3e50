// Package history keeps an append-only log of build events in SQLite and
// projects it into per-build summaries.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// Event is one recorded build event.
type Event struct {
	ID        int64
	BuildID   string
	Type      EventType
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Store persists and retrieves events.
type Store interface {
	// Append stores events in order, atomically.
	Append(ctx context.Context, events ...Event) error
	// GetByBuildID retrieves all events for a specific build.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)
	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens or creates the event database at dbPath.
// Use ":memory:" for an in-memory database.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if !strings.HasPrefix(dbPath, ":memory:") && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.EventStoreError("could not create build history directory").
				WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.EventStoreError("could not open build history database").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.EventStoreError("failed to initialize build history schema").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS build_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_build_events_build_id ON build_events(build_id);
	CREATE INDEX IF NOT EXISTS idx_build_events_timestamp ON build_events(timestamp_ms);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.EventStoreError("failed to begin transaction").WithCause(err).Build()
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO build_events (build_id, event_type, timestamp_ms, payload, metadata) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return errors.EventStoreError("failed to prepare insert").WithCause(err).Build()
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range events {
		var metadataJSON []byte
		if e.Metadata != nil {
			if metadataJSON, err = json.Marshal(e.Metadata); err != nil {
				return errors.EventStoreError("failed to marshal event metadata").WithCause(err).Build()
			}
		}
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, e.BuildID, string(e.Type), ts.UnixMilli(), e.Payload, metadataJSON); err != nil {
			return errors.EventStoreError("failed to append event").WithCause(err).
				WithContext("build_id", e.BuildID).WithContext("type", string(e.Type)).Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.EventStoreError("failed to commit events").WithCause(err).Build()
	}
	return nil
}

// GetByBuildID implements Store.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp_ms, payload, metadata FROM build_events WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, errors.EventStoreError("failed to query events").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// GetRange implements Store. Both bounds are inclusive.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp_ms, payload, metadata FROM build_events WHERE timestamp_ms >= ? AND timestamp_ms <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, errors.EventStoreError("failed to query events").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e            Event
			eventType    string
			tsMillis     int64
			metadataJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &eventType, &tsMillis, &e.Payload, &metadataJSON); err != nil {
			return nil, errors.EventStoreError("failed to scan event row").WithCause(err).Build()
		}
		e.Type = EventType(eventType)
		e.Timestamp = time.UnixMilli(tsMillis)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, errors.EventStoreError("failed to unmarshal event metadata").WithCause(err).Build()
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.EventStoreError("failed to iterate event rows").WithCause(err).Build()
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
