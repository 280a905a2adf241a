// Package sqlite mirrors execution events into a local SQLite file via
// github.com/mattn/go-sqlite3, grounded on the teacher's
// store/sqlite.SqliteCheckpointStore (same sql.DB + InitSchema shape),
// repurposed from checkpoint rows to an append-only event log — useful
// for a single-process embedder that wants a queryable history without
// standing up Postgres or Redis.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dipeo/dipeo-core/bus"
)

// Sink appends each event as a row in TableName.
type Sink struct {
	db        *sql.DB
	tableName string
}

// Options configures the sink's database file and table name.
type Options struct {
	Path      string
	TableName string // default "execution_events"
}

// New opens (creating if needed) a SQLite database at opts.Path and
// ensures the events table exists.
func New(opts Options) (*Sink, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("eventsink/sqlite: open: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "execution_events"
	}

	s := &Sink{db: db, tableName: tableName}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY,
			node_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			occurred_at DATETIME NOT NULL,
			data TEXT
		)`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("eventsink/sqlite: init schema: %w", err)
	}
	return nil
}

// Record inserts event as a row, ignoring a duplicate seq.
func (s *Sink) Record(event bus.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("eventsink/sqlite: marshal event data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (seq, node_id, kind, occurred_at, data)
		VALUES (?, ?, ?, ?, ?)`, s.tableName)

	_, err = s.db.Exec(query, event.Seq, string(event.NodeID), string(event.Kind), event.Timestamp, string(data))
	if err != nil {
		return fmt.Errorf("eventsink/sqlite: insert event: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
