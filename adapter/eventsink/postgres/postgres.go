// Package postgres mirrors execution events into a Postgres table via
// github.com/jackc/pgx/v5, grounded on the teacher's
// store/postgres.PostgresCheckpointStore: same DBPool seam (so a test
// can swap in pgxmock without a live database) repurposed from
// checkpoint rows to an append-only event log.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dipeo/dipeo-core/bus"
)

// DBPool is the subset of *pgxpool.Pool the sink needs, narrow enough
// that tests can satisfy it with pgxmock instead of a live database.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

// Sink appends each event as a row in TableName.
type Sink struct {
	pool      DBPool
	tableName string
}

// Options configures the sink's connection and table name.
type Options struct {
	ConnString string
	TableName  string // default "execution_events"
}

// New opens a connection pool and ensures the events table exists.
func New(ctx context.Context, opts Options) (*Sink, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("eventsink/postgres: connect: %w", err)
	}
	return NewWithPool(ctx, pool, opts.TableName)
}

// NewWithPool builds a Sink over an existing pool, useful for tests with
// a mocked DBPool.
func NewWithPool(ctx context.Context, pool DBPool, tableName string) (*Sink, error) {
	if tableName == "" {
		tableName = "execution_events"
	}
	s := &Sink{pool: pool, tableName: tableName}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGINT PRIMARY KEY,
			node_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			data JSONB
		)`, s.tableName)
	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("eventsink/postgres: init schema: %w", err)
	}
	return nil
}

// Record inserts event as a row, ignoring a duplicate seq (the sink may
// be reattached against the ring's replay window).
func (s *Sink) Record(event bus.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("eventsink/postgres: marshal event data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (seq, node_id, kind, occurred_at, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (seq) DO NOTHING`, s.tableName)

	_, err = s.pool.Exec(context.Background(), query,
		event.Seq, string(event.NodeID), string(event.Kind), event.Timestamp, data)
	if err != nil {
		return fmt.Errorf("eventsink/postgres: insert event: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Sink) Close() {
	s.pool.Close()
}
