// Package redis mirrors execution events into a Redis stream via
// github.com/redis/go-redis/v9, grounded on the teacher's
// store/redis.RedisCheckpointStore (same client, same key-prefix
// convention) repurposed from "checkpoint a graph state" to "append an
// event stream" — the shape spec.md's external-store collaborator asks
// for, since the core itself never persists state.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dipeo/dipeo-core/bus"
)

// Sink appends each event to a per-execution Redis stream.
type Sink struct {
	client      *goredis.Client
	prefix      string
	executionID string
}

// Options configures a Sink's Redis connection and key prefix.
type Options struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string // key prefix, default "dipeo:"
	ExecutionID string
}

// New creates a Sink. The caller owns the returned client's lifetime via
// Close.
func New(opts Options) *Sink {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "dipeo:"
	}
	return &Sink{
		client: goredis.NewClient(&goredis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix:      prefix,
		executionID: opts.ExecutionID,
	}
}

func (s *Sink) streamKey() string {
	return fmt.Sprintf("%sevents:%s", s.prefix, s.executionID)
}

// Record appends event as a single entry to the execution's stream.
func (s *Sink) Record(event bus.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventsink/redis: marshal event: %w", err)
	}

	ctx := context.Background()
	_, err = s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.streamKey(),
		Values: map[string]any{"seq": event.Seq, "data": data},
	}).Result()
	if err != nil {
		return fmt.Errorf("eventsink/redis: xadd: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
