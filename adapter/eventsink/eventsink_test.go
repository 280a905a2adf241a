package eventsink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/bus"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []bus.Event
}

func (s *recordingSink) Record(e bus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, e)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestAttach_ForwardsReplayAndLiveEvents(t *testing.T) {
	b := bus.New(64)
	defer b.Close()

	b.Publish(bus.KindNodeStarted, "n1", nil)

	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	go Attach(ctx, b, 0, sink, nil)

	time.Sleep(20 * time.Millisecond)
	b.Publish(bus.KindNodeCompleted, "n1", nil)
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.GreaterOrEqual(t, sink.count(), 2)
	assert.Equal(t, bus.KindNodeStarted, sink.seen[0].Kind)
}
