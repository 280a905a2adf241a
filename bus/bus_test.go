package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
)

func TestBus_PublishIsMonotonic(t *testing.T) {
	b := New(8)
	defer b.Close()

	e1 := b.Publish(KindNodeStarted, "n1", nil)
	e2 := b.Publish(KindNodeCompleted, "n1", nil)

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
}

func TestBus_SubscribeReceivesFutureEvents(t *testing.T) {
	b := New(8)
	defer b.Close()

	ch, replay, complete := b.Subscribe(0)
	assert.Empty(t, replay)
	assert.True(t, complete)

	b.Publish(KindNodeStarted, "n1", nil)

	select {
	case e := <-ch:
		assert.Equal(t, KindNodeStarted, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_ReplayFromSeqReturnsRingContents(t *testing.T) {
	b := New(8)
	defer b.Close()

	b.Publish(KindNodeStarted, "n1", nil)
	b.Publish(KindNodeCompleted, "n1", nil)
	b.Publish(KindNodeStarted, "n2", nil)

	_, replay, complete := b.Subscribe(1)
	require.True(t, complete)
	require.Len(t, replay, 2)
	assert.Equal(t, domain.NodeID("n1"), replay[0].NodeID)
	assert.Equal(t, KindNodeCompleted, replay[0].Kind)
	assert.Equal(t, domain.NodeID("n2"), replay[1].NodeID)
}

func TestBus_ReplayBeyondRingCapacityIsIncomplete(t *testing.T) {
	b := New(2)
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Publish(KindNodeStarted, "n", nil)
	}

	_, _, complete := b.Subscribe(1)
	assert.False(t, complete, "seq 1 should have been evicted from a ring of size 2 after 5 publishes")
}

func TestBus_SlowSubscriberIsDetachedNotBlocking(t *testing.T) {
	b := New(8)
	defer b.Close()

	ch, _, _ := b.Subscribe(0)

	for i := 0; i < DefaultOutboxSize+10; i++ {
		b.Publish(KindNodeStarted, "n", nil)
	}

	// The channel should eventually be closed once the subscriber detaches,
	// rather than Publish blocking forever on a full outbox.
	drained := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			drained++
		case <-timeout:
			t.Fatalf("subscriber was never detached after draining %d events", drained)
		}
	}
}
