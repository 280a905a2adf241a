package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dipeo/dipeo-core/domain"
)

// DefaultRingSize is the ring buffer capacity used when New is called
// with size <= 0.
const DefaultRingSize = 1024

// DefaultOutboxSize bounds each subscriber's outbox before it is
// detached for backpressure.
const DefaultOutboxSize = 256

// KeepAliveInterval is how often the bus publishes a KindKeepAlive
// event to every subscriber, whether or not other traffic flowed.
const KeepAliveInterval = 15 * time.Second

// subscriber is one active consumer of the bus's event stream.
type subscriber struct {
	id       uint64
	outbox   chan Event
	detached atomic.Bool
}

// Bus is a single execution's ordered, replayable event stream.
// Publication is fire-and-forget: Publish never blocks on a slow
// subscriber, and a subscriber whose outbox fills up is detached rather
// than allowed to stall publication for everyone else.
type Bus struct {
	mu       sync.RWMutex
	seq      uint64
	ring     *ringBuffer
	subs     map[uint64]*subscriber
	nextSubID uint64
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a bus with the given ring buffer capacity (DefaultRingSize
// when ringSize <= 0) and starts its keepalive ticker.
func New(ringSize int) *Bus {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	b := &Bus{
		ring:   newRingBuffer(ringSize),
		subs:   make(map[uint64]*subscriber),
		stopCh: make(chan struct{}),
	}
	go b.keepAliveLoop()
	return b
}

// Close stops the bus's background keepalive loop and closes every
// subscriber's outbox. The bus must not be published to afterward.
func (b *Bus) Close() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subs {
		close(s.outbox)
		delete(b.subs, id)
	}
}

// Publish appends an event to the ring buffer, assigns it the next
// sequence number, and fans it out to every live subscriber. Delivery to
// a subscriber whose outbox is full detaches that subscriber instead of
// blocking.
func (b *Bus) Publish(kind Kind, nodeID domain.NodeID, data map[string]any) Event {
	b.mu.Lock()
	b.seq++
	e := Event{Seq: b.seq, Kind: kind, NodeID: nodeID, Timestamp: time.Now(), Data: data}
	b.ring.push(e)
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, e)
	}
	return e
}

func (b *Bus) deliver(s *subscriber, e Event) {
	if s.detached.Load() {
		return
	}
	select {
	case s.outbox <- e:
	default:
		s.detached.Store(true)
		b.mu.Lock()
		delete(b.subs, s.id)
		b.mu.Unlock()
		close(s.outbox)
	}
}

// Subscribe returns a channel of future events plus a replay slice of
// already-published events with Seq > fromSeq. replayComplete is false
// when fromSeq names a sequence older than the ring buffer retains; the
// caller has missed events the bus could not recover and should treat
// its view as a resync rather than a continuation.
func (b *Bus) Subscribe(fromSeq uint64) (events <-chan Event, replay []Event, replayComplete bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	replay, replayComplete = b.ring.since(fromSeq)

	b.nextSubID++
	s := &subscriber{id: b.nextSubID, outbox: make(chan Event, DefaultOutboxSize)}
	b.subs[s.id] = s
	return s.outbox, replay, replayComplete
}

func (b *Bus) keepAliveLoop() {
	ticker := time.NewTicker(KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.Publish(KindKeepAlive, "", nil)
		}
	}
}
