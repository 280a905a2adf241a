// Package eventsink declares the contract an external store implements
// to mirror bus.Event into durable storage. The execution core never
// imports a concrete sink; attaching one is the embedder's job, done by
// subscribing to a bus.Bus and forwarding events to Record.
package eventsink

import (
	"context"

	"github.com/dipeo/dipeo-core/bus"
)

// EventSink records one event into an external store. Implementations
// must tolerate being called concurrently from a single subscriber
// goroutine (bus.Bus never calls Record itself).
type EventSink interface {
	Record(event bus.Event) error
}

// Attach subscribes to b from fromSeq and forwards every delivered event
// to sink.Record until ctx is cancelled or the subscription channel
// closes (e.g. the subscriber was detached for falling behind). Errors
// from Record are forwarded to onErr rather than stopping the loop,
// matching the core's keep-running-on-handler-error stance. Replayed
// events (already in the ring when Attach starts) are recorded first.
func Attach(ctx context.Context, b *bus.Bus, fromSeq uint64, sink EventSink, onErr func(error)) {
	events, replay, _ := b.Subscribe(fromSeq)
	for _, e := range replay {
		if err := sink.Record(e); err != nil && onErr != nil {
			onErr(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sink.Record(e); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
