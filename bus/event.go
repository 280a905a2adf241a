// Package bus implements the per-execution, strictly-ordered event
// stream that external observers (UI, logging, replay tooling) consume.
// Each execution owns exactly one Bus; the Bus is discarded when the
// execution ends.
package bus

import (
	"time"

	"github.com/dipeo/dipeo-core/domain"
)

// Kind identifies the category of an Event.
type Kind string

const (
	KindExecutionStarted Kind = "execution_started"
	KindNodeStarted      Kind = "node_started"
	KindNodeCompleted    Kind = "node_completed"
	KindNodeFailed       Kind = "node_failed"
	KindNodeSkipped      Kind = "node_skipped"
	KindNodeMaxIter      Kind = "node_maxiter_reached"
	KindTokenPublished   Kind = "token_published"
	KindTokenConsumed    Kind = "token_consumed"
	KindExecutionDone    Kind = "execution_completed"
	KindExecutionError   Kind = "execution_failed"
	KindKeepAlive        Kind = "keepalive"
)

// Event is one entry in an execution's ordered stream. Seq is strictly
// monotonic within a single execution and has no meaning across
// executions.
type Event struct {
	Seq       uint64
	Kind      Kind
	NodeID    domain.NodeID
	Timestamp time.Time
	Data      map[string]any
}
