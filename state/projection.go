package state

import "github.com/dipeo/dipeo-core/domain"

// UIProjection is a derived, read-only snapshot of an execution's state
// shaped for display: no history, no internal epoch bookkeeping, just
// "what is each node doing right now".
type UIProjection struct {
	ExecutionID domain.ExecutionID
	Epoch       int
	Nodes       map[domain.NodeID]NodeProjection
	Done        bool
}

// NodeProjection is one node's entry in a UIProjection.
type NodeProjection struct {
	State         RuntimeState
	IterationCount int
}

// Project builds a UIProjection from the tracker's current state. The
// result is a snapshot; it does not update as the tracker changes.
func (t *Tracker) Project() UIProjection {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := make(map[domain.NodeID]NodeProjection, len(t.current))
	for id, s := range t.current {
		nodes[id] = NodeProjection{State: s, IterationCount: t.iteration[id]}
	}

	done := true
	for _, s := range t.current {
		switch s {
		case StateCompleted, StateFailed, StateMaxIterReached, StateSkipped:
		default:
			done = false
		}
	}

	return UIProjection{
		ExecutionID: t.execID,
		Epoch:       t.epoch,
		Nodes:       nodes,
		Done:        done,
	}
}
