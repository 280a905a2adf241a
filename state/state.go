// Package state tracks the runtime status of every node across an
// execution: an append-only history of what happened, and the current
// RuntimeState each node is in.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/dipeo/dipeo-core/domain"
)

// RuntimeState is a node's current lifecycle state within an execution.
type RuntimeState string

const (
	StatePending       RuntimeState = "pending"
	StateRunning       RuntimeState = "running"
	StateCompleted     RuntimeState = "completed"
	StateFailed        RuntimeState = "failed"
	StateMaxIterReached RuntimeState = "maxiter_reached"
	StateSkipped       RuntimeState = "skipped"
)

// validTransitions lists every legal (from, to) pair: pending moves to
// running or skipped; running ends in completed, failed or
// maxiter_reached; completed is the only state that goes back (to
// pending, on a loop-back).
var validTransitions = map[RuntimeState]map[RuntimeState]bool{
	StatePending: {
		StateRunning: true,
		StateSkipped: true,
	},
	StateRunning: {
		StateCompleted:      true,
		StateFailed:         true,
		StateMaxIterReached: true,
	},
	StateCompleted: {
		StatePending: true, // loop-back: a fresh inbound token makes the node eligible again next epoch
	},
}

// HistoryEntry is one append-only record of a node's state transition.
type HistoryEntry struct {
	NodeID    domain.NodeID
	Epoch     int
	From      RuntimeState
	To        RuntimeState
	Timestamp time.Time
	Detail    string
}

// Tracker owns one execution's RuntimeState machine and its history.
// Safe for concurrent use; the scheduler calls into it from multiple
// node goroutines.
type Tracker struct {
	mu        sync.RWMutex
	execID    domain.ExecutionID
	current   map[domain.NodeID]RuntimeState
	iteration map[domain.NodeID]int
	history   []HistoryEntry
	epoch     int
}

// NewTracker returns a Tracker with every node in nodeIDs starting pending.
func NewTracker(execID domain.ExecutionID, nodeIDs []domain.NodeID) *Tracker {
	t := &Tracker{
		execID:    execID,
		current:   make(map[domain.NodeID]RuntimeState, len(nodeIDs)),
		iteration: make(map[domain.NodeID]int, len(nodeIDs)),
	}
	for _, id := range nodeIDs {
		t.current[id] = StatePending
	}
	return t
}

// Transition moves a node from its current state to `to`, recording the
// move in history. Returns an error if the transition is not in
// validTransitions.
func (t *Tracker) Transition(nodeID domain.NodeID, to RuntimeState, detail string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	from, ok := t.current[nodeID]
	if !ok {
		return fmt.Errorf("state: unknown node %s", nodeID)
	}
	if !validTransitions[from][to] {
		return fmt.Errorf("state: illegal transition for %s: %s -> %s", nodeID, from, to)
	}

	t.current[nodeID] = to
	if to == StateCompleted || to == StateFailed {
		t.iteration[nodeID]++
	}
	t.history = append(t.history, HistoryEntry{
		NodeID:    nodeID,
		Epoch:     t.epoch,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Detail:    detail,
	})
	return nil
}

// State returns a node's current RuntimeState.
func (t *Tracker) State(nodeID domain.NodeID) RuntimeState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current[nodeID]
}

// IterationCount returns how many times a node has completed or failed,
// which PersonJob's MaxIteration check consults.
func (t *Tracker) IterationCount(nodeID domain.NodeID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.iteration[nodeID]
}

// AdvanceEpoch increments the current epoch, tagging subsequent history
// entries. Called by the scheduler when a loop-back token starts a new
// pass over the cyclic portion of the diagram.
func (t *Tracker) AdvanceEpoch() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
	return t.epoch
}

// Epoch returns the current epoch number.
func (t *Tracker) Epoch() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch
}

// History returns a copy of the append-only history recorded so far.
func (t *Tracker) History() []HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// IsTerminal reports whether every node has reached a state the
// scheduler will never move out of again this execution (completed,
// failed, maxiter_reached, or skipped).
func (t *Tracker) IsTerminal() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.current {
		switch s {
		case StateCompleted, StateFailed, StateMaxIterReached, StateSkipped:
			continue
		default:
			return false
		}
	}
	return true
}
