package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dipeo/dipeo-core/domain"
)

// NodeRunner executes a single node and returns its output envelopes per
// output handle label. The scheduler does not know how a node runs; it
// only knows when to start one and what to do with the result.
type NodeRunner func(ctx context.Context, nodeID domain.NodeID) (map[domain.HandleLabel]any, error)

// SafeGo runs fn in its own goroutine, recovering any panic into onPanic
// instead of crashing the process. Grounded in the teacher's parallel
// fan-out pattern: every node goroutine gets its own recover.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(recovered any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(r)
			}
		}()
		fn()
	}()
}

// Dispatcher runs one round of the ready-node loop per Dispatch call: it
// launches every ready node, at most maxConcurrent at a time, and reports
// each result through onNodeDone. The caller (engine.Run) repeats rounds
// until the diagram reaches a terminal state or the context is cancelled.
type Dispatcher struct {
	diagram *domain.ExecutableDiagram
	tokens  *TokenManager
	run     NodeRunner
	epoch   func() uint64

	maxConcurrent int
	sem           chan struct{}

	mu      sync.Mutex
	running map[domain.NodeID]bool

	onNodeDone func(nodeID domain.NodeID, outputs map[domain.HandleLabel]any, err error)
}

// NewDispatcher builds a Dispatcher. maxConcurrent <= 0 means unbounded.
// epoch reports the execution's current epoch at call time; the
// Dispatcher reads it fresh on every readiness check and dispatch so
// loop-backs that advance the epoch are picked up immediately.
func NewDispatcher(diagram *domain.ExecutableDiagram, tokens *TokenManager, run NodeRunner, maxConcurrent int, epoch func() uint64, onNodeDone func(domain.NodeID, map[domain.HandleLabel]any, error)) *Dispatcher {
	d := &Dispatcher{
		diagram:       diagram,
		tokens:        tokens,
		run:           run,
		epoch:         epoch,
		maxConcurrent: maxConcurrent,
		running:       make(map[domain.NodeID]bool),
		onNodeDone:    onNodeDone,
	}
	if maxConcurrent > 0 {
		d.sem = make(chan struct{}, maxConcurrent)
	}
	return d
}

// ReadyNodes returns every node currently ready to dispatch and not
// already running, ordered by the diagram's topological hint (when the
// diagram is acyclic) and then lexicographically by NodeID, so dispatch
// order is deterministic across runs regardless of Go's map iteration.
func (d *Dispatcher) ReadyNodes() []domain.NodeID {
	d.mu.Lock()
	epoch := d.epoch()
	var ready []domain.NodeID
	for nodeID := range d.diagram.Nodes {
		if d.running[nodeID] {
			continue
		}
		if d.tokens.IsReady(nodeID, epoch) {
			ready = append(ready, nodeID)
		}
	}
	d.mu.Unlock()

	sortByTopoHint(ready, d.diagram.DependencyIndex.TopoHint)
	return ready
}

// sortByTopoHint orders ready in place: nodes present in hint come first,
// in hint order; nodes absent from hint (hint is nil for cyclic diagrams)
// follow, in lexicographic NodeID order. Ties within the hint-present
// group cannot occur since hint contains each node once.
func sortByTopoHint(ready []domain.NodeID, hint []domain.NodeID) {
	pos := make(map[domain.NodeID]int, len(hint))
	for i, id := range hint {
		pos[id] = i
	}
	sort.Slice(ready, func(i, j int) bool {
		pi, iok := pos[ready[i]]
		pj, jok := pos[ready[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return ready[i] < ready[j]
		}
	})
}

// Dispatch launches every ready node (up to the concurrency cap) and
// blocks until each launched node's runner returns, invoking onNodeDone
// for each. Returns the number of nodes launched this round.
func (d *Dispatcher) Dispatch(ctx context.Context) int {
	ready := d.ReadyNodes()
	if len(ready) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	launched := 0

dispatchLoop:
	for _, nodeID := range ready {
		if d.sem != nil {
			select {
			case d.sem <- struct{}{}:
			case <-ctx.Done():
				break dispatchLoop
			}
		} else if ctx.Err() != nil {
			break dispatchLoop
		}

		d.mu.Lock()
		d.running[nodeID] = true
		d.mu.Unlock()
		d.tokens.ConsumeInbound(nodeID, d.epoch())
		launched++

		nodeID := nodeID
		SafeGo(&wg, func() {
			if d.sem != nil {
				defer func() { <-d.sem }()
			}
			outputs, err := d.run(ctx, nodeID)

			d.mu.Lock()
			delete(d.running, nodeID)
			d.mu.Unlock()

			if d.onNodeDone != nil {
				d.onNodeDone(nodeID, outputs, err)
			}
		}, func(recovered any) {
			d.mu.Lock()
			delete(d.running, nodeID)
			d.mu.Unlock()
			if d.onNodeDone != nil {
				d.onNodeDone(nodeID, nil, fmt.Errorf("scheduler: panic in node %s: %v", nodeID, recovered))
			}
		})
	}

	wg.Wait()
	return launched
}

// IsRunning reports whether any node is currently in flight.
func (d *Dispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.running) > 0
}
