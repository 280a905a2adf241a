// Package engine drives a compiled diagram from start to a terminal
// state: it owns the per-execution TokenManager, Tracker, and Bus, and
// repeatedly asks the scheduler's Dispatcher for ready nodes until none
// remain or the context is cancelled.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dipeo/dipeo-core/bus"
	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/envelope"
	"github.com/dipeo/dipeo-core/handler"
	"github.com/dipeo/dipeo-core/log"
	"github.com/dipeo/dipeo-core/resolver"
	"github.com/dipeo/dipeo-core/scheduler"
	"github.com/dipeo/dipeo-core/state"
)

// Execution is one run of a compiled diagram.
type Execution struct {
	ID       domain.ExecutionID
	Diagram  *domain.ExecutableDiagram
	Registry *handler.Registry

	Tokens   *scheduler.TokenManager
	Tracker  *state.Tracker
	Bus      *bus.Bus
	Dispatcher *scheduler.Dispatcher

	logger log.Logger
}

// New builds an Execution ready to Run. maxConcurrent <= 0 means
// unbounded, matching Dispatcher's convention.
func New(diagram *domain.ExecutableDiagram, registry *handler.Registry, maxConcurrent int, ringSize int) *Execution {
	execID := domain.NewExecutionID()
	nodeIDs := make([]domain.NodeID, 0, len(diagram.Nodes))
	for id := range diagram.Nodes {
		nodeIDs = append(nodeIDs, id)
	}

	e := &Execution{
		ID:      execID,
		Diagram: diagram,
		Registry: registry,
		Tracker: state.NewTracker(execID, nodeIDs),
		Bus:     bus.New(ringSize),
		logger:  log.GetDefaultLogger().With(map[string]any{"execution_id": string(execID)}),
	}
	e.Bus.Publish(bus.KindExecutionStarted, "", nil)
	e.Tokens = scheduler.NewTokenManager(diagram).WithBus(e.Bus)

	e.Dispatcher = scheduler.NewDispatcher(diagram, e.Tokens, e.runNode(), maxConcurrent, func() uint64 { return uint64(e.Tracker.Epoch()) }, e.onNodeDone)
	return e
}

// Run drives the execution to completion: repeatedly dispatching every
// ready round until no node is ready and none is in flight, or ctx is
// cancelled. Returns the final UIProjection.
func (e *Execution) Run(ctx context.Context) state.UIProjection {
	defer e.Bus.Close()

	for {
		if ctx.Err() != nil {
			e.Bus.Publish(bus.KindExecutionError, "", map[string]any{"error": ctx.Err().Error()})
			break
		}

		launched := e.Dispatcher.Dispatch(ctx)
		if launched == 0 {
			if e.Tracker.IsTerminal() || !e.Dispatcher.IsRunning() {
				break
			}
		}
	}

	proj := e.Tracker.Project()
	if proj.Done {
		e.Bus.Publish(bus.KindExecutionDone, "", nil)
	}
	return proj
}

func (e *Execution) runNode() scheduler.NodeRunner {
	return func(ctx context.Context, nodeID domain.NodeID) (map[domain.HandleLabel]any, error) {
		node := e.Diagram.Nodes[nodeID]

		if err := e.Tracker.Transition(nodeID, state.StateRunning, ""); err != nil {
			return nil, err
		}
		e.Bus.Publish(bus.KindNodeStarted, nodeID, nil)
		e.logger.Info("node %s started (type %s)", nodeID, node.Type)

		h, ok := e.Registry.Get(node.Type)
		if !ok {
			return nil, fmt.Errorf("engine: no handler registered for node type %q", node.Type)
		}

		spec, _ := domain.HandleSpecFor(node.Type)
		inputs, err := resolveInputs(e.Diagram, e.Tokens, nodeID, spec)
		if err != nil {
			return nil, err
		}

		inputs, err = h.PrepareInputs(ctx, node, inputs)
		if err != nil {
			return nil, err
		}

		outputs, err := e.executeWithRetry(ctx, h, node, inputs)
		if err != nil {
			if recovered, handled := h.OnError(ctx, node, err); handled {
				outputs = recovered
			} else {
				return nil, err
			}
		}

		if err := h.PostExecute(ctx, node, outputs); err != nil {
			return nil, err
		}

		return outputs, nil
	}
}

// executeWithRetry runs the handler, retrying with exponential backoff
// when the node's config marks it Retryable and the attempt budget
// (MaxRetries) allows another try. A non-retryable node or one that
// exhausts its retries returns the last error unchanged.
func (e *Execution) executeWithRetry(ctx context.Context, h handler.Handler, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	common := node.Common()
	attempts := 1
	if common.Retryable && common.MaxRetries > 0 {
		attempts = 1 + common.MaxRetries
	}

	var outputs map[domain.HandleLabel]any
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := domain.RetryBackoff(attempt - 1)
			e.logger.Warn("node %s retry %d/%d after error: %v (waiting %s)", node.ID, attempt, attempts-1, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		outputs, err = e.executeOnce(ctx, h, node, inputs, common.TimeoutS)
		if err == nil {
			return outputs, nil
		}
	}
	return nil, err
}

// executeOnce runs the handler a single time, racing it against
// TimeoutS (when positive) via context.WithTimeout.
func (e *Execution) executeOnce(ctx context.Context, h handler.Handler, node domain.ExecutableNode, inputs map[string]any, timeoutS float64) (map[domain.HandleLabel]any, error) {
	if timeoutS <= 0 {
		return h.Execute(ctx, node, inputs)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutS*float64(time.Second)))
	defer cancel()

	type result struct {
		outputs map[domain.HandleLabel]any
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outputs, err := h.Execute(ctx, node, inputs)
		done <- result{outputs, err}
	}()

	select {
	case r := <-done:
		return r.outputs, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("engine: node %s timed out after %.2fs: %w", node.ID, timeoutS, ctx.Err())
	}
}

func (e *Execution) onNodeDone(nodeID domain.NodeID, outputs map[domain.HandleLabel]any, err error) {
	if err != nil {
		_ = e.Tracker.Transition(nodeID, state.StateFailed, err.Error())
		e.Bus.Publish(bus.KindNodeFailed, nodeID, map[string]any{"error": err.Error()})
		e.logger.Error("node %s failed: %v", nodeID, err)
		return
	}

	_ = e.Tracker.Transition(nodeID, state.StateCompleted, "")
	e.Bus.Publish(bus.KindNodeCompleted, nodeID, nil)
	e.logger.Info("node %s completed", nodeID)

	for label, value := range outputs {
		for _, eid := range e.Diagram.DependencyIndex.OutEdges[nodeID][label] {
			edge := e.Diagram.Edges[eid]
			e.resetForLoopBack(edge.Target)
			e.Tokens.PublishInbound(eid, uint64(e.Tracker.Epoch()), value)
		}
	}
}

// resetForLoopBack moves a node that already completed this execution
// back to pending and advances the epoch, so the token onNodeDone then
// publishes to it at the new epoch can make it ready again. Nodes in any
// other state are untouched; this only fires for a node revisited by a
// cycle.
func (e *Execution) resetForLoopBack(nodeID domain.NodeID) {
	if e.Tracker.State(nodeID) != state.StateCompleted {
		return
	}
	if err := e.Tracker.Transition(nodeID, state.StatePending, "loop-back"); err == nil {
		e.Tracker.AdvanceEpoch()
	}
}

// resolveInputs gathers a node's bound inbound envelopes from the token
// manager and runs them through the resolver pipeline.
func resolveInputs(diagram *domain.ExecutableDiagram, tokens *scheduler.TokenManager, nodeID domain.NodeID, spec domain.HandleSpec) (map[string]any, error) {
	byLabel := tokens.InboundEnvelopes(nodeID)

	var bindings []resolver.Binding
	for label, values := range byLabel {
		for i, v := range values {
			edgeIDs := diagram.DependencyIndex.InEdges[nodeID][label]
			var transforms []domain.TransformRule
			if i < len(edgeIDs) {
				transforms = diagram.Edges[edgeIDs[i]].Transforms
			}
			bindings = append(bindings, resolver.Binding{Label: label, Value: unwrapEnvelope(v), Transforms: transforms})
		}
	}

	return resolver.Resolve(nodeID, spec, bindings)
}

// unwrapEnvelope extracts an envelope's raw body for the resolver, or
// passes the value through unchanged if it isn't an envelope (tests and
// simple handlers may publish raw values directly).
func unwrapEnvelope(v any) any {
	if env, ok := v.(envelope.Envelope); ok {
		return env.Body()
	}
	return v
}
