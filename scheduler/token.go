// Package scheduler decides, epoch by epoch, which nodes of a compiled
// diagram are ready to run, dispatches them under a concurrency cap, and
// advances the token state that cycle detection and loop iteration rely
// on.
package scheduler

import (
	"sync"

	"github.com/dipeo/dipeo-core/bus"
	"github.com/dipeo/dipeo-core/domain"
)

// Token is the unit the TokenManager hands out each time an edge fires.
// It is identified by (Edge, Epoch, Seq): Seq is strictly monotonic
// within a single (Edge, Epoch) pair, so replaying a loop body produces a
// fresh, ordered token stream each time around without colliding with the
// previous epoch's.
type Token struct {
	Edge     domain.EdgeID
	Epoch    uint64
	Seq      uint64
	Envelope any
}

// tokenState is the per-inbound-edge record of the last token that edge
// delivered, and what it carried.
type tokenState struct {
	token *Token
}

// TokenManager tracks, per node, which of its inbound edges have fired
// in the current epoch. It is the scheduler's single source of truth for
// readiness.
type TokenManager struct {
	mu      sync.Mutex
	diagram *domain.ExecutableDiagram
	bus     *bus.Bus
	// tokens[node][edgeID] records the last token delivered on that edge.
	tokens map[domain.NodeID]map[domain.EdgeID]*tokenState
	// seqCounters[edgeID][epoch] is the next sequence number to hand out
	// for that (edge, epoch) pair.
	seqCounters map[domain.EdgeID]map[uint64]uint64
	// activeBranch tracks, per Condition node, which output label last
	// fired, so the "inactive branch edges are considered satisfied"
	// rule can be applied.
	activeBranch map[domain.NodeID]domain.HandleLabel
	// started marks nodes that have fired at least once, for the
	// start-once rule on Start-type nodes with no inbound edges.
	started map[domain.NodeID]bool
}

// NewTokenManager returns a TokenManager with no tokens yet present.
func NewTokenManager(diagram *domain.ExecutableDiagram) *TokenManager {
	tm := &TokenManager{
		diagram:      diagram,
		tokens:       make(map[domain.NodeID]map[domain.EdgeID]*tokenState),
		seqCounters:  make(map[domain.EdgeID]map[uint64]uint64),
		activeBranch: make(map[domain.NodeID]domain.HandleLabel),
		started:      make(map[domain.NodeID]bool),
	}
	for nodeID, byLabel := range diagram.DependencyIndex.InEdges {
		tm.tokens[nodeID] = make(map[domain.EdgeID]*tokenState)
		for _, edgeIDs := range byLabel {
			for _, eid := range edgeIDs {
				tm.tokens[nodeID][eid] = &tokenState{}
			}
		}
	}
	return tm
}

// WithBus attaches the execution's event bus, so token publish/consume
// can be observed as TokenPublished/TokenConsumed events. Returns tm for
// chaining at construction time.
func (tm *TokenManager) WithBus(b *bus.Bus) *TokenManager {
	tm.bus = b
	return tm
}

// nextSeq returns the next sequence number for the (edge, epoch) pair,
// starting at 1. Caller must hold tm.mu.
func (tm *TokenManager) nextSeq(edgeID domain.EdgeID, epoch uint64) uint64 {
	byEpoch, ok := tm.seqCounters[edgeID]
	if !ok {
		byEpoch = make(map[uint64]uint64)
		tm.seqCounters[edgeID] = byEpoch
	}
	byEpoch[epoch]++
	return byEpoch[epoch]
}

// PublishInbound records that edge produced envelope for the given
// epoch, to be consumed by its target node, and returns the Token minted
// for it. Called by the engine right after a node's handler returns an
// output value.
func (tm *TokenManager) PublishInbound(edgeID domain.EdgeID, epoch uint64, envelope any) Token {
	tm.mu.Lock()

	tok := Token{Edge: edgeID, Epoch: epoch, Seq: tm.nextSeq(edgeID, epoch), Envelope: envelope}

	edge, ok := tm.diagram.Edges[edgeID]
	if !ok {
		tm.mu.Unlock()
		return tok
	}
	byEdge, ok := tm.tokens[edge.Target]
	if !ok {
		tm.mu.Unlock()
		return tok
	}
	st, ok := byEdge[edgeID]
	if !ok {
		tm.mu.Unlock()
		return tok
	}
	st.token = &tok

	if srcNode, ok := tm.diagram.Nodes[edge.Source]; ok && srcNode.Type == domain.NodeTypeCondition {
		tm.activeBranch[edge.Source] = edge.SourceLabel
	}
	b := tm.bus
	tm.mu.Unlock()

	if b != nil {
		b.Publish(bus.KindTokenPublished, edge.Target, map[string]any{
			"edge": string(edgeID), "epoch": epoch, "seq": tok.Seq,
		})
	}
	return tok
}

// ConsumeInbound clears every inbound token for a node once it has been
// dispatched for the given epoch, so the next epoch starts clean for
// that node.
func (tm *TokenManager) ConsumeInbound(nodeID domain.NodeID, epoch uint64) {
	tm.mu.Lock()
	var consumed []domain.EdgeID
	for eid, st := range tm.tokens[nodeID] {
		if st.token != nil && st.token.Epoch == epoch {
			consumed = append(consumed, eid)
		}
		st.token = nil
	}
	tm.started[nodeID] = true
	b := tm.bus
	tm.mu.Unlock()

	if b != nil {
		for _, eid := range consumed {
			b.Publish(bus.KindTokenConsumed, nodeID, map[string]any{"edge": string(eid), "epoch": epoch})
		}
	}
}

// InboundEnvelopes returns the envelope carried by each satisfied
// inbound edge for a node, keyed by target handle label, for the input
// resolver to consume.
func (tm *TokenManager) InboundEnvelopes(nodeID domain.NodeID) map[domain.HandleLabel][]any {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	out := make(map[domain.HandleLabel][]any)
	for label, edgeIDs := range tm.diagram.DependencyIndex.InEdges[nodeID] {
		for _, eid := range edgeIDs {
			st := tm.tokens[nodeID][eid]
			if st != nil && st.token != nil {
				out[label] = append(out[label], st.token.Envelope)
			}
		}
	}
	return out
}

// IsReady evaluates whether nodeID's inbound edges satisfy its join
// policy for the given epoch, after filtering out edges the three
// structural rules exclude:
//
//  1. start-once: a Start-type node with no inbound edges is ready
//     exactly once per execution, not once per epoch.
//  2. skippable conditional edges: an edge sourced from a Condition
//     node's untaken branch does not count against readiness, unless
//     every inbound edge to the target is skippable (in which case the
//     rule is waived and the node becomes ready once any of them fires,
//     breaking what would otherwise be a permanent deadlock).
//  3. inactive-branch-edges-satisfied: an edge from a Condition node's
//     branch that did NOT fire this round is treated as satisfied (not
//     blocking) once the Condition node itself has executed, so the
//     corresponding join does not wait forever for a branch that will
//     never fire again this epoch.
func (tm *TokenManager) IsReady(nodeID domain.NodeID, epoch uint64) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	inEdgesByLabel := tm.diagram.DependencyIndex.InEdges[nodeID]
	if len(inEdgesByLabel) == 0 {
		return !tm.started[nodeID]
	}

	var allEdges []domain.EdgeID
	for _, ids := range inEdgesByLabel {
		allEdges = append(allEdges, ids...)
	}

	allSkippable := true
	for _, eid := range allEdges {
		if !tm.diagram.Edges[eid].Skippable {
			allSkippable = false
			break
		}
	}

	satisfiedCount := 0
	for _, eid := range allEdges {
		edge := tm.diagram.Edges[eid]
		st := tm.tokens[nodeID][eid]
		if st != nil && st.token != nil && st.token.Epoch == epoch {
			satisfiedCount++
			continue
		}
		if edge.Skippable && !allSkippable {
			// untaken branch; does not block this target
			continue
		}
		if edge.Skippable && tm.branchResolved(edge) {
			// condition ran, this branch simply wasn't taken
			continue
		}
	}

	policy := tm.diagram.DependencyIndex.JoinPolicies[nodeID]
	switch policy {
	case domain.JoinAny:
		return satisfiedCount >= 1
	case domain.JoinKOfN:
		return satisfiedCount >= tm.diagram.DependencyIndex.KOfN[nodeID]
	default: // JoinAll
		required := tm.requiredCount(nodeID, allEdges, allSkippable)
		return satisfiedCount >= required
	}
}

// requiredCount is how many inbound edges must fire for JoinAll, after
// excluding edges the skippable rules let through without a token.
func (tm *TokenManager) requiredCount(nodeID domain.NodeID, allEdges []domain.EdgeID, allSkippable bool) int {
	if allSkippable {
		return 1
	}
	required := 0
	for _, eid := range allEdges {
		edge := tm.diagram.Edges[eid]
		if edge.Skippable && tm.branchResolved(edge) {
			continue
		}
		required++
	}
	if required == 0 {
		required = len(allEdges)
	}
	return required
}

func (tm *TokenManager) branchResolved(edge domain.ExecutableEdge) bool {
	active, ok := tm.activeBranch[edge.Source]
	if !ok {
		return false
	}
	return active != edge.SourceLabel
}
