package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
)

func twoNodeDiagram() *domain.ExecutableDiagram {
	d := domain.NewExecutableDiagram()
	d.Nodes["start"] = domain.ExecutableNode{ID: "start", Type: domain.NodeTypeStart, Start: &domain.StartConfig{}}
	d.Nodes["end"] = domain.ExecutableNode{ID: "end", Type: domain.NodeTypeEndpoint, Endpoint: &domain.EndpointConfig{}}
	d.Edges["e1"] = domain.ExecutableEdge{ID: "e1", Source: "start", SourceLabel: domain.HandleDefault, Target: "end", TargetLabel: domain.HandleDefault}
	d.DependencyIndex.InEdges["end"] = map[domain.HandleLabel][]domain.EdgeID{domain.HandleDefault: {"e1"}}
	d.DependencyIndex.OutEdges["start"] = map[domain.HandleLabel][]domain.EdgeID{domain.HandleDefault: {"e1"}}
	d.DependencyIndex.JoinPolicies["start"] = domain.JoinAll
	d.DependencyIndex.JoinPolicies["end"] = domain.JoinAll
	d.StartNodes = []domain.NodeID{"start"}
	return d
}

func TestTokenManager_StartOnceRule(t *testing.T) {
	d := twoNodeDiagram()
	tm := NewTokenManager(d)

	assert.True(t, tm.IsReady("start", 0), "start node with no inbound edges is ready once")
	tm.ConsumeInbound("start", 0)
	assert.False(t, tm.IsReady("start", 0), "start node should not re-fire without a fresh epoch")
}

func TestTokenManager_JoinAllWaitsForEveryEdge(t *testing.T) {
	d := twoNodeDiagram()
	d.Nodes["mid"] = domain.ExecutableNode{ID: "mid", Type: domain.NodeTypeCodeJob, CodeJob: &domain.CodeJobConfig{}}
	d.Edges["e2"] = domain.ExecutableEdge{ID: "e2", Source: "mid", SourceLabel: domain.HandleDefault, Target: "end", TargetLabel: domain.HandleDefault}
	d.DependencyIndex.InEdges["end"][domain.HandleDefault] = append(d.DependencyIndex.InEdges["end"][domain.HandleDefault], "e2")

	tm := NewTokenManager(d)
	tm.PublishInbound("e1", 0, "payload-1")
	assert.False(t, tm.IsReady("end", 0), "only one of two required edges fired")

	tm.PublishInbound("e2", 0, "payload-2")
	assert.True(t, tm.IsReady("end", 0))
}

func TestTokenManager_SkippableBranchDoesNotBlock(t *testing.T) {
	d := domain.NewExecutableDiagram()
	d.Nodes["cond"] = domain.ExecutableNode{ID: "cond", Type: domain.NodeTypeCondition, Condition: &domain.ConditionConfig{Skippable: true}}
	d.Nodes["sink"] = domain.ExecutableNode{ID: "sink", Type: domain.NodeTypeEndpoint, Endpoint: &domain.EndpointConfig{}}
	d.Edges["true"] = domain.ExecutableEdge{ID: "true", Source: "cond", SourceLabel: domain.HandleCondTrue, Target: "sink", TargetLabel: domain.HandleDefault, Skippable: true}
	d.DependencyIndex.InEdges["sink"] = map[domain.HandleLabel][]domain.EdgeID{domain.HandleDefault: {"true"}}
	d.DependencyIndex.JoinPolicies["sink"] = domain.JoinAll

	tm := NewTokenManager(d)
	// all inbound edges to sink are skippable, so the rule is waived and
	// a single arriving token is enough.
	tm.PublishInbound("true", 0, "yes")
	assert.True(t, tm.IsReady("sink", 0))
}

func TestDispatcher_RunsReadyNodesUnderConcurrencyCap(t *testing.T) {
	d := twoNodeDiagram()
	tm := NewTokenManager(d)

	var concurrent int32
	var maxSeen int32
	runner := func(ctx context.Context, nodeID domain.NodeID) (map[domain.HandleLabel]any, error) {
		n := atomic.AddInt32(&concurrent, 1)
		defer atomic.AddInt32(&concurrent, -1)
		if n > atomic.LoadInt32(&maxSeen) {
			atomic.StoreInt32(&maxSeen, n)
		}
		time.Sleep(10 * time.Millisecond)
		return map[domain.HandleLabel]any{domain.HandleDefault: "out"}, nil
	}

	var completed []domain.NodeID
	disp := NewDispatcher(d, tm, runner, 1, func() uint64 { return 0 }, func(nodeID domain.NodeID, outputs map[domain.HandleLabel]any, err error) {
		require.NoError(t, err)
		completed = append(completed, nodeID)
		for _, eid := range d.DependencyIndex.OutEdges[nodeID][domain.HandleDefault] {
			tm.PublishInbound(eid, 0, outputs[domain.HandleDefault])
		}
	})

	launched := disp.Dispatch(context.Background())
	assert.Equal(t, 1, launched)
	assert.Equal(t, []domain.NodeID{"start"}, completed)
	assert.LessOrEqual(t, maxSeen, int32(1))

	launched = disp.Dispatch(context.Background())
	assert.Equal(t, 1, launched)
	assert.Contains(t, completed, domain.NodeID("end"))
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	var wg sync.WaitGroup
	var recovered any
	SafeGo(&wg, func() { panic("boom") }, func(r any) { recovered = r })
	wg.Wait()
	assert.Equal(t, "boom", recovered)
}
