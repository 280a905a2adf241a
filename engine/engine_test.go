package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/handler"
	"github.com/dipeo/dipeo-core/state"
)

func linearDiagram() *domain.ExecutableDiagram {
	d := domain.NewExecutableDiagram()
	d.Nodes["start"] = domain.ExecutableNode{ID: "start", Type: domain.NodeTypeStart, Start: &domain.StartConfig{CustomData: map[string]any{"hello": "world"}}}
	d.Nodes["end"] = domain.ExecutableNode{ID: "end", Type: domain.NodeTypeEndpoint, Endpoint: &domain.EndpointConfig{}}
	d.Edges["e1"] = domain.ExecutableEdge{ID: "e1", Source: "start", SourceLabel: domain.HandleDefault, Target: "end", TargetLabel: domain.HandleDefault, ContentType: domain.ContentObject}
	d.DependencyIndex.InEdges["end"] = map[domain.HandleLabel][]domain.EdgeID{domain.HandleDefault: {"e1"}}
	d.DependencyIndex.OutEdges["start"] = map[domain.HandleLabel][]domain.EdgeID{domain.HandleDefault: {"e1"}}
	d.DependencyIndex.JoinPolicies["start"] = domain.JoinAll
	d.DependencyIndex.JoinPolicies["end"] = domain.JoinAll
	d.StartNodes = []domain.NodeID{"start"}
	return d
}

func TestExecution_RunsLinearDiagramToCompletion(t *testing.T) {
	diagram := linearDiagram()
	registry := handler.BuildRegistry(handler.Dependencies{})

	exec := New(diagram, registry, 1, 64)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	proj := exec.Run(ctx)

	require.True(t, proj.Done)
	assert.Equal(t, state.StateCompleted, proj.Nodes["start"].State)
	assert.Equal(t, state.StateCompleted, proj.Nodes["end"].State)
}
