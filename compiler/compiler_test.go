package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
)

func handle(id domain.HandleID, node domain.NodeID, label domain.HandleLabel, dir domain.Direction) domain.DomainHandle {
	return domain.DomainHandle{NodeID: node, Label: label, Direction: dir}
}

func TestCompile_LinearTwoNodeDiagram(t *testing.T) {
	d := domain.NewDomainDiagram()
	d.Nodes["start"] = domain.DomainNode{Type: domain.NodeTypeStart}
	d.Nodes["end"] = domain.DomainNode{Type: domain.NodeTypeEndpoint}
	d.Handles["start.out"] = handle("start.out", "start", domain.HandleDefault, domain.DirectionOutput)
	d.Handles["end.in"] = handle("end.in", "end", domain.HandleDefault, domain.DirectionInput)
	d.Arrows = append(d.Arrows, domain.Arrow{ID: "a1", Source: "start.out", Target: "end.in"})

	result := Compile(d)
	require.True(t, result.OK(), "errors: %v", result.Errors)

	assert.Len(t, result.Diagram.StartNodes, 1)
	assert.Equal(t, domain.NodeID("start"), result.Diagram.StartNodes[0])
	assert.Len(t, result.Diagram.Edges, 1)
	edge := result.Diagram.Edges["a1"]
	assert.Equal(t, domain.ContentObject, edge.ContentType)
}

func TestCompile_UnknownHandleProducesValidationError(t *testing.T) {
	d := domain.NewDomainDiagram()
	d.Nodes["start"] = domain.DomainNode{Type: domain.NodeTypeStart}
	d.Arrows = append(d.Arrows, domain.Arrow{ID: "a1", Source: "missing.out", Target: "also-missing.in"})

	result := Compile(d)
	require.False(t, result.OK())
	assert.Contains(t, result.Errors[0].Error(), "validation")
}

func TestCompile_PersonJobRequiresKnownPerson(t *testing.T) {
	d := domain.NewDomainDiagram()
	d.Nodes["pj"] = domain.DomainNode{
		Type: domain.NodeTypePersonJob,
		Data: map[string]any{"person_id": "ghost"},
	}

	result := Compile(d)
	require.False(t, result.OK())
	found := false
	for _, e := range result.Errors {
		if e.Reason == `person_job node references unknown person "ghost"` {
			found = true
		}
	}
	assert.True(t, found, "expected unknown-person error, got %v", result.Errors)
}

func TestCompile_DetectsCycle(t *testing.T) {
	// start feeds the a <-> b cycle, so the diagram keeps a legal start node
	d := domain.NewDomainDiagram()
	d.Nodes["start"] = domain.DomainNode{Type: domain.NodeTypeStart}
	d.Nodes["a"] = domain.DomainNode{Type: domain.NodeTypeCodeJob}
	d.Nodes["b"] = domain.DomainNode{Type: domain.NodeTypeCodeJob}
	d.Handles["start.out"] = handle("start.out", "start", domain.HandleDefault, domain.DirectionOutput)
	d.Handles["a.out"] = handle("a.out", "a", domain.HandleDefault, domain.DirectionOutput)
	d.Handles["a.in"] = handle("a.in", "a", domain.HandleDefault, domain.DirectionInput)
	d.Handles["b.out"] = handle("b.out", "b", domain.HandleDefault, domain.DirectionOutput)
	d.Handles["b.in"] = handle("b.in", "b", domain.HandleDefault, domain.DirectionInput)
	d.Arrows = append(d.Arrows,
		domain.Arrow{ID: "start-to-a", Source: "start.out", Target: "a.in"},
		domain.Arrow{ID: "a-to-b", Source: "a.out", Target: "b.in"},
		domain.Arrow{ID: "b-to-a", Source: "b.out", Target: "a.in"},
	)

	result := Compile(d)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.NotEmpty(t, result.Diagram.DependencyIndex.Cycles)
	assert.Nil(t, result.Diagram.DependencyIndex.TopoHint)
}

func TestCompile_ConditionalEdgesAreSkippableByDefault(t *testing.T) {
	d := domain.NewDomainDiagram()
	d.Nodes["cond"] = domain.DomainNode{Type: domain.NodeTypeCondition}
	d.Nodes["sink"] = domain.DomainNode{Type: domain.NodeTypeEndpoint}
	d.Handles["cond.true"] = handle("cond.true", "cond", domain.HandleCondTrue, domain.DirectionOutput)
	d.Handles["sink.in"] = handle("sink.in", "sink", domain.HandleDefault, domain.DirectionInput)
	d.Arrows = append(d.Arrows, domain.Arrow{ID: "e1", Source: "cond.true", Target: "sink.in"})

	result := Compile(d)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.True(t, result.Diagram.Edges["e1"].Skippable)
}
