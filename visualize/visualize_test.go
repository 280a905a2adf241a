package visualize

import (
	"strings"
	"testing"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/state"
)

func sampleDiagram() *domain.ExecutableDiagram {
	d := domain.NewExecutableDiagram()
	d.Nodes["start"] = domain.ExecutableNode{ID: "start", Type: domain.NodeTypeStart, Start: &domain.StartConfig{}}
	d.Nodes["end"] = domain.ExecutableNode{ID: "end", Type: domain.NodeTypeEndpoint, Endpoint: &domain.EndpointConfig{}}
	d.Edges["e1"] = domain.ExecutableEdge{ID: "e1", Source: "start", SourceLabel: domain.HandleDefault, Target: "end", TargetLabel: domain.HandleDefault}
	return d
}

func TestDiagram_RendersNodesAndEdges(t *testing.T) {
	out := Diagram(sampleDiagram())
	if !strings.Contains(out, "start") || !strings.Contains(out, "end") {
		t.Fatalf("expected both node IDs in output, got %q", out)
	}
	if !strings.Contains(out, "-->") {
		t.Fatalf("expected an edge arrow in output, got %q", out)
	}
}

func TestDiagram_ListsCycles(t *testing.T) {
	d := sampleDiagram()
	d.DependencyIndex.Cycles = [][]domain.NodeID{{"start", "end"}}
	out := Diagram(d)
	if !strings.Contains(out, "cycles:") {
		t.Fatalf("expected cycles line, got %q", out)
	}
}

func TestProjection_RendersNodeStates(t *testing.T) {
	tr := state.NewTracker("exec-1", []domain.NodeID{"a"})
	_ = tr.Transition("a", state.StateRunning, "")
	proj := tr.Project()

	out := Projection(proj)
	if !strings.Contains(out, "a:") || !strings.Contains(out, string(state.StateRunning)) {
		t.Fatalf("expected node a's running state in output, got %q", out)
	}
}
