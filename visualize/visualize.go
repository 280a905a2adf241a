// Package visualize renders a compiled diagram and a running
// execution's node states as styled text, for debugging — it is not a
// UI surface or a transport, just a developer-facing text dump.
package visualize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/state"
)

var (
	nodeStyle      = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	edgeStyle      = lipgloss.NewStyle().Faint(true)
	cycleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle   = lipgloss.NewStyle().Faint(true)
)

// Diagram renders every node and edge of a compiled diagram, and lists
// any detected cycles.
func Diagram(d *domain.ExecutableDiagram) string {
	var sb strings.Builder

	ids := make([]domain.NodeID, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := d.Nodes[id]
		sb.WriteString(nodeStyle.Render(fmt.Sprintf("%s (%s)", id, n.Type)))
		sb.WriteString("\n")
	}

	edgeIDs := make([]domain.EdgeID, 0, len(d.Edges))
	for id := range d.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Slice(edgeIDs, func(i, j int) bool { return edgeIDs[i] < edgeIDs[j] })

	for _, id := range edgeIDs {
		e := d.Edges[id]
		sb.WriteString(edgeStyle.Render(fmt.Sprintf("  %s --[%s]--> %s", e.Source, e.SourceLabel, e.Target)))
		sb.WriteString("\n")
	}

	if len(d.DependencyIndex.Cycles) > 0 {
		sb.WriteString(cycleStyle.Render(fmt.Sprintf("cycles: %v", d.DependencyIndex.Cycles)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Projection renders a UIProjection's per-node states, styled by state.
func Projection(p state.UIProjection) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("execution %s (epoch %d)\n", p.ExecutionID, p.Epoch))

	ids := make([]domain.NodeID, 0, len(p.Nodes))
	for id := range p.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		np := p.Nodes[id]
		sb.WriteString(fmt.Sprintf("  %s: %s\n", id, styleFor(np.State).Render(string(np.State))))
	}

	if p.Done {
		sb.WriteString(completedStyle.Render("done"))
		sb.WriteString("\n")
	}

	return sb.String()
}

func styleFor(s state.RuntimeState) lipgloss.Style {
	switch s {
	case state.StateCompleted:
		return completedStyle
	case state.StateRunning:
		return runningStyle
	case state.StateFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}
