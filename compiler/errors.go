package compiler

import (
	"fmt"

	"github.com/dipeo/dipeo-core/domain"
)

// CompilationError reports a single problem found during compilation,
// tagged with the phase that found it so callers can tell a validation
// failure from, say, an assembly-phase missing-start-node report.
type CompilationError struct {
	Phase  string
	NodeID string
	Reason string
}

func (e *CompilationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("compiler: [%s] node %s: %s", e.Phase, e.NodeID, e.Reason)
	}
	return fmt.Sprintf("compiler: [%s] %s", e.Phase, e.Reason)
}

// CompilationResult is Compile's return value: either a usable diagram or
// a non-empty list of errors. Compile stops at the first phase that
// reports an error, so Errors holds that phase's errors only (e.g.
// optimization never runs if edge building failed).
type CompilationResult struct {
	Diagram *domain.ExecutableDiagram
	Errors  []*CompilationError
}

func (r *CompilationResult) OK() bool { return len(r.Errors) == 0 }

func (r *CompilationResult) addf(phase, nodeID, format string, args ...any) {
	r.Errors = append(r.Errors, &CompilationError{
		Phase:  phase,
		NodeID: nodeID,
		Reason: fmt.Sprintf(format, args...),
	})
}
