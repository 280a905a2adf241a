package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/scheduler"
)

// ChildRunner runs a compiled child diagram to completion and returns
// its endpoint output. The engine package provides the concrete
// implementation; handler only depends on the function shape, to avoid
// an import cycle (engine depends on handler to build its registry).
type ChildRunner func(ctx context.Context, diagram *domain.ExecutableDiagram, input any) (any, error)

// SubDiagramHandler runs a nested diagram once, or once per item of a
// batch input, fanning batch items out under the node's own
// MaxConcurrent cap using the same SafeGo pattern the scheduler uses for
// top-level nodes.
type SubDiagramHandler struct {
	BaseHandler
	RunChild ChildRunner
}

func NewSubDiagramHandler(run ChildRunner) *SubDiagramHandler {
	return &SubDiagramHandler{RunChild: run}
}

func (h *SubDiagramHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.SubDiagram
	if cfg.Child == nil {
		return nil, fmt.Errorf("sub_diagram: no compiled child diagram attached to node %s", node.ID)
	}

	if !cfg.Batch {
		result, err := h.RunChild(ctx, cfg.Child, inputs["default"])
		if err != nil {
			return nil, err
		}
		return map[domain.HandleLabel]any{domain.HandleResults: result}, nil
	}

	items, ok := inputs[cfg.BatchInputKey].([]any)
	if !ok {
		return nil, fmt.Errorf("sub_diagram: batch input key %q is not a list", cfg.BatchInputKey)
	}

	results := make([]any, len(items))
	errs := make([]error, len(items))
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		sem <- struct{}{}
		scheduler.SafeGo(&wg, func() {
			defer func() { <-sem }()
			r, err := h.RunChild(ctx, cfg.Child, item)
			results[i] = r
			errs[i] = err
		}, func(recovered any) {
			errs[i] = fmt.Errorf("sub_diagram: panic running batch item %d: %v", i, recovered)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return map[domain.HandleLabel]any{domain.HandleResults: packBatchOutput(cfg, results)}, nil
}

func packBatchOutput(cfg *domain.SubDiagramConfig, results []any) any {
	if cfg.OutputMode == domain.OutputRichObject {
		key := cfg.ResultKey
		if key == "" {
			key = "results"
		}
		return map[string]any{key: results, "count": len(results)}
	}
	return results
}
