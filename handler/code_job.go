package handler

import (
	"context"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/ports"
)

// CodeJobHandler hands inputs to the embedder's CodeRunner for the
// configured language and wraps whatever comes back as an object
// envelope. Under strict envelope mode (the default) lists and maps
// pass through unchanged; LegacyWrap reproduces the old behaviour of
// boxing a list result as {"results": [...]} for callers still on
// STRICT_ENVELOPES=0.
type CodeJobHandler struct {
	BaseHandler
	Runner     ports.CodeRunner
	LegacyWrap bool
}

func NewCodeJobHandler(runner ports.CodeRunner, legacyWrap bool) *CodeJobHandler {
	return &CodeJobHandler{Runner: runner, LegacyWrap: legacyWrap}
}

func (h *CodeJobHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.CodeJob
	result, err := h.Runner.Run(ctx, string(cfg.Language), cfg.Code, inputs)
	if err != nil {
		return nil, err
	}
	if h.LegacyWrap {
		if _, ok := result.([]any); ok {
			result = map[string]any{"results": result}
		}
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: result}, nil
}
