package handler

import (
	"context"
	"fmt"

	"github.com/dipeo/dipeo-core/domain"
)

// NodesExecutedChecker lets ConditionHandler ask whether a set of nodes
// has run this execution, without importing the state package directly
// (which would otherwise pull engine-level state into the handler
// layer).
type NodesExecutedChecker func(nodeIDs []domain.NodeID) bool

// MaxIterationsDetector reports whether a node has reached its
// configured MaxIteration count.
type MaxIterationsDetector func(nodeID domain.NodeID) bool

// ConditionHandler evaluates one of four condition kinds and routes the
// input to condtrue or condfalse accordingly. Unlike every other node
// type, it never fails on a false result — false is a normal outcome,
// not an error.
type ConditionHandler struct {
	BaseHandler
	NodesExecuted  NodesExecutedChecker
	MaxIterReached MaxIterationsDetector
	EvalExpression func(expression string, inputs map[string]any) (bool, error)
}

func NewConditionHandler(nodesExecuted NodesExecutedChecker, maxIter MaxIterationsDetector, evalExpr func(string, map[string]any) (bool, error)) *ConditionHandler {
	return &ConditionHandler{NodesExecuted: nodesExecuted, MaxIterReached: maxIter, EvalExpression: evalExpr}
}

func (h *ConditionHandler) Execute(_ context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.Condition
	var result bool
	var err error

	switch cfg.Kind {
	case domain.ConditionDetectMaxIterations:
		if h.MaxIterReached == nil {
			return nil, fmt.Errorf("condition: no MaxIterReached checker configured")
		}
		result = h.MaxIterReached(node.ID)
	case domain.ConditionCheckNodesExecuted:
		if h.NodesExecuted == nil {
			return nil, fmt.Errorf("condition: no NodesExecuted checker configured")
		}
		result = h.NodesExecuted(cfg.TargetNodeIDs)
	case domain.ConditionCustomExpression:
		if h.EvalExpression == nil {
			return nil, fmt.Errorf("condition: no expression evaluator configured")
		}
		result, err = h.EvalExpression(cfg.Expression, inputs)
	case domain.ConditionLLMDecision:
		// LLM-backed branching is wired by the embedder via EvalExpression
		// with cfg.Expression holding the decision prompt; the core does
		// not itself call an LLMClient from inside a condition.
		if h.EvalExpression == nil {
			return nil, fmt.Errorf("condition: no LLM decision evaluator configured")
		}
		result, err = h.EvalExpression(cfg.Expression, inputs)
	default:
		return nil, fmt.Errorf("condition: unknown kind %q", cfg.Kind)
	}

	if err != nil {
		return nil, err
	}

	label := domain.HandleCondFalse
	if result {
		label = domain.HandleCondTrue
	}
	return map[domain.HandleLabel]any{label: inputs["default"]}, nil
}
