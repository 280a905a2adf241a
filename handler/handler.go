// Package handler implements the per-node-type execution logic the
// engine dispatches to. Every handler satisfies the same four-method
// contract regardless of what the node actually does.
package handler

import (
	"context"

	"github.com/dipeo/dipeo-core/domain"
)

// Handler is the contract every node type implements. The engine calls
// these in order: PrepareInputs, Execute, then OnError if Execute
// failed, and PostExecute once Execute succeeded or OnError recovered
// an output.
type Handler interface {
	// PrepareInputs may adjust the resolved input map before Execute
	// sees it (e.g. PersonJob selecting which prompt variant to use on
	// first iteration vs. subsequent ones).
	PrepareInputs(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[string]any, error)
	// Execute runs the node's actual work and returns its output body
	// per declared output label.
	Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error)
	// OnError is called when Execute returns an error, and may produce
	// a recovery output (e.g. routing to an "error" output port) instead
	// of propagating the failure.
	OnError(ctx context.Context, node domain.ExecutableNode, err error) (map[domain.HandleLabel]any, bool)
	// PostExecute runs after a successful Execute (or an OnError that
	// recovered an output), for bookkeeping that
	// must see the final output (e.g. appending to the global
	// conversation log).
	PostExecute(ctx context.Context, node domain.ExecutableNode, outputs map[domain.HandleLabel]any) error
}

// BaseHandler implements PrepareInputs/OnError/PostExecute as no-ops so
// concrete handlers only need to override what they actually customize.
type BaseHandler struct{}

func (BaseHandler) PrepareInputs(_ context.Context, _ domain.ExecutableNode, inputs map[string]any) (map[string]any, error) {
	return inputs, nil
}

func (BaseHandler) OnError(_ context.Context, _ domain.ExecutableNode, _ error) (map[domain.HandleLabel]any, bool) {
	return nil, false
}

func (BaseHandler) PostExecute(_ context.Context, _ domain.ExecutableNode, _ map[domain.HandleLabel]any) error {
	return nil
}

// Registry is a frozen, type-keyed lookup from NodeType to the Handler
// that runs it. Populated once at process start via Register; treated
// as read-only afterward, mirroring the teacher's type_registry pattern.
type Registry struct {
	handlers map[domain.NodeType]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.NodeType]Handler)}
}

// Register adds or overrides the handler for a node type.
func (r *Registry) Register(t domain.NodeType, h Handler) {
	r.handlers[t] = h
}

// Get returns the handler registered for t, or ok=false if none is.
func (r *Registry) Get(t domain.NodeType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
