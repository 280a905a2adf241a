package handler

import (
	"context"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/person"
	"github.com/dipeo/dipeo-core/ports"
)

// Dependencies bundles every port and callback the built-in handlers
// need. Fields left nil mean the corresponding node type is not usable
// in that embedding. ConditionHandler returns an error naming a missing
// callback and EndpointHandler skips saving without Files; the other
// handlers call the nil port or callback and panic.
type Dependencies struct {
	Files        ports.FileStore
	Http         ports.HttpClient
	LLM          ports.LLMClient
	CodeRunner   ports.CodeRunner
	HookRunner   ports.HookRunner
	Conversation *person.Conversation
	Selector     *person.Selector
	Persons      map[domain.PersonID]domain.DomainPerson

	Schema         SchemaValidator
	RunChild       ChildRunner
	NodesExecuted  NodesExecutedChecker
	MaxIterReached MaxIterationsDetector
	EvalExpression func(expression string, inputs map[string]any) (bool, error)
	IterationCount func(nodeID domain.NodeID) int
	ResolveUser    func(ctx context.Context, prompt string, inputs map[string]any) (string, error)
	ApplyDiff      func(original, diff string, reverse bool) (string, error)
	BuildIR        func(targetFormat string, value any) (any, error)
	ParseTS        func(source string, includePositions bool) (map[string]any, error)

	// PromptCache backs rendered-template reuse for PersonJob and
	// TemplateJob. Nil disables caching without disabling either handler.
	PromptCache *person.TemplateCache

	// LegacyEnvelopeWrapping reproduces STRICT_ENVELOPES=0 behaviour for
	// CodeJob: list results get boxed as {"results": [...]}. False (the
	// zero value) matches config.DefaultConfig's StrictEnvelopes=true.
	LegacyEnvelopeWrapping bool
}

// BuildRegistry wires every built-in handler into a frozen Registry
// using the given Dependencies. Node types whose dependency is nil still
// get a registry entry; that handler's Execute will fail loudly instead
// of the node type silently having no dispatch target.
func BuildRegistry(deps Dependencies) *Registry {
	r := NewRegistry()

	r.Register(domain.NodeTypeStart, NewStartHandler())
	r.Register(domain.NodeTypeEndpoint, NewEndpointHandler(deps.Files))
	r.Register(domain.NodeTypeCondition, NewConditionHandler(deps.NodesExecuted, deps.MaxIterReached, deps.EvalExpression))
	r.Register(domain.NodeTypePersonJob, NewPersonJobHandler(deps.Conversation, deps.Selector, deps.LLM, deps.Persons, deps.IterationCount, deps.PromptCache))
	r.Register(domain.NodeTypeCodeJob, NewCodeJobHandler(deps.CodeRunner, deps.LegacyEnvelopeWrapping))
	r.Register(domain.NodeTypeApiJob, NewApiJobHandler(deps.Http))
	r.Register(domain.NodeTypeIntegratedApi, NewApiJobHandler(deps.Http))
	r.Register(domain.NodeTypeDb, NewDbHandler(deps.Files))
	r.Register(domain.NodeTypeTemplateJob, NewTemplateJobHandler(deps.PromptCache))
	r.Register(domain.NodeTypeJsonSchemaValidator, NewJsonSchemaValidatorHandler(deps.Schema))
	r.Register(domain.NodeTypeHook, NewHookHandler(deps.HookRunner))
	r.Register(domain.NodeTypeSubDiagram, NewSubDiagramHandler(deps.RunChild))
	r.Register(domain.NodeTypeUserResponse, NewUserResponseHandler(deps.ResolveUser))
	r.Register(domain.NodeTypeDiffPatch, NewDiffPatchHandler(deps.Files, deps.ApplyDiff))
	r.Register(domain.NodeTypeIrBuilder, NewIrBuilderHandler(deps.BuildIR))
	r.Register(domain.NodeTypeTypescriptAst, NewTypescriptAstHandler(deps.ParseTS))

	return r
}
