package handler

import (
	"context"
	"fmt"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/envelope"
	"github.com/dipeo/dipeo-core/ports"
)

// SchemaValidator abstracts JSON Schema validation, letting the core
// depend on an interface rather than picking one schema library for
// every embedder.
type SchemaValidator interface {
	Validate(schema map[string]any, value any) error
}

// JsonSchemaValidatorHandler validates its input against the node's
// static schema, routing a failure to the error port instead of failing
// the node outright.
type JsonSchemaValidatorHandler struct {
	BaseHandler
	Validator SchemaValidator
}

func NewJsonSchemaValidatorHandler(v SchemaValidator) *JsonSchemaValidatorHandler {
	return &JsonSchemaValidatorHandler{Validator: v}
}

func (h *JsonSchemaValidatorHandler) Execute(_ context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	value := inputs["default"]
	if err := h.Validator.Validate(node.JsonSchemaValidator.Schema, value); err != nil {
		return map[domain.HandleLabel]any{
			domain.HandleError: envelope.FromError(err.Error(), "schema_validation", node.ID, ""),
		}, nil
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: value}, nil
}

// HookHandler delegates to the embedder's HookRunner port.
type HookHandler struct {
	BaseHandler
	Runner ports.HookRunner
}

func NewHookHandler(runner ports.HookRunner) *HookHandler {
	return &HookHandler{Runner: runner}
}

func (h *HookHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	result, err := h.Runner.Run(ctx, node.Hook.Name, node.Hook.Args, inputs)
	if err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: result}, nil
}

// UserResponseHandler delegates waiting for human input to the
// embedder-provided resolver function, which is expected to block on
// whatever channel (CLI prompt, web form, queue) the embedder wires up.
type UserResponseHandler struct {
	BaseHandler
	Resolve func(ctx context.Context, prompt string, inputs map[string]any) (string, error)
}

func NewUserResponseHandler(resolve func(context.Context, string, map[string]any) (string, error)) *UserResponseHandler {
	return &UserResponseHandler{Resolve: resolve}
}

func (h *UserResponseHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	response, err := h.Resolve(ctx, node.UserResponse.Prompt, inputs)
	if err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: response}, nil
}

// DiffPatchHandler applies a unified diff to a file via the FileStore
// port. DryRun mode never calls Write.
type DiffPatchHandler struct {
	BaseHandler
	Files      ports.FileStore
	ApplyPatch func(original, diff string, reverse bool) (string, error)
}

func NewDiffPatchHandler(files ports.FileStore, applyPatch func(original, diff string, reverse bool) (string, error)) *DiffPatchHandler {
	return &DiffPatchHandler{Files: files, ApplyPatch: applyPatch}
}

func (h *DiffPatchHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.DiffPatch
	diff, _ := inputs["default"].(string)

	original, err := h.Files.Read(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}

	patched, err := h.ApplyPatch(string(original), diff, cfg.Mode == domain.DiffReverse)
	if err != nil {
		if cfg.Mode == domain.DiffForce {
			return map[domain.HandleLabel]any{domain.HandleDefault: string(original)}, nil
		}
		return map[domain.HandleLabel]any{
			domain.HandleError: envelope.FromError(err.Error(), "patch_failed", node.ID, ""),
		}, nil
	}

	if cfg.Mode != domain.DiffDryRun {
		if err := h.Files.Write(ctx, cfg.Path, []byte(patched)); err != nil {
			return nil, err
		}
	}

	return map[domain.HandleLabel]any{domain.HandleDefault: patched}, nil
}

// IrBuilderHandler hands its input to an embedder-supplied format
// converter; the core has no opinion on intermediate representations
// beyond passing data through.
type IrBuilderHandler struct {
	BaseHandler
	Build func(targetFormat string, value any) (any, error)
}

func NewIrBuilderHandler(build func(string, any) (any, error)) *IrBuilderHandler {
	return &IrBuilderHandler{Build: build}
}

func (h *IrBuilderHandler) Execute(_ context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	result, err := h.Build(node.IrBuilder.TargetFormat, inputs["default"])
	if err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: result}, nil
}

// TypescriptAstHandler parses its raw_text input with an
// embedder-supplied TypeScript parser and returns the resulting AST as
// an object. The core ships no TypeScript parser of its own.
type TypescriptAstHandler struct {
	BaseHandler
	Parse func(source string, includePositions bool) (map[string]any, error)
}

func NewTypescriptAstHandler(parse func(string, bool) (map[string]any, error)) *TypescriptAstHandler {
	return &TypescriptAstHandler{Parse: parse}
}

func (h *TypescriptAstHandler) Execute(_ context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	source, _ := inputs["default"].(string)
	ast, err := h.Parse(source, node.TypescriptAst.IncludePositions)
	if err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: ast}, nil
}
