package handler

import (
	"context"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/ports"
)

// StartHandler emits the diagram's custom_data (or an empty object) on
// its single output port. It never reads any input.
type StartHandler struct{ BaseHandler }

func NewStartHandler() *StartHandler { return &StartHandler{} }

func (h *StartHandler) Execute(_ context.Context, node domain.ExecutableNode, _ map[string]any) (map[domain.HandleLabel]any, error) {
	data := node.Start.CustomData
	if data == nil {
		data = map[string]any{}
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: data}, nil
}

// EndpointHandler is a terminal sink: it optionally persists its input to
// a file via the FileStore port and otherwise just returns it unchanged,
// since an endpoint has no outgoing edges for the engine to route.
type EndpointHandler struct {
	BaseHandler
	Files ports.FileStore
}

func NewEndpointHandler(files ports.FileStore) *EndpointHandler {
	return &EndpointHandler{Files: files}
}

func (h *EndpointHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	value := inputs["default"]

	if node.Endpoint.SaveToFile && h.Files != nil {
		content, err := marshalForFile(value)
		if err != nil {
			return nil, err
		}
		if err := h.Files.Write(ctx, node.Endpoint.FilePath, content); err != nil {
			return nil, err
		}
	}

	return map[domain.HandleLabel]any{domain.HandleDefault: value}, nil
}
