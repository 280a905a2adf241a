package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/envelope"
	"github.com/dipeo/dipeo-core/ports"
)

// ApiJobHandler issues a single HTTP request built from the node's
// static method/url/headers and the resolved input body, routing a
// non-2xx response to the error output port instead of failing the node.
type ApiJobHandler struct {
	BaseHandler
	Client ports.HttpClient
}

func NewApiJobHandler(client ports.HttpClient) *ApiJobHandler {
	return &ApiJobHandler{Client: client}
}

func (h *ApiJobHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.ApiJob
	if node.Type == domain.NodeTypeIntegratedApi {
		cfg = node.IntegratedApi
	}

	var body []byte
	if v, ok := inputs["default"]; ok {
		var err error
		body, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("api_job: encoding request body: %w", err)
		}
	}

	status, respBody, err := h.Client.Do(ctx, cfg.Method, cfg.URL, cfg.Headers, body)
	if err != nil {
		return map[domain.HandleLabel]any{
			domain.HandleError: envelope.FromError(err.Error(), "http_error", node.ID, ""),
		}, nil
	}

	if status < 200 || status >= 300 {
		return map[domain.HandleLabel]any{
			domain.HandleError: envelope.FromError(fmt.Sprintf("http status %d", status), "http_status", node.ID, ""),
		}, nil
	}

	var decoded any
	trimmed := bytes.TrimSpace(respBody)
	looksLikeJSON := len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
	if looksLikeJSON {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			decoded = string(respBody)
		}
	} else {
		decoded = string(respBody)
	}

	return map[domain.HandleLabel]any{domain.HandleDefault: decoded}, nil
}
