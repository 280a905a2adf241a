package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/ports"
)

// DbHandler performs one read/write/append/update operation against the
// FileStore port, optionally narrowing a read to a set of dot-path keys.
type DbHandler struct {
	BaseHandler
	Files ports.FileStore
}

func NewDbHandler(files ports.FileStore) *DbHandler {
	return &DbHandler{Files: files}
}

func (h *DbHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.Db

	switch cfg.Operation {
	case domain.DbRead:
		return h.read(ctx, cfg)
	case domain.DbWrite:
		return h.write(ctx, cfg, inputs["default"])
	case domain.DbAppend:
		return h.appendTo(ctx, cfg, inputs["default"])
	case domain.DbUpdate:
		return h.update(ctx, cfg, inputs["default"])
	default:
		return nil, fmt.Errorf("db: unknown operation %q", cfg.Operation)
	}
}

func (h *DbHandler) read(ctx context.Context, cfg *domain.DbConfig) (map[domain.HandleLabel]any, error) {
	raw, err := h.Files.Read(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	if !cfg.SerializeJSON {
		return map[domain.HandleLabel]any{domain.HandleDefault: string(raw)}, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("db: decoding %s: %w", cfg.Path, err)
	}
	if len(cfg.Keys) > 0 {
		decoded = selectKeys(decoded, cfg.Keys)
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: decoded}, nil
}

func (h *DbHandler) write(ctx context.Context, cfg *domain.DbConfig, value any) (map[domain.HandleLabel]any, error) {
	data, err := encodeForDb(cfg, value)
	if err != nil {
		return nil, err
	}
	if err := h.Files.Write(ctx, cfg.Path, data); err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: value}, nil
}

func (h *DbHandler) appendTo(ctx context.Context, cfg *domain.DbConfig, value any) (map[domain.HandleLabel]any, error) {
	existing, err := h.Files.Read(ctx, cfg.Path)
	if err != nil {
		existing = nil
	}

	var list []any
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &list); err != nil {
			return nil, fmt.Errorf("db: append target %s is not a JSON array: %w", cfg.Path, err)
		}
	}
	list = append(list, value)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := h.Files.Write(ctx, cfg.Path, data); err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: list}, nil
}

func (h *DbHandler) update(ctx context.Context, cfg *domain.DbConfig, value any) (map[domain.HandleLabel]any, error) {
	raw, err := h.Files.Read(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("db: update target %s is not a JSON object: %w", cfg.Path, err)
	}
	patch, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("db: update requires an object input, got %T", value)
	}
	for k, v := range patch {
		doc[k] = v
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := h.Files.Write(ctx, cfg.Path, data); err != nil {
		return nil, err
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: doc}, nil
}

func encodeForDb(cfg *domain.DbConfig, value any) ([]byte, error) {
	if !cfg.SerializeJSON {
		if s, ok := value.(string); ok {
			return []byte(s), nil
		}
	}
	return json.MarshalIndent(value, "", "  ")
}

func selectKeys(decoded any, keys []string) any {
	m, ok := decoded.(map[string]any)
	if !ok {
		return decoded
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		var cur any = m
		for _, seg := range strings.Split(k, ".") {
			obj, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = obj[seg]
		}
		out[k] = cur
	}
	return out
}
