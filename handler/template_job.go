package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dipeo/dipeo-core/content"
	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/person"
)

// TemplateJobHandler renders its static Template against the resolved
// inputs. Format text does a flat {{key}} substitution; format markdown
// does the same substitution and then renders the result to HTML. A
// rendered body is cached by (template, inputs) so repeated iterations
// over the same template skip the substitution pass.
type TemplateJobHandler struct {
	BaseHandler
	Cache *person.TemplateCache
}

func NewTemplateJobHandler(cache *person.TemplateCache) *TemplateJobHandler {
	return &TemplateJobHandler{Cache: cache}
}

func (h *TemplateJobHandler) Execute(_ context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.TemplateJob

	var cacheKey string
	if h.Cache != nil {
		cacheKey = person.Key(cfg.Template, inputs)
		if cached, ok := h.Cache.Get(cacheKey); ok {
			return map[domain.HandleLabel]any{domain.HandleDefault: cached}, nil
		}
	}

	rendered := substitute(cfg.Template, inputs)

	var out string
	switch cfg.Format {
	case domain.TemplateMarkdown:
		out = string(content.RenderMarkdown(rendered))
	case domain.TemplateText, "":
		out = rendered
	default:
		return nil, fmt.Errorf("template_job: unknown format %q", cfg.Format)
	}

	if h.Cache != nil {
		h.Cache.Put(cacheKey, out)
	}
	return map[domain.HandleLabel]any{domain.HandleDefault: out}, nil
}

func substitute(tmpl string, inputs map[string]any) string {
	out := tmpl
	for k, v := range inputs {
		out = strings.ReplaceAll(out, "{{"+k+"}}", fmt.Sprintf("%v", v))
	}
	return out
}
