package handler

import (
	"context"
	"fmt"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/person"
	"github.com/dipeo/dipeo-core/ports"
)

// PersonJobHandler sends a prompt to a configured persona's LLM, using
// FirstOnlyPrompt on the node's first iteration and DefaultPrompt on
// every subsequent one.
type PersonJobHandler struct {
	BaseHandler
	Conversation *person.Conversation
	Selector     *person.Selector
	LLM          ports.LLMClient
	Persons      map[domain.PersonID]domain.DomainPerson
	// IterationCount reports how many times this node has already
	// completed, for the first-vs-default prompt choice.
	IterationCount func(nodeID domain.NodeID) int
	// Cache holds rendered prompt bodies keyed by (template, inputs),
	// since first_only_prompt/default_prompt may themselves contain
	// {{key}} placeholders filled from resolved inputs.
	Cache *person.TemplateCache
}

func NewPersonJobHandler(conv *person.Conversation, sel *person.Selector, llm ports.LLMClient, persons map[domain.PersonID]domain.DomainPerson, iterationCount func(domain.NodeID) int, cache *person.TemplateCache) *PersonJobHandler {
	return &PersonJobHandler{Conversation: conv, Selector: sel, LLM: llm, Persons: persons, IterationCount: iterationCount, Cache: cache}
}

func (h *PersonJobHandler) PrepareInputs(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[string]any, error) {
	cfg := node.PersonJob

	promptTemplate := cfg.DefaultPrompt
	if h.IterationCount != nil && h.IterationCount(node.ID) == 0 && cfg.FirstOnlyPrompt != "" {
		promptTemplate = cfg.FirstOnlyPrompt
	}
	prompt := h.renderPrompt(promptTemplate, inputs)

	view := person.ApplyFilter(h.Conversation.All(), person.FilterAllInvolved, cfg.PersonID, "")
	counterpart := otherParty(view, cfg.PersonID)
	selCfg := person.SelectionConfig{
		MemorizeTo:    cfg.MemorizeTo,
		Self:          cfg.PersonID,
		Counterpart:   counterpart,
		IgnorePersons: cfg.IgnorePersons,
		AtMost:        cfg.AtMost,
		TaskPreview:   prompt,
	}
	selected, err := h.Selector.Select(ctx, selCfg, view)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(inputs)+2)
	for k, v := range inputs {
		out[k] = v
	}
	out["prompt"] = prompt
	out["memory"] = selected
	return out, nil
}

func (h *PersonJobHandler) Execute(ctx context.Context, node domain.ExecutableNode, inputs map[string]any) (map[domain.HandleLabel]any, error) {
	cfg := node.PersonJob
	p, ok := h.Persons[cfg.PersonID]
	if !ok {
		return nil, fmt.Errorf("person_job: unknown person %q", cfg.PersonID)
	}

	messages := []ports.ChatMessage{{Role: "system", Content: fmt.Sprintf("You are %s.", p.Label)}}
	if memory, ok := inputs["memory"].([]person.Message); ok {
		for _, m := range memory {
			role := "user"
			if m.From == cfg.PersonID {
				role = "assistant"
			}
			messages = append(messages, ports.ChatMessage{Role: role, Content: m.Content})
		}
	}
	prompt, _ := inputs["prompt"].(string)
	messages = append(messages, ports.ChatMessage{Role: "user", Content: prompt})

	resp, err := h.LLM.Chat(ctx, ports.ChatRequest{
		Model:          p.LLMConfig.Model,
		Messages:       messages,
		Temperature:    p.LLMConfig.Temperature,
		ResponseSchema: cfg.StructuredSchema,
	})
	if err != nil {
		return nil, err
	}

	return map[domain.HandleLabel]any{domain.HandleDefault: resp.Content}, nil
}

func (h *PersonJobHandler) PostExecute(_ context.Context, node domain.ExecutableNode, outputs map[domain.HandleLabel]any) error {
	cfg := node.PersonJob
	content, _ := outputs[domain.HandleDefault].(string)
	h.Conversation.Append(cfg.PersonID, "", content)
	return nil
}

// renderPrompt substitutes {{key}} placeholders in tmpl from inputs,
// consulting the cache first when one is configured.
func (h *PersonJobHandler) renderPrompt(tmpl string, inputs map[string]any) string {
	if h.Cache == nil {
		return substitute(tmpl, inputs)
	}
	key := person.Key(tmpl, inputs)
	if cached, ok := h.Cache.Get(key); ok {
		return cached
	}
	rendered := substitute(tmpl, inputs)
	h.Cache.Put(key, rendered)
	return rendered
}

func otherParty(view []person.Message, self domain.PersonID) domain.PersonID {
	for _, m := range view {
		if m.From != self {
			return m.From
		}
		if m.To != self {
			return m.To
		}
	}
	return ""
}
