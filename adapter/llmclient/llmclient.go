// Package llmclient adapts langchaingo's llms.Model to ports.LLMClient.
// It is a peripheral adapter: nothing under engine, handler, scheduler,
// or person imports it directly — the core only ever sees ports.LLMClient.
package llmclient

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/dipeo/dipeo-core/ports"
)

// Client wraps a langchaingo llms.Model as a ports.LLMClient.
type Client struct {
	model llms.Model
}

var _ ports.LLMClient = (*Client)(nil)

// New wraps an existing langchaingo model.
func New(model llms.Model) *Client {
	return &Client{model: model}
}

// Chat converts req into a langchaingo GenerateContent call and collects
// the first choice's content back into a ports.ChatResponse.
func (c *Client) Chat(ctx context.Context, req ports.ChatRequest) (ports.ChatResponse, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llms.MessageContent{
			Role:  roleFor(m.Role),
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.ResponseSchema != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return ports.ChatResponse{}, fmt.Errorf("llmclient: generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ports.ChatResponse{}, fmt.Errorf("llmclient: empty response from model")
	}

	choice := resp.Choices[0]
	promptTokens, _ := choice.GenerationInfo["PromptTokens"].(int)
	outputTokens, _ := choice.GenerationInfo["CompletionTokens"].(int)
	return ports.ChatResponse{
		Content:      choice.Content,
		PromptTokens: promptTokens,
		OutputTokens: outputTokens,
	}, nil
}

func roleFor(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
