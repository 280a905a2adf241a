package person

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/log"
	"github.com/dipeo/dipeo-core/ports"
)

// GoldfishMemorizeTo is the MemorizeTo value meaning "no memory": the
// selector short-circuits to an empty view without consulting the LLM
// or any base filter.
const GoldfishMemorizeTo = "GOLDFISH"

// selectionSchema forces the LLM to answer with a bare JSON array of
// message IDs, not prose, so the response can be parsed without a
// free-text extraction step.
var selectionSchema = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// Selector narrows a base-filtered conversation view down to the
// messages actually relevant to the current call, using an LLM at low
// temperature to pick message IDs by criterion. If the LLM call fails
// or returns an unparseable response, the selector falls back to a
// plain conversation_pairs view between self and counterpart.
type Selector struct {
	llm ports.LLMClient
}

// NewSelector returns a Selector backed by llm.
func NewSelector(llm ports.LLMClient) *Selector {
	return &Selector{llm: llm}
}

// SelectionConfig is the per-call configuration for Select: which person
// is asking (Self), who the other party in the exchange is
// (Counterpart), which persons to exclude outright (IgnorePersons), and
// how many messages the caller wants to end up with (AtMost, nil means
// no cap).
type SelectionConfig struct {
	MemorizeTo    string
	Self          domain.PersonID
	Counterpart   domain.PersonID
	IgnorePersons []domain.PersonID
	AtMost        *int
	// TaskPreview is a short description of the task at hand, folded
	// into the selection prompt so the LLM picks messages relevant to
	// what's about to happen, not just the bare criterion string.
	TaskPreview string
}

// Select runs the full memory-selection pipeline: drop ignored persons,
// apply the criterion (LLM-driven, or a full passthrough when
// MemorizeTo is empty, or a hard empty result for GoldfishMemorizeTo),
// cap the result to AtMost (always keeping system messages), and dedupe
// by content.
func (s *Selector) Select(ctx context.Context, cfg SelectionConfig, baseView []Message) ([]Message, error) {
	view := removeIgnored(baseView, cfg.IgnorePersons)

	var selected []Message
	switch {
	case cfg.MemorizeTo == GoldfishMemorizeTo:
		selected = nil
	case cfg.MemorizeTo == "":
		selected = view
	case len(view) == 0:
		selected = view
	default:
		ids, err := s.selectIDs(ctx, cfg.MemorizeTo, cfg.TaskPreview, view)
		if err != nil {
			log.Warn("person: memory selection LLM call failed, falling back to conversation_pairs: %v", err)
			selected = ApplyFilter(view, FilterConversationPairs, cfg.Self, cfg.Counterpart)
			break
		}

		wanted := make(map[domain.MessageID]bool, len(ids))
		for _, id := range ids {
			wanted[domain.MessageID(id)] = true
		}
		for _, m := range view {
			if wanted[m.ID] {
				selected = append(selected, m)
			}
		}
	}

	selected = capAtMost(selected, cfg.AtMost)
	selected = dedupeByContent(selected)
	return selected, nil
}

// removeIgnored drops every message authored by a person in ignore.
func removeIgnored(view []Message, ignore []domain.PersonID) []Message {
	if len(ignore) == 0 {
		return view
	}
	skip := make(map[domain.PersonID]bool, len(ignore))
	for _, p := range ignore {
		skip[p] = true
	}
	var out []Message
	for _, m := range view {
		if !skip[m.From] {
			out = append(out, m)
		}
	}
	return out
}

// capAtMost keeps at most atMost non-system messages, preferring the
// most recent, plus every message sent by or to SystemPersonID regardless
// of the cap. The result is re-sorted into chronological order. A nil atMost
// means no cap.
func capAtMost(messages []Message, atMost *int) []Message {
	if atMost == nil || len(messages) <= *atMost {
		return messages
	}

	var system, rest []Message
	for _, m := range messages {
		if m.From == SystemPersonID || m.To == SystemPersonID {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	if *atMost < len(rest) {
		sort.Slice(rest, func(i, j int) bool { return rest[i].Timestamp.After(rest[j].Timestamp) })
		rest = rest[:*atMost]
	}

	out := append(system, rest...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// dedupeByContent drops later messages whose Content hashes the same as
// an earlier one's, keeping the earliest occurrence.
func dedupeByContent(messages []Message) []Message {
	seen := make(map[[32]byte]bool, len(messages))
	var out []Message
	for _, m := range messages {
		h := sha256.Sum256([]byte(m.Content))
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, m)
	}
	return out
}

func (s *Selector) selectIDs(ctx context.Context, criterion, taskPreview string, view []Message) ([]string, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("person: no LLM client configured for memory selection")
	}

	prompt := fmt.Sprintf(
		"Select the message IDs relevant to: %s\n\nUpcoming task:\n%s\n\nRespond with a JSON array of message IDs only.\n\n%s",
		criterion, taskPreview, formatMessagesForSelection(view),
	)

	resp, err := s.llm.Chat(ctx, ports.ChatRequest{
		Messages:       []ports.ChatMessage{{Role: "user", Content: prompt}},
		Temperature:    0.1,
		ResponseSchema: selectionSchema,
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(resp.Content), &ids); err != nil {
		return nil, fmt.Errorf("person: selector response was not a JSON string array: %w", err)
	}
	return ids, nil
}

func formatMessagesForSelection(view []Message) string {
	out := ""
	for _, m := range view {
		out += fmt.Sprintf("[%s] %s -> %s: %s\n", m.ID, m.From, m.To, m.Content)
	}
	return out
}
