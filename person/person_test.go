package person

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
	"github.com/dipeo/dipeo-core/ports"
)

func TestConversation_AppendAndAll(t *testing.T) {
	c := NewConversation()
	c.Append("alice", "bob", "hi")
	c.Append("bob", "alice", "hello")

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "hi", all[0].Content)
}

func TestApplyFilter_AllInvolved(t *testing.T) {
	msgs := []Message{
		{From: "alice", To: "bob", Content: "1"},
		{From: "bob", To: "carol", Content: "2"},
		{From: "carol", To: "alice", Content: "3"},
	}
	out := ApplyFilter(msgs, FilterAllInvolved, "alice", "")
	assert.Len(t, out, 2)
}

func TestApplyFilter_ConversationPairs(t *testing.T) {
	msgs := []Message{
		{From: "alice", To: "bob", Content: "1"},
		{From: "bob", To: "carol", Content: "2"},
		{From: "bob", To: "alice", Content: "3"},
	}
	out := ApplyFilter(msgs, FilterConversationPairs, "alice", "bob")
	assert.Len(t, out, 2)
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(ctx context.Context, req ports.ChatRequest) (ports.ChatResponse, error) {
	if s.err != nil {
		return ports.ChatResponse{}, s.err
	}
	return ports.ChatResponse{Content: s.response}, nil
}

func TestSelector_Goldfish(t *testing.T) {
	sel := NewSelector(nil)
	cfg := SelectionConfig{MemorizeTo: GoldfishMemorizeTo, Self: "a", Counterpart: "b"}
	out, err := sel.Select(context.Background(), cfg, []Message{{ID: "m1"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSelector_EmptyMemorizeToReturnsFullView(t *testing.T) {
	sel := NewSelector(nil)
	view := []Message{{ID: "m1", Content: "first"}, {ID: "m2", Content: "second"}}
	cfg := SelectionConfig{MemorizeTo: "", Self: "a", Counterpart: "b"}
	out, err := sel.Select(context.Background(), cfg, view)
	require.NoError(t, err)
	assert.Equal(t, view, out)
}

func TestSelector_FiltersByLLMSelectedIDs(t *testing.T) {
	ids, _ := json.Marshal([]string{"m2"})
	sel := NewSelector(&stubLLM{response: string(ids)})

	view := []Message{
		{ID: "m1", From: "a", To: "b", Content: "first"},
		{ID: "m2", From: "a", To: "b", Content: "second"},
	}
	cfg := SelectionConfig{MemorizeTo: "messages about the deadline", Self: "a", Counterpart: "b"}
	out, err := sel.Select(context.Background(), cfg, view)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.MessageID("m2"), out[0].ID)
}

func TestSelector_FallsBackToConversationPairsOnLLMFailure(t *testing.T) {
	sel := NewSelector(&stubLLM{err: assert.AnError})

	view := []Message{
		{ID: "m1", From: "a", To: "b", Content: "first"},
		{ID: "m2", From: "b", To: "c", Content: "second"},
	}
	cfg := SelectionConfig{MemorizeTo: "anything", Self: "a", Counterpart: "b"}
	out, err := sel.Select(context.Background(), cfg, view)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.MessageID("m1"), out[0].ID)
}
