// Package person implements the shared conversation log and per-call
// memory selection that back every PersonJob node. Every person in a
// diagram reads from and appends to one global, append-only
// conversation; what each call actually sees is determined by a view
// filter plus, for dual-persona diagrams, an LLM-driven selection pass.
package person

import (
	"sync"
	"time"

	"github.com/dipeo/dipeo-core/domain"
)

// Message is one entry in the global conversation.
type Message struct {
	ID        domain.MessageID
	From      domain.PersonID
	To        domain.PersonID
	Content   string
	Timestamp time.Time
}

// Conversation is the single append-only log shared by every person in
// an execution. Safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation returns an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the log and returns it with its assigned ID
// and timestamp filled in.
func (c *Conversation) Append(from, to domain.PersonID, content string) Message {
	m := Message{ID: domain.NewMessageID(), From: from, To: to, Content: content, Timestamp: time.Now()}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return m
}

// All returns every message ever appended, in order. The returned slice
// is a copy; callers may not use it to mutate the log.
func (c *Conversation) All() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}
