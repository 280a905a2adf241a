// Package envelope defines the typed, immutable message carrier that flows
// between nodes in a compiled diagram.
package envelope

import (
	"fmt"
	"maps"

	"github.com/dipeo/dipeo-core/domain"
)

// ContentType identifies the shape of an Envelope's body.
type ContentType string

const (
	// RawText bodies are plain strings.
	RawText ContentType = "raw_text"
	// Object bodies are JSON-like maps or slices.
	Object ContentType = "object"
	// ConversationState bodies carry a structured conversation payload.
	ConversationState ContentType = "conversation_state"
	// Binary bodies are raw bytes.
	Binary ContentType = "binary"
	// Error bodies carry a failure description; meta.is_error is always true.
	Error ContentType = "error"
)

// Envelope is the immutable carrier for a value flowing between nodes.
//
// No component may mutate Body's shape in place; With* methods return a
// new Envelope. Coercions between content types happen only through
// edge-declared transform rules, never inside Envelope itself.
type Envelope struct {
	body        any
	contentType ContentType
	producedBy  domain.NodeID
	traceID     domain.ExecutionID
	meta        map[string]any
}

// Body returns the envelope's payload. Callers must not mutate it in
// place; extraction methods that return maps/slices hand back the same
// underlying value deliberately so "no structural rewrites" also means
// "no copies the caller didn't ask for".
func (e Envelope) Body() any { return e.body }

// ContentType returns the envelope's declared content type.
func (e Envelope) ContentType() ContentType { return e.contentType }

// ProducedBy returns the node that emitted this envelope.
func (e Envelope) ProducedBy() domain.NodeID { return e.producedBy }

// TraceID returns the execution this envelope belongs to.
func (e Envelope) TraceID() domain.ExecutionID { return e.traceID }

// Meta returns the envelope's metadata. The returned map must be treated
// as read-only; use WithMeta to derive a new envelope instead of mutating it.
func (e Envelope) Meta() map[string]any { return e.meta }

// IsError reports whether this envelope carries an error (content type
// Error or meta["is_error"] == true).
func (e Envelope) IsError() bool {
	if e.contentType == Error {
		return true
	}
	if v, ok := e.meta["is_error"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Text returns the body as a string, failing if the content type is not RawText.
func (e Envelope) Text() (string, error) {
	if e.contentType != RawText {
		return "", fmt.Errorf("envelope: expected raw_text, got %s", e.contentType)
	}
	s, ok := e.body.(string)
	if !ok {
		return "", fmt.Errorf("envelope: raw_text body is %T, not string", e.body)
	}
	return s, nil
}

// JSON returns the body as an object (map or slice), failing otherwise.
func (e Envelope) JSON() (any, error) {
	if e.contentType != Object {
		return nil, fmt.Errorf("envelope: expected object, got %s", e.contentType)
	}
	switch e.body.(type) {
	case map[string]any, []any:
		return e.body, nil
	default:
		return nil, fmt.Errorf("envelope: object body is %T, not map/slice", e.body)
	}
}

// BinaryBody returns the body as bytes, failing otherwise.
func (e Envelope) BinaryBody() ([]byte, error) {
	if e.contentType != Binary {
		return nil, fmt.Errorf("envelope: expected binary, got %s", e.contentType)
	}
	b, ok := e.body.([]byte)
	if !ok {
		return nil, fmt.Errorf("envelope: binary body is %T, not []byte", e.body)
	}
	return b, nil
}

// FromText builds a raw_text envelope.
func FromText(body string, producedBy domain.NodeID, traceID domain.ExecutionID) Envelope {
	return Envelope{body: body, contentType: RawText, producedBy: producedBy, traceID: traceID}
}

// FromJSON builds an object envelope. body must be a map[string]any or []any;
// no auto-wrapping or key-guessing is performed.
func FromJSON(body any, producedBy domain.NodeID, traceID domain.ExecutionID) Envelope {
	return Envelope{body: body, contentType: Object, producedBy: producedBy, traceID: traceID}
}

// FromConversation builds a conversation_state envelope.
func FromConversation(messages any, producedBy domain.NodeID, traceID domain.ExecutionID) Envelope {
	return Envelope{body: messages, contentType: ConversationState, producedBy: producedBy, traceID: traceID}
}

// FromBinary builds a binary envelope.
func FromBinary(body []byte, producedBy domain.NodeID, traceID domain.ExecutionID) Envelope {
	return Envelope{body: body, contentType: Binary, producedBy: producedBy, traceID: traceID}
}

// FromError builds an error envelope with meta.is_error = true and meta.error_type set.
func FromError(message string, errorType string, producedBy domain.NodeID, traceID domain.ExecutionID) Envelope {
	return Envelope{
		body:        message,
		contentType: Error,
		producedBy:  producedBy,
		traceID:     traceID,
		meta: map[string]any{
			"is_error":   true,
			"error_type": errorType,
		},
	}
}

// WithMeta returns a new envelope with the given key/value pairs merged
// into its metadata. The receiver is never mutated.
func (e Envelope) WithMeta(kv map[string]any) Envelope {
	merged := make(map[string]any, len(e.meta)+len(kv))
	maps.Copy(merged, e.meta)
	maps.Copy(merged, kv)
	e.meta = merged
	return e
}
