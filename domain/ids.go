// Package domain holds the immutable entities and value objects shared by
// every other package: diagrams, nodes, edges, handles, persons, and the
// opaque ID types that tie them together.
package domain

import "github.com/google/uuid"

// NodeID identifies a node within a single diagram.
type NodeID string

// EdgeID identifies an edge (arrow) within a single diagram.
type EdgeID string

// HandleID identifies a named attachment point on a node.
type HandleID string

// PersonID identifies a configured LLM persona.
type PersonID string

// ExecutionID identifies a single run of a diagram, unique per process.
type ExecutionID string

// MessageID identifies a single entry in a person's conversation log.
type MessageID string

// NewExecutionID generates a fresh, process-unique ExecutionID.
func NewExecutionID() ExecutionID {
	return ExecutionID(uuid.NewString())
}

// NewMessageID generates a fresh MessageID.
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}
