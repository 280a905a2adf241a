// Package dipeocore is a token-driven, event-driven execution core for
// compiled directed graphs with cycles: it schedules node execution,
// resolves inputs from typed envelopes, tracks per-node runtime state,
// and publishes an ordered, replayable event stream.
//
// # Package structure
//
// domain/ holds the shared value objects: diagrams, compiled nodes and
// edges, handle specs, and ID types.
//
// compiler/ turns a DomainDiagram (whatever an external tool authored)
// into an ExecutableDiagram: validated, dependency-indexed, cycles
// detected.
//
// scheduler/ owns per-execution readiness: TokenManager tracks which
// inbound edges have fired, Dispatcher launches ready nodes under a
// concurrency cap.
//
// resolver/ turns a node's bound inbound envelopes into the flat input
// map its handler reads, applying per-edge transforms (extraction among
// them), packing, and defaults in that order.
//
// handler/ implements the per-node-type business logic (Start,
// Condition, PersonJob, CodeJob, SubDiagram, and the rest) behind a
// frozen Registry.
//
// engine/ drives one Execution from start to a terminal state, wiring
// the token manager, state tracker, and bus together.
//
// state/ tracks each node's runtime lifecycle and renders a read-only
// projection for display.
//
// bus/ is the ordered, replayable event stream a running execution
// publishes to.
//
// person/ is the LLM persona subsystem: conversation log, memory
// selection filters, and prompt template caching.
//
// envelope/ defines the immutable, typed message carrier that flows
// between nodes.
//
// adapter/ holds peripheral, swappable implementations of the core's
// ports (an LLM client, event sinks for Redis/Postgres/SQLite) that the
// core itself never imports back.
//
// visualize/ renders a compiled diagram or a running execution's state
// as styled text, for debugging.
//
// # Minimal example
//
//	result := compiler.Compile(domainDiagram)
//	if !result.OK() {
//		return result.Errors
//	}
//	registry := handler.BuildRegistry(handler.Dependencies{ /* ports */ })
//	exec := engine.New(result.Diagram, registry, maxConcurrent, ringSize)
//	projection := exec.Run(ctx)
package dipeocore
