// Package adapter holds peripheral implementations of the core's ports:
// concrete integrations the engine depends on through an interface, never
// directly. Nothing under engine/, handler/, scheduler/, or person/
// imports a subpackage of adapter — dependencies flow the other way, via
// constructor injection (handler.Dependencies.LLM, etc.).
//
// # Subpackages
//
// llmclient/ implements ports.LLMClient on top of langchaingo's
// llms.Model, so PersonJob can call any backend langchaingo supports.
//
// eventsink/ mirrors the bus's event stream into external storage for
// observers that outlive a single process: eventsink/redis appends to a
// Redis stream, eventsink/postgres and eventsink/sqlite insert into a
// durable table. All three are optional — nothing in engine or scheduler
// requires a sink to be attached.
package adapter
