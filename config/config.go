// Package config reads the process-wide environment surface the core
// recognizes. Every value has a documented default; nothing here panics
// on a missing or malformed variable — it falls back and moves on.
package config

import (
	"os"
	"strconv"
)

// Config is the resolved configuration surface for one process.
type Config struct {
	// EngineMaxConcurrent caps in-flight handlers per execution.
	EngineMaxConcurrent int
	// BatchMaxConcurrent caps parallel batch items within a SubDiagram.
	BatchMaxConcurrent int
	// SubDiagramMaxConcurrent caps concurrent child diagrams.
	SubDiagramMaxConcurrent int
	// EventRingMaxLen is the per-execution event ring buffer capacity.
	EventRingMaxLen int
	// SubscriberOutboxMax is the per-subscriber outbox size before detach.
	SubscriberOutboxMax int
	// StrictEnvelopes enables strict envelope contracts (no auto-wrapping)
	// when true; false retains legacy auto-wrapping for compatibility.
	StrictEnvelopes bool
	// KeepAliveIntervalS is the interval, in seconds, between KeepAlive events.
	KeepAliveIntervalS int
	// HandlerCancelGraceS is the grace period, in seconds, given to a
	// handler after cancellation before it is forcibly abandoned.
	HandlerCancelGraceS int
	// PromptTemplateCacheSize is the LRU capacity for rendered prompt templates.
	PromptTemplateCacheSize int
}

// Defaults returns the configuration surface's documented defaults.
func Defaults() Config {
	return Config{
		EngineMaxConcurrent:     20,
		BatchMaxConcurrent:      10,
		SubDiagramMaxConcurrent: 10,
		EventRingMaxLen:         1024,
		SubscriberOutboxMax:     256,
		StrictEnvelopes:         true,
		KeepAliveIntervalS:      15,
		HandlerCancelGraceS:     5,
		PromptTemplateCacheSize: 1000,
	}
}

// FromEnv returns Defaults() with every recognized environment variable
// overlaid on top. Malformed values are ignored in favor of the default.
func FromEnv() Config {
	c := Defaults()
	c.EngineMaxConcurrent = envInt("ENGINE_MAX_CONCURRENT", c.EngineMaxConcurrent)
	c.BatchMaxConcurrent = envInt("BATCH_MAX_CONCURRENT", c.BatchMaxConcurrent)
	c.SubDiagramMaxConcurrent = envInt("SUB_DIAGRAM_MAX_CONCURRENT", c.SubDiagramMaxConcurrent)
	c.EventRingMaxLen = envInt("EVENT_RING_MAX_LEN", c.EventRingMaxLen)
	c.SubscriberOutboxMax = envInt("SUBSCRIBER_OUTBOX_MAX", c.SubscriberOutboxMax)
	c.StrictEnvelopes = envBool("STRICT_ENVELOPES", c.StrictEnvelopes)
	c.KeepAliveIntervalS = envInt("KEEPALIVE_INTERVAL_S", c.KeepAliveIntervalS)
	c.HandlerCancelGraceS = envInt("HANDLER_CANCEL_GRACE_S", c.HandlerCancelGraceS)
	c.PromptTemplateCacheSize = envInt("PROMPT_TEMPLATE_CACHE", c.PromptTemplateCacheSize)
	return c
}

func envInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}
