// Package observability defines the abstract sink interface the core
// pushes structured events to. No sink implementation is mandated by the
// core; pkg/observability/otelsink and pkg/observability/mlflow provide
// concrete adapters a caller can register.
package observability

import (
	"strings"
	"time"
)

// Level mirrors common structured-logging severities; the core only ever
// emits Info and Error.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventName enumerates the event names the runtime emits. The core
// never emits a name outside this set.
type EventName string

const (
	EventRequestStart       EventName = "request_start"
	EventPreflightResult    EventName = "preflight_gate_result"
	EventTransportRequest   EventName = "transport_request"
	EventTransportResponse  EventName = "transport_response"
	EventStreamFirstEvent   EventName = "stream_first_event"
	EventRetry              EventName = "retry"
	EventFallback           EventName = "fallback"
	EventCircuitStateChange EventName = "circuit_state_change"
	EventRequestEnd         EventName = "request_end"
)

// Event is one structured observability emission. Attributes carries
// free-form context (target, attempt, latency_ms, ...); sensitive fields
// (API keys, bearer tokens) must already be redacted by the time an Event
// reaches Sink.Emit — see Redact.
type Event struct {
	Timestamp  time.Time
	Level      Level
	Name       EventName
	Attributes map[string]interface{}
}

// Sink is the abstract interface the core pushes Events to. The core holds
// no opinion about where events end up; logging, metrics, and tracing
// backends are external collaborators that implement Sink.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event. It is the default Sink when a caller
// registers none, so the executor never has to nil-check before emitting.
type NopSink struct{}

// Emit implements Sink by discarding ev.
func (NopSink) Emit(Event) {}

// sensitiveKeys names Attributes entries Redact scrubs before an Event
// reaches a Sink.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"authorization": true,
	"bearer_token":  true,
}

const redactedPlaceholder = "[REDACTED]"

// sensitiveHeaderNames lists HTTP header names that carry credentials and
// must never reach a span attribute or log field, regardless of which Sink
// backend consumes the event. pkg/telemetry's span-attribute builder uses
// this instead of keeping its own ad hoc skip-list, so every consumer of
// Sink shares one definition of "sensitive" for headers, same as
// sensitiveKeys above does for Attributes.
var sensitiveHeaderNames = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"api-key":       true,
}

// IsSensitiveHeader reports whether name (matched case-insensitively) is a
// credential-bearing header that must be omitted from any recorded
// attributes.
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaderNames[strings.ToLower(name)]
}

// Redact returns a copy of ev with any sensitive attribute replaced by a
// placeholder, so no Sink implementation can accidentally leak credentials
// even if the caller passed them through Attributes.
func Redact(ev Event) Event {
	if len(ev.Attributes) == 0 {
		return ev
	}
	clean := make(map[string]interface{}, len(ev.Attributes))
	for k, v := range ev.Attributes {
		if sensitiveKeys[k] {
			clean[k] = redactedPlaceholder
			continue
		}
		clean[k] = v
	}
	ev.Attributes = clean
	return ev
}

// MultiSink fans one Event out to several Sinks, letting a caller register
// e.g. both a tracing sink and a metrics sink.
type MultiSink []Sink

// Emit implements Sink by calling every underlying sink in order.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
