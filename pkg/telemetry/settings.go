// Package telemetry holds the OpenTelemetry plumbing shared by the
// observability sinks: tracer resolution, base span attributes, and error
// recording. The core itself only ever talks to observability.Sink; this
// package exists for the sink adapters that speak OTel.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Settings configures span recording. Telemetry is disabled by default and
// must be explicitly enabled.
type Settings struct {
	// IsEnabled controls whether spans are recorded at all. When false,
	// GetTracer hands back a no-op tracer.
	IsEnabled bool

	// FunctionID groups spans from one logical operation, e.g. the service
	// entry point issuing requests through the executor.
	FunctionID string

	// Metadata is attached to every span as ai.telemetry.metadata.* attributes.
	Metadata map[string]attribute.Value

	// Tracer overrides the global tracer when set.
	Tracer trace.Tracer
}

// DefaultSettings returns disabled Settings with an empty metadata map.
func DefaultSettings() *Settings {
	return &Settings{
		Metadata: make(map[string]attribute.Value),
	}
}

// WithEnabled returns a copy of Settings with IsEnabled set.
func (s *Settings) WithEnabled(enabled bool) *Settings {
	copy := *s
	copy.IsEnabled = enabled
	return &copy
}

// WithFunctionID returns a copy of Settings with FunctionID set.
func (s *Settings) WithFunctionID(id string) *Settings {
	copy := *s
	copy.FunctionID = id
	return &copy
}

// WithMetadata returns a copy of Settings with metadata merged in.
func (s *Settings) WithMetadata(metadata map[string]attribute.Value) *Settings {
	copy := *s
	copy.Metadata = make(map[string]attribute.Value)
	for k, v := range s.Metadata {
		copy.Metadata[k] = v
	}
	for k, v := range metadata {
		copy.Metadata[k] = v
	}
	return &copy
}

// WithTracer returns a copy of Settings with Tracer set.
func (s *Settings) WithTracer(tracer trace.Tracer) *Settings {
	copy := *s
	copy.Tracer = tracer
	return &copy
}
