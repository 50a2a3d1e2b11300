// Package otelsink adapts the abstract observability.Sink onto
// OpenTelemetry spans. The core only ever talks to observability.Sink,
// never to otel directly; this adapter is one concrete backend a caller can
// register, not a dependency of the core.
package otelsink

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/go-ai-core/pkg/observability"
	"github.com/digitallysavvy/go-ai-core/pkg/telemetry"
)

// Sink emits every observability.Event as a span event on the span opened
// by the most recent request_start, or as a standalone span (immediately
// started and ended) when no such span is open. request_start/request_end
// are treated as the span boundary for one logical request; every span the
// Sink starts is a child of whatever span ctx carries.
type Sink struct {
	tracer    trace.Tracer
	ctx       context.Context
	state     spanHolder
	baseAttrs []attribute.KeyValue
}

type spanHolder struct {
	span trace.Span
}

// New builds a Sink using tracer to create spans, scoped to the lifetime
// of ctx (typically the request context the executor already threads
// through).
func New(ctx context.Context, tracer trace.Tracer) *Sink {
	return &Sink{tracer: tracer, ctx: ctx}
}

// NewFromSettings builds a Sink using telemetry.GetTracer to resolve the
// tracer from settings (a nil or disabled Settings yields a no-op tracer,
// so a caller can always construct a Sink unconditionally and let settings
// decide whether anything is recorded). baseAttrs are attached to every
// span this Sink starts for a request, ahead of the event's own attributes.
func NewFromSettings(ctx context.Context, settings *telemetry.Settings, provider, modelID string) *Sink {
	sink := New(ctx, telemetry.GetTracer(settings))
	sink.baseAttrs = telemetry.GetBaseAttributes(provider, modelID, settings, nil)
	return sink
}

// Emit implements observability.Sink.
func (s *Sink) Emit(ev observability.Event) {
	ev = observability.Redact(ev)
	attrs := toAttributes(ev.Attributes)

	switch ev.Name {
	case observability.EventRequestStart:
		startAttrs := append(append([]attribute.KeyValue{}, s.baseAttrs...), attrs...)
		_, span := s.tracer.Start(s.ctx, string(ev.Name), trace.WithAttributes(startAttrs...))
		s.state.span = span
	case observability.EventRequestEnd:
		if s.state.span != nil {
			s.state.span.AddEvent(string(ev.Name), trace.WithAttributes(attrs...))
			if ev.Level == observability.LevelError {
				telemetry.RecordErrorOnSpan(s.state.span, errFromAttrs(ev.Attributes))
			} else {
				s.state.span.SetStatus(codes.Ok, "")
			}
			s.state.span.End()
			s.state.span = nil
		}
	default:
		if s.state.span != nil {
			s.state.span.AddEvent(string(ev.Name), trace.WithAttributes(attrs...))
		} else {
			_, span := s.tracer.Start(s.ctx, string(ev.Name), trace.WithAttributes(attrs...))
			span.End()
		}
	}
}

// errFromAttrs reconstructs an error value for span status from a failed
// request_end event's attributes, since Sink.Emit only ever sees the
// structured event, not the original error.
func errFromAttrs(m map[string]interface{}) error {
	if kind, ok := m["kind"].(string); ok && kind != "" {
		return errors.New("request failed: " + kind)
	}
	if target, ok := m["target_used"].(string); ok && target != "" {
		return fmt.Errorf("request failed (target %s)", target)
	}
	return errors.New("request failed")
}

func toAttributes(m map[string]interface{}) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		default:
			out = append(out, attribute.String(k, toString(val)))
		}
	}
	return out
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "unsupported"
}
