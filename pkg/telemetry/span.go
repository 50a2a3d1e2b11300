package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/go-ai-core/pkg/observability"
)

// RecordErrorOnSpan records an error on a span and sets the span status to error.
func RecordErrorOnSpan(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetBaseAttributes returns the attributes every request span starts with:
// the target provider/model plus whatever Settings carries.
func GetBaseAttributes(
	provider string,
	modelID string,
	settings *Settings,
	headers map[string]string,
) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("ai.model.provider", provider),
		attribute.String("ai.model.id", modelID),
	}

	if settings != nil {
		if settings.FunctionID != "" {
			attrs = append(attrs, attribute.String("ai.telemetry.functionId", settings.FunctionID))
		}

		for key, value := range settings.Metadata {
			attrs = append(attrs, attribute.KeyValue{
				Key:   attribute.Key("ai.telemetry.metadata." + key),
				Value: value,
			})
		}
	}

	// Add request headers, sharing observability's sensitive-header
	// vocabulary so a span attribute never leaks what Sink.Emit would redact.
	for key, value := range headers {
		if observability.IsSensitiveHeader(key) {
			continue
		}
		attrs = append(attrs, attribute.String("ai.request.headers."+key, value))
	}

	return attrs
}
