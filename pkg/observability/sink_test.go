package observability

import "testing"

func TestRedact_ScrubsSensitiveAttributes(t *testing.T) {
	t.Parallel()

	ev := Event{
		Name: EventRequestStart,
		Attributes: map[string]interface{}{
			"api_key": "sk-should-not-leak",
			"target":  "openai/gpt-4o",
		},
	}

	clean := Redact(ev)
	if clean.Attributes["api_key"] != redactedPlaceholder {
		t.Errorf("expected api_key redacted, got %v", clean.Attributes["api_key"])
	}
	if clean.Attributes["target"] != "openai/gpt-4o" {
		t.Errorf("expected target untouched, got %v", clean.Attributes["target"])
	}
}

func TestMultiSink_FansOutToEverySink(t *testing.T) {
	t.Parallel()

	var a, b []Event
	sinkA := recordingSink{&a}
	sinkB := recordingSink{&b}
	multi := MultiSink{sinkA, sinkB}

	multi.Emit(Event{Name: EventRequestEnd})

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(a), len(b))
	}
}

type recordingSink struct {
	events *[]Event
}

func (r recordingSink) Emit(ev Event) {
	*r.events = append(*r.events, ev)
}

func TestNopSink_DiscardsEverything(t *testing.T) {
	t.Parallel()
	var s NopSink
	s.Emit(Event{Name: EventRetry})
}
