package streaming

import "testing"

func TestAnthropicMapper_TextDeltaSequencing(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()

	events, err := m.MapFrame(Frame{EventName: "content_block_start", Data: []byte(`{"index":0,"content_block":{"type":"text"}}`)})
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no events from a text block start, got %+v err=%v", events, err)
	}

	events, err = m.MapFrame(Frame{EventName: "content_block_delta", Data: []byte(`{"index":0,"delta":{"type":"text_delta","text":"hi"}}`)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventPartialContentDelta || events[0].Text != "hi" {
		t.Fatalf("unexpected content delta events: %+v", events)
	}
}

func TestAnthropicMapper_ToolUseBlockReassembly(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()

	_, err := m.MapFrame(Frame{EventName: "content_block_start", Data: []byte(
		`{"index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`)})
	if err != nil {
		t.Fatal(err)
	}

	events, err := m.MapFrame(Frame{EventName: "content_block_delta", Data: []byte(
		`{"index":0,"delta":{"type":"input_json_delta","partial_json":"{\"city\":\"nyc\"}"}}`)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventPartialToolCall || events[0].ToolCallID != "toolu_1" {
		t.Fatalf("unexpected tool call delta events: %+v", events)
	}

	events, err = m.MapFrame(Frame{EventName: "message_delta", Data: []byte(
		`{"delta":{"stop_reason":"tool_use"},"usage":{"input_tokens":10,"output_tokens":3}}`)})
	if err != nil {
		t.Fatal(err)
	}

	last := events[len(events)-1]
	if last.Type != EventStreamEnd || last.FinishReason != "tool-calls" {
		t.Fatalf("expected StreamEnd with tool-calls, got %+v", last)
	}
}

func TestAnthropicMapper_ErrorEventProducesStreamError(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()
	events, err := m.MapFrame(Frame{EventName: "error", Data: []byte(
		`{"error":{"type":"overloaded_error","message":"try again"}}`)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventStreamError || events[0].ErrorKind != "overloaded_error" {
		t.Fatalf("unexpected error event: %+v", events)
	}
}

// The canonical tool-call stream shape: content_block_start, argument
// deltas, content_block_stop, then message_stop with no message_delta in
// between. The terminal event must still be StreamEnd{tool-calls}.
func TestAnthropicMapper_MessageStopWithoutMessageDeltaEndsToolCallStream(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()
	var events []CanonicalEvent

	frames := []Frame{
		{EventName: "content_block_start", Data: []byte(`{"index":0,"content_block":{"type":"tool_use","id":"t1","name":"get_weather"}}`)},
		{EventName: "content_block_delta", Data: []byte(`{"index":0,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`)},
		{EventName: "content_block_delta", Data: []byte(`{"index":0,"delta":{"type":"input_json_delta","partial_json":"\"Tokyo\""}}`)},
		{EventName: "content_block_delta", Data: []byte(`{"index":0,"delta":{"type":"input_json_delta","partial_json":"}"}}`)},
		{EventName: "content_block_stop", Data: []byte(`{"index":0}`)},
		{EventName: "message_stop", Data: []byte(`{}`)},
	}
	for _, frame := range frames {
		out, err := m.MapFrame(frame)
		if err != nil {
			t.Fatalf("MapFrame(%s): %v", frame.EventName, err)
		}
		events = append(events, out...)
	}

	want := []EventType{
		EventToolCallStarted,
		EventPartialToolCall,
		EventPartialToolCall,
		EventPartialToolCall,
		EventPartialToolCall, // is_complete=true
		EventToolCallEnded,
		EventStreamEnd,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], ev.Type)
		}
	}

	complete := events[4]
	if complete.ArgsDelta != "" || !complete.IsComplete {
		t.Errorf("expected empty is_complete=true delta, got %+v", complete)
	}
	terminal := events[6]
	if terminal.FinishReason != "tool-calls" {
		t.Errorf("expected tool-calls finish reason, got %s", terminal.FinishReason)
	}
}

func TestAnthropicMapper_MessageStopAfterMessageDeltaIsNoOp(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()
	if _, err := m.MapFrame(Frame{EventName: "message_delta", Data: []byte(`{"delta":{"stop_reason":"end_turn"}}`)}); err != nil {
		t.Fatal(err)
	}

	events, err := m.MapFrame(Frame{EventName: "message_stop", Data: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no second terminal event, got %+v", events)
	}
}

func TestAnthropicMapper_TextOnlyMessageStopEndsWithStop(t *testing.T) {
	t.Parallel()

	m := NewAnthropicMapper()
	m.MapFrame(Frame{EventName: "content_block_start", Data: []byte(`{"index":0,"content_block":{"type":"text"}}`)})
	m.MapFrame(Frame{EventName: "content_block_delta", Data: []byte(`{"index":0,"delta":{"type":"text_delta","text":"hi"}}`)})
	m.MapFrame(Frame{EventName: "content_block_stop", Data: []byte(`{"index":0}`)})

	events, err := m.MapFrame(Frame{EventName: "message_stop", Data: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != EventStreamEnd || events[0].FinishReason != "stop" {
		t.Fatalf("expected StreamEnd{stop}, got %+v", events)
	}
}
