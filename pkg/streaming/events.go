// Package streaming implements the per-request operator chain that turns a
// raw upstream byte stream into the canonical event alphabet: Decode ->
// Select -> Accumulate -> FanOut -> EventMap.
package streaming

import "github.com/digitallysavvy/go-ai-core/pkg/provider/types"

// EventType tags which CanonicalEvent variant a given Event carries.
type EventType string

const (
	EventPartialContentDelta EventType = "partial_content_delta"
	EventThinkingDelta       EventType = "thinking_delta"
	EventToolCallStarted     EventType = "tool_call_started"
	EventPartialToolCall     EventType = "partial_tool_call"
	EventToolCallEnded       EventType = "tool_call_ended"
	EventMetadata            EventType = "metadata"
	EventStreamEnd           EventType = "stream_end"
	EventStreamError         EventType = "stream_error"
)

// CanonicalEvent is the pipeline's output alphabet: a lazy, finite,
// non-restartable sequence per request. Exactly one of the payload fields
// is meaningful, selected by Type.
type CanonicalEvent struct {
	Type EventType

	// PartialContentDelta / ThinkingDelta
	Text string
	Seq  int64

	// ToolCallStarted / PartialToolCall / ToolCallEnded
	ToolCallID   string
	ToolCallName string
	ArgsDelta    string
	IsComplete   bool

	// Metadata
	Usage *types.Usage

	// StreamEnd
	FinishReason types.FinishReason

	// StreamError
	ErrorKind    string
	ErrorMessage string

	// CandidateIndex distinguishes fan-out streams; 0 for the default
	// single-candidate stream.
	CandidateIndex int
}

func contentDelta(text string, seq int64, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventPartialContentDelta, Text: text, Seq: seq, CandidateIndex: candidate}
}

func thinkingDelta(text string, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventThinkingDelta, Text: text, CandidateIndex: candidate}
}

func toolCallStarted(id, name string, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventToolCallStarted, ToolCallID: id, ToolCallName: name, CandidateIndex: candidate}
}

func partialToolCall(id, delta string, complete bool, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventPartialToolCall, ToolCallID: id, ArgsDelta: delta, IsComplete: complete, CandidateIndex: candidate}
}

func toolCallEnded(id string, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventToolCallEnded, ToolCallID: id, CandidateIndex: candidate}
}

func metadataEvent(usage *types.Usage, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventMetadata, Usage: usage, CandidateIndex: candidate}
}

func streamEnd(reason types.FinishReason, candidate int) CanonicalEvent {
	return CanonicalEvent{Type: EventStreamEnd, FinishReason: reason, CandidateIndex: candidate}
}

// StreamErrorEvent builds the terminal error event. Exported because
// pkg/cancellation's generic CancellableStream needs a constructor callers
// outside this package can invoke for the "cancelled" terminal value.
func StreamErrorEvent(kind, message string) CanonicalEvent {
	return CanonicalEvent{Type: EventStreamError, ErrorKind: kind, ErrorMessage: message}
}
