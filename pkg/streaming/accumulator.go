package streaming

import (
	"fmt"
	"strings"

	"github.com/digitallysavvy/go-ai-core/pkg/jsonparser"
)

// toolCallState tracks one in-flight tool call's reassembled argument
// buffer, grounded on the content-block bookkeeping an Anthropic-shaped
// stream needs: arguments arrive as JSON fragments keyed by call id and are
// only valid JSON once every fragment has landed.
type toolCallState struct {
	name  string
	buf   strings.Builder
	ended bool
}

// Accumulator owns tool-call state for one request: it emits
// ToolCallStarted exactly once per id, concatenates argument fragments,
// and on stream end (or an explicit end signal) emits the final
// PartialToolCall{is_complete=true} and ToolCallEnded, in that order, only
// after a successful parse of the accumulated buffer.
type Accumulator struct {
	order []string
	calls map[string]*toolCallState
}

// NewAccumulator returns an empty Accumulator for one request.
func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[string]*toolCallState)}
}

// Observe folds one Selection's tool-call fragments into accumulator state,
// returning the ToolCallStarted/PartialToolCall events produced by this
// frame, in frame order.
func (a *Accumulator) Observe(sel Selection, candidate int) []CanonicalEvent {
	var events []CanonicalEvent

	for _, frag := range sel.ToolCalls {
		id := frag.ID
		if id == "" {
			// Continuation fragment: OpenAI-style deltas after the first
			// only carry an index, not an id; resolve by position.
			if frag.Index < len(a.order) {
				id = a.order[frag.Index]
			} else {
				continue
			}
		}

		state, seen := a.calls[id]
		if !seen {
			state = &toolCallState{name: frag.Name}
			a.calls[id] = state
			a.order = append(a.order, id)
			events = append(events, toolCallStarted(id, frag.Name, candidate))
		}

		if frag.ArgsDelta != "" {
			state.buf.WriteString(frag.ArgsDelta)
			events = append(events, partialToolCall(id, frag.ArgsDelta, false, candidate))
		}
	}

	return events
}

// Finish flushes every tracked tool call: for each, attempts to parse the
// accumulated argument buffer. A successful parse emits the terminal
// PartialToolCall{is_complete=true} followed by ToolCallEnded. A parse
// failure returns a non-nil error; the caller must emit
// StreamError{kind=server_error} and stop.
func (a *Accumulator) Finish(candidate int) ([]CanonicalEvent, error) {
	var events []CanonicalEvent

	for _, id := range a.order {
		state := a.calls[id]
		if state.ended {
			continue
		}

		raw := state.buf.String()
		if raw != "" {
			result := jsonparser.Parse(raw)
			if result.State == jsonparser.StateFailed {
				return events, fmt.Errorf("tool call %s: malformed arguments JSON: %w", id, result.Err)
			}
		}

		events = append(events, partialToolCall(id, "", true, candidate))
		events = append(events, toolCallEnded(id, candidate))
		state.ended = true
	}

	return events, nil
}
