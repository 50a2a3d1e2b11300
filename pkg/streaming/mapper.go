package streaming

import (
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// finishReasonAlias maps the wire spellings seen across providers onto the
// closed canonical FinishReason set. Unrecognized values fall through to
// FinishReasonOther rather than failing the stream.
var finishReasonAlias = map[string]types.FinishReason{
	"stop":           types.FinishReasonStop,
	"end_turn":       types.FinishReasonStop,
	"stop_sequence":  types.FinishReasonStop,
	"length":         types.FinishReasonLength,
	"max_tokens":     types.FinishReasonLength,
	"content_filter": types.FinishReasonContentFilter,
	"tool_calls":     types.FinishReasonToolCalls,
	"tool_use":       types.FinishReasonToolCalls,
	"function_call":  types.FinishReasonToolCalls,
	"error":          types.FinishReasonError,
}

func normalizeFinishReason(raw string) types.FinishReason {
	if fr, ok := finishReasonAlias[raw]; ok {
		return fr
	}
	return types.FinishReasonOther
}

func int64Ptr(v int64) *int64 { return &v }

func usageFromSelection(sel Selection) *types.Usage {
	if !sel.HasUsage {
		return nil
	}
	u := &types.Usage{}
	if v := sel.Usage.Get("input_tokens"); v.Exists() {
		u.InputTokens = int64Ptr(v.Int())
	} else if v := sel.Usage.Get("prompt_tokens"); v.Exists() {
		u.InputTokens = int64Ptr(v.Int())
	}
	if v := sel.Usage.Get("output_tokens"); v.Exists() {
		u.OutputTokens = int64Ptr(v.Int())
	} else if v := sel.Usage.Get("completion_tokens"); v.Exists() {
		u.OutputTokens = int64Ptr(v.Int())
	}
	if v := sel.Usage.Get("total_tokens"); v.Exists() {
		u.TotalTokens = int64Ptr(v.Int())
	} else if u.InputTokens != nil && u.OutputTokens != nil {
		u.TotalTokens = int64Ptr(*u.InputTokens + *u.OutputTokens)
	}
	return u
}

// candidateState is the per-candidate bookkeeping a RuleMapper carries
// across frames: a monotonic content-delta sequence counter and the tool
// call Accumulator for that candidate's stream.
type candidateState struct {
	seq  int64
	accu *Accumulator
}

// RuleMapper is the manifest-path-driven EventMapper: it consumes
// Selections produced by a Selector and turns them into CanonicalEvents,
// handling fan-out expansion and per-candidate tool-call accumulation. It
// covers every provider whose stream can be described purely by JSONPath
// selectors (the common case).
type RuleMapper struct {
	fanout     *FanOut
	candidates map[int]*candidateState
}

// NewRuleMapper builds a RuleMapper for one request.
func NewRuleMapper() *RuleMapper {
	return &RuleMapper{fanout: NewFanOut(), candidates: make(map[int]*candidateState)}
}

func (m *RuleMapper) stateFor(idx int) *candidateState {
	st, ok := m.candidates[idx]
	if !ok {
		st = &candidateState{accu: NewAccumulator()}
		m.candidates[idx] = st
	}
	return st
}

// MapSelection folds one frame's Selection into CanonicalEvents, expanding
// fan-out candidates as needed.
func (m *RuleMapper) MapSelection(sel Selection) []CanonicalEvent {
	var events []CanonicalEvent

	for _, cs := range m.fanout.Expand(sel) {
		st := m.stateFor(cs.index)

		if cs.sel.HasContent {
			events = append(events, contentDelta(cs.sel.Content, st.seq, cs.index))
			st.seq++
		}

		events = append(events, st.accu.Observe(cs.sel, cs.index)...)

		if cs.sel.HasUsage {
			events = append(events, metadataEvent(usageFromSelection(cs.sel), cs.index))
		}

		if cs.sel.HasFinishReason {
			finishEvents, err := st.accu.Finish(cs.index)
			events = append(events, finishEvents...)
			if err != nil {
				events = append(events, StreamErrorEvent("server_error", err.Error()))
				return events
			}
			events = append(events, streamEnd(normalizeFinishReason(cs.sel.FinishReason), cs.index))
		}
	}

	return events
}

// Finish flushes every candidate's pending tool calls; called when the
// upstream stream closes without ever carrying a finish_reason.
func (m *RuleMapper) Finish() []CanonicalEvent {
	var events []CanonicalEvent
	for idx, st := range m.candidates {
		finishEvents, err := st.accu.Finish(idx)
		events = append(events, finishEvents...)
		if err != nil {
			events = append(events, StreamErrorEvent("server_error", err.Error()))
			return events
		}
	}
	return events
}
