package streaming

import (
	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// MapNonStreaming runs one complete JSON response through the same
// Selector/RuleMapper pair a streaming frame would use, so a non-streaming
// call produces the identical canonical alphabet as a streaming one: a
// single PartialContentDelta carrying the full text, any tool calls fully
// accumulated, and exactly one terminal StreamEnd. Callers that only ever
// drive the non-streaming path still get a uniform CanonicalEvent sequence
// to hand to the same downstream consumer a streaming caller uses.
func MapNonStreaming(cfg protocol.StreamingConfig, raw []byte) []CanonicalEvent {
	selector := NewSelector(cfg)
	mapper := NewRuleMapper()

	events := mapper.MapSelection(selector.Select(raw))
	if !hasTerminal(events) {
		events = append(events, mapper.Finish()...)
	}
	if !hasTerminal(events) {
		events = append(events, streamEnd(types.FinishReasonStop, 0))
	}
	return events
}
