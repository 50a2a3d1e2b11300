package streaming

import (
	"encoding/json"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// anthropicBlock tracks one content_block's kind and, for tool_use blocks,
// the id/name captured at content_block_start.
type anthropicBlock struct {
	isToolUse bool
	id        string
	name      string
}

// AnthropicMapper is the event-name-directed EventMapper selected when a
// manifest's streaming.decoder is anthropic_sse: unlike RuleMapper, it
// cannot rely on a single content_path because the meaning of a frame's
// body depends on which SSE event carried it (message_start,
// content_block_start/delta/stop, message_delta, message_stop).
type AnthropicMapper struct {
	seq    int64
	blocks map[int]*anthropicBlock
	accu   *Accumulator

	// sawToolUse and ended drive terminal synthesis: a stream that closes
	// via message_stop without ever carrying a message_delta still needs a
	// StreamEnd, with tool_calls as the reason when tool_use blocks were
	// observed.
	sawToolUse bool
	ended      bool
}

// NewAnthropicMapper builds an AnthropicMapper for one request. Candidate
// index is always 0: Anthropic's API does not fan out multiple
// completions onto one stream.
func NewAnthropicMapper() *AnthropicMapper {
	return &AnthropicMapper{blocks: make(map[int]*anthropicBlock), accu: NewAccumulator()}
}

// MapFrame routes one decoded Anthropic SSE frame by its event name.
func (m *AnthropicMapper) MapFrame(frame Frame) ([]CanonicalEvent, error) {
	switch frame.EventName {
	case "content_block_start":
		return m.onBlockStart(frame.Data)
	case "content_block_delta":
		return m.onBlockDelta(frame.Data)
	case "content_block_stop":
		return m.onBlockStop(frame.Data)
	case "message_delta":
		return m.onMessageDelta(frame.Data)
	case "message_stop":
		return m.onMessageStop()
	case "error":
		return m.onError(frame.Data)
	default:
		// message_start and any unrecognized event carry no canonical
		// content; ignored rather than treated as malformed.
		return nil, nil
	}
}

type contentBlockStartPayload struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
}

func (m *AnthropicMapper) onBlockStart(data []byte) ([]CanonicalEvent, error) {
	var p contentBlockStartPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	blk := &anthropicBlock{}
	if p.ContentBlock.Type == "tool_use" {
		blk.isToolUse = true
		blk.id = p.ContentBlock.ID
		blk.name = p.ContentBlock.Name
		m.sawToolUse = true
	}
	m.blocks[p.Index] = blk

	if blk.isToolUse {
		sel := Selection{ToolCalls: []ToolCallFragment{{ID: blk.id, Name: blk.name}}}
		return m.accu.Observe(sel, 0), nil
	}
	return nil, nil
}

type contentBlockDeltaPayload struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		Thinking    string `json:"thinking"`
	} `json:"delta"`
}

func (m *AnthropicMapper) onBlockDelta(data []byte) ([]CanonicalEvent, error) {
	var p contentBlockDeltaPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	blk := m.blocks[p.Index]

	switch p.Delta.Type {
	case "text_delta":
		ev := contentDelta(p.Delta.Text, m.seq, 0)
		m.seq++
		return []CanonicalEvent{ev}, nil
	case "thinking_delta":
		return []CanonicalEvent{thinkingDelta(p.Delta.Thinking, 0)}, nil
	case "input_json_delta":
		if blk == nil || !blk.isToolUse {
			return nil, nil
		}
		sel := Selection{ToolCalls: []ToolCallFragment{{ID: blk.id, ArgsDelta: p.Delta.PartialJSON}}}
		return m.accu.Observe(sel, 0), nil
	default:
		return nil, nil
	}
}

func (m *AnthropicMapper) onBlockStop(data []byte) ([]CanonicalEvent, error) {
	var p struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	delete(m.blocks, p.Index)
	return nil, nil
}

type messageDeltaPayload struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (m *AnthropicMapper) onMessageDelta(data []byte) ([]CanonicalEvent, error) {
	var p messageDeltaPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	finishEvents, err := m.accu.Finish(0)
	if err != nil {
		return append(finishEvents, StreamErrorEvent("server_error", err.Error())), nil
	}

	m.ended = true
	events := finishEvents
	if p.Usage.OutputTokens != 0 || p.Usage.InputTokens != 0 {
		events = append(events, metadataEvent(&types.Usage{
			InputTokens:  &p.Usage.InputTokens,
			OutputTokens: &p.Usage.OutputTokens,
		}, 0))
	}
	events = append(events, streamEnd(normalizeFinishReason(p.Delta.StopReason), 0))
	return events, nil
}

// onMessageStop closes the stream. When a message_delta already carried the
// stop_reason this is a no-op; a stream that goes straight to message_stop
// still gets its terminal StreamEnd here, with tool_calls as the reason
// when tool_use blocks were streamed and stop otherwise.
func (m *AnthropicMapper) onMessageStop() ([]CanonicalEvent, error) {
	if m.ended {
		return nil, nil
	}
	m.ended = true

	finishEvents, err := m.accu.Finish(0)
	if err != nil {
		return append(finishEvents, StreamErrorEvent("server_error", err.Error())), nil
	}

	reason := types.FinishReasonStop
	if m.sawToolUse {
		reason = types.FinishReasonToolCalls
	}
	return append(finishEvents, streamEnd(reason, 0)), nil
}

// Finish flushes any tool call left pending when the stream closes without
// a message_delta or message_stop (a malformed or truncated connection).
func (m *AnthropicMapper) Finish() []CanonicalEvent {
	events, err := m.accu.Finish(0)
	if err != nil {
		return append(events, StreamErrorEvent("server_error", err.Error()))
	}
	return events
}

func (m *AnthropicMapper) onError(data []byte) ([]CanonicalEvent, error) {
	var p struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return []CanonicalEvent{StreamErrorEvent("server_error", string(data))}, nil
	}
	return []CanonicalEvent{StreamErrorEvent(p.Error.Type, p.Error.Message)}, nil
}
