package streaming

import (
	"context"
	"errors"
	"io"

	"github.com/tidwall/gjson"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

// pipelineMapper is the common surface RuleMapper and AnthropicMapper are
// adapted to so Pipeline doesn't need to know which one it's driving.
type pipelineMapper interface {
	Map(frame Frame) ([]CanonicalEvent, error)
	Finish() []CanonicalEvent
}

type ruleMapperAdapter struct {
	selector *Selector
	mapper   *RuleMapper
}

func (a *ruleMapperAdapter) Map(frame Frame) ([]CanonicalEvent, error) {
	if !gjson.ValidBytes(frame.Data) {
		return nil, ErrMalformedFrame
	}
	return a.mapper.MapSelection(a.selector.Select(frame.Data)), nil
}

func (a *ruleMapperAdapter) Finish() []CanonicalEvent { return a.mapper.Finish() }

type anthropicMapperAdapter struct{ m *AnthropicMapper }

func (a *anthropicMapperAdapter) Map(frame Frame) ([]CanonicalEvent, error) {
	return a.m.MapFrame(frame)
}

func (a *anthropicMapperAdapter) Finish() []CanonicalEvent { return a.m.Finish() }

func hasTerminal(events []CanonicalEvent) bool {
	for _, ev := range events {
		if ev.Type == EventStreamEnd || ev.Type == EventStreamError {
			return true
		}
	}
	return false
}

// Pipeline turns one upstream byte stream into a lazy, ordered sequence of
// CanonicalEvents: Decode -> (Select+FanOut+Accumulate via RuleMapper, or
// Anthropic's event-name routing via AnthropicMapper). It implements
// cancellation.Source[CanonicalEvent] so callers wrap it in a
// CancellableStream to honor request cancellation.
type Pipeline struct {
	decoder Decoder
	closer  io.Closer
	mapper  pipelineMapper

	pending []CanonicalEvent
	done    bool
}

// NewPipeline builds a Pipeline reading from r, selecting its EventMapper
// by the manifest's configured streaming decoder.
func NewPipeline(cfg protocol.StreamingConfig, r io.Reader) (*Pipeline, error) {
	dec, err := NewDecoder(cfg.Decoder, r)
	if err != nil {
		return nil, err
	}

	var m pipelineMapper
	if cfg.Decoder == protocol.DecoderAnthropicSSE {
		m = &anthropicMapperAdapter{m: NewAnthropicMapper()}
	} else {
		m = &ruleMapperAdapter{selector: NewSelector(cfg), mapper: NewRuleMapper()}
	}

	p := &Pipeline{decoder: dec, mapper: m}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p, nil
}

// Next implements cancellation.Source[CanonicalEvent]: it returns
// CanonicalEvents one at a time, decoding and mapping further frames only
// once the current frame's events have all been drained.
func (p *Pipeline) Next() (CanonicalEvent, bool) {
	for {
		if len(p.pending) > 0 {
			ev := p.pending[0]
			p.pending = p.pending[1:]
			return ev, true
		}
		if p.done {
			return CanonicalEvent{}, false
		}

		frame, err := p.decoder.Next()
		if err != nil {
			p.done = true
			if err == io.EOF {
				events := p.mapper.Finish()
				if !hasTerminal(events) {
					events = append(events, StreamErrorEvent("server_error", "stream closed before a finish_reason was observed"))
				}
				p.pending = events
				continue
			}
			p.pending = []CanonicalEvent{StreamErrorEvent(decodeErrorKind(err), err.Error())}
			continue
		}

		events, err := p.mapper.Map(frame)
		if err != nil {
			p.done = true
			p.pending = []CanonicalEvent{StreamErrorEvent("server_error", err.Error())}
			continue
		}
		if hasTerminal(events) {
			p.done = true
		}
		p.pending = events
	}
}

// decodeErrorKind classifies a decoder read failure the way
// pkg/provider/errors.Classify would, without importing it: a stream body
// closed out from under a blocked read by cancellation or an idle-read
// deadline surfaces as "cancelled"/"timeout" rather than a generic
// server_error, so callers can tell the difference from the terminal event
// alone.
func decodeErrorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "server_error"
	}
}

// Close releases the underlying reader, if it is closeable.
func (p *Pipeline) Close() {
	if p.closer != nil {
		p.closer.Close()
	}
}
