package streaming

import (
	"github.com/tidwall/gjson"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

// ToolCallFragment is one array element extracted from a frame's
// tool_call_path: an id (present only on the fragment that starts a call),
// an optional name, and an arguments-JSON delta to append to that call's
// buffer.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	ArgsDelta string
}

// Selection is everything a Selector could pull out of one decoded frame.
// Any field may be the zero value if the frame didn't carry it.
type Selection struct {
	HasContent bool
	Content    string

	ToolCalls []ToolCallFragment

	HasFinishReason bool
	FinishReason    string

	HasUsage bool
	Usage    gjson.Result

	FanOut []gjson.Result
}

// Selector evaluates a manifest's streaming paths against decoded frames.
// It never materializes provider-specific types: everything downstream
// reads through path selectors over the frame's raw JSON tree.
type Selector struct {
	cfg protocol.StreamingConfig
}

// NewSelector builds a Selector bound to one manifest's streaming paths.
func NewSelector(cfg protocol.StreamingConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select evaluates all configured paths against one frame, preserving the
// order of incoming frames (the caller is expected to call Select once per
// Frame in decode order).
func (s *Selector) Select(data []byte) Selection {
	var sel Selection

	if s.cfg.ContentPath != "" {
		r := gjson.GetBytes(data, s.cfg.ContentPath)
		if r.Exists() && r.String() != "" {
			sel.HasContent = true
			sel.Content = r.String()
		}
	}

	if s.cfg.ToolCallPath != "" {
		r := gjson.GetBytes(data, s.cfg.ToolCallPath)
		if r.IsArray() {
			r.ForEach(func(_, item gjson.Result) bool {
				frag := ToolCallFragment{
					Index:     int(item.Get("index").Int()),
					ID:        item.Get("id").String(),
					Name:      item.Get("function.name").String(),
					ArgsDelta: item.Get("function.arguments").String(),
				}
				sel.ToolCalls = append(sel.ToolCalls, frag)
				return true
			})
		} else if r.Exists() {
			sel.ToolCalls = append(sel.ToolCalls, ToolCallFragment{
				ID:        r.Get("id").String(),
				Name:      r.Get("function.name").String(),
				ArgsDelta: r.Get("function.arguments").String(),
			})
		}
	}

	if s.cfg.FinishReasonPath != "" {
		r := gjson.GetBytes(data, s.cfg.FinishReasonPath)
		if r.Exists() && r.String() != "" {
			sel.HasFinishReason = true
			sel.FinishReason = r.String()
		}
	}

	if s.cfg.UsagePath != "" {
		r := gjson.GetBytes(data, s.cfg.UsagePath)
		if r.Exists() {
			sel.HasUsage = true
			sel.Usage = r
		}
	}

	if s.cfg.FanOutPath != "" {
		r := gjson.GetBytes(data, s.cfg.FanOutPath)
		if r.IsArray() {
			sel.FanOut = r.Array()
		}
	}

	return sel
}
