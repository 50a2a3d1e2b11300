package streaming

// FanOut expands one frame's Selection into one Selection per candidate
// when the frame carries a fan_out_path (parallel completions sharing one
// response body, e.g. n>1 generation). Frames without a fan-out array
// collapse to a single candidate-0 Selection, the common case.
type FanOut struct{}

// NewFanOut builds a FanOut operator. It is stateless: candidate identity
// is positional, so no per-request state survives between frames.
func NewFanOut() *FanOut { return &FanOut{} }

// candidateSelection pairs an expanded Selection with the candidate index
// it belongs to.
type candidateSelection struct {
	index int
	sel   Selection
}

// Expand returns one candidateSelection per fan-out entry, or a single
// entry at index 0 when sel carries no fan-out array.
func (f *FanOut) Expand(sel Selection) []candidateSelection {
	if len(sel.FanOut) == 0 {
		return []candidateSelection{{index: 0, sel: sel}}
	}

	out := make([]candidateSelection, 0, len(sel.FanOut))
	for i, entry := range sel.FanOut {
		child := Selection{}
		if c := entry.Get("content"); c.Exists() {
			child.HasContent = true
			child.Content = c.String()
		}
		if fr := entry.Get("finish_reason"); fr.Exists() {
			child.HasFinishReason = true
			child.FinishReason = fr.String()
		}
		out = append(out, candidateSelection{index: i, sel: child})
	}
	return out
}
