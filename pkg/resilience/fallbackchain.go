package resilience

import "sort"

// FallbackTarget pairs a provider/model target identifier with a weight
// that breaks tie-order only; weights never randomize selection order.
type FallbackTarget struct {
	Target string
	Weight int
}

// FallbackChain is the ordered list of alternate targets the executor
// advances through on a fallbackable failure. Fallback does not reset a
// target's own retry budget mid-chain; each target gets a fresh retry
// count when the executor moves to it.
type FallbackChain struct {
	targets []FallbackTarget
}

// NewFallbackChain builds a chain ordered by descending weight, with ties
// broken by input order (a stable sort).
func NewFallbackChain(targets []FallbackTarget) *FallbackChain {
	ordered := make([]FallbackTarget, len(targets))
	copy(ordered, targets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})
	return &FallbackChain{targets: ordered}
}

// Len reports the number of targets in the chain.
func (c *FallbackChain) Len() int { return len(c.targets) }

// At returns the target at position i.
func (c *FallbackChain) At(i int) FallbackTarget { return c.targets[i] }

// Targets returns the ordered target list.
func (c *FallbackChain) Targets() []FallbackTarget {
	out := make([]FallbackTarget, len(c.targets))
	copy(out, c.targets)
	return out
}
