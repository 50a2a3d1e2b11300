package resilience

import "testing"

func TestFallbackChain_OrdersByWeightDescending(t *testing.T) {
	t.Parallel()

	chain := NewFallbackChain([]FallbackTarget{
		{Target: "openai/gpt-4o", Weight: 1},
		{Target: "anthropic/claude-3-5-sonnet", Weight: 5},
		{Target: "google/gemini-pro", Weight: 3},
	})

	if chain.Len() != 3 {
		t.Fatalf("expected 3 targets, got %d", chain.Len())
	}
	if chain.At(0).Target != "anthropic/claude-3-5-sonnet" {
		t.Errorf("expected anthropic first, got %s", chain.At(0).Target)
	}
	if chain.At(1).Target != "google/gemini-pro" {
		t.Errorf("expected google second, got %s", chain.At(1).Target)
	}
	if chain.At(2).Target != "openai/gpt-4o" {
		t.Errorf("expected openai last, got %s", chain.At(2).Target)
	}
}

func TestFallbackChain_TiesBreakByInputOrder(t *testing.T) {
	t.Parallel()

	chain := NewFallbackChain([]FallbackTarget{
		{Target: "a", Weight: 1},
		{Target: "b", Weight: 1},
		{Target: "c", Weight: 1},
	})

	got := []string{chain.At(0).Target, chain.At(1).Target, chain.At(2).Target}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tie-break order mismatch at %d: got %s want %s", i, got[i], want[i])
		}
	}
}
