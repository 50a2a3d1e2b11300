package registry

import (
	"sort"
	"sync"
	"testing"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

func TestResolve_LiteralProviderModelPair(t *testing.T) {
	t.Parallel()

	r := New()
	target, err := r.Resolve("openai/gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.ProviderID != "openai" || target.ModelID != "gpt-4o" {
		t.Errorf("unexpected target: %+v", target)
	}
}

func TestResolve_AliasWinsOverLiteralForm(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAlias("fast", types.ProviderTarget{ProviderID: "openai", ModelID: "gpt-4o-mini"})

	target, err := r.Resolve("fast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.String() != "openai/gpt-4o-mini" {
		t.Errorf("unexpected target: %s", target.String())
	}
}

func TestResolve_AliasCarriesOverrides(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAlias("local", types.ProviderTarget{
		ProviderID:      "openai",
		ModelID:         "gpt-4o",
		BaseURLOverride: "http://localhost:8080",
	})

	target, err := r.Resolve("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.BaseURLOverride != "http://localhost:8080" {
		t.Errorf("expected alias to keep its base URL override, got %+v", target)
	}
}

func TestResolve_RejectsMalformedModelString(t *testing.T) {
	t.Parallel()

	r := New()
	for _, model := range []string{"no-slash", "/leading", "trailing/", ""} {
		if _, err := r.Resolve(model); err == nil {
			t.Errorf("expected error for %q", model)
		}
	}
}

func TestResolveAll_PreservesChainOrder(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAlias("backup", types.ProviderTarget{ProviderID: "anthropic", ModelID: "claude-3-5-sonnet"})

	targets, err := r.ResolveAll([]string{"openai/gpt-4o", "backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 || targets[0].ProviderID != "openai" || targets[1].ProviderID != "anthropic" {
		t.Errorf("unexpected chain: %+v", targets)
	}
}

func TestResolveAll_FailsOnFirstUnresolvable(t *testing.T) {
	t.Parallel()

	r := New()
	if _, err := r.ResolveAll([]string{"openai/gpt-4o", "unknown-alias"}); err == nil {
		t.Fatal("expected error for unresolvable entry")
	}
}

func TestAliasesAndClear(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAlias("a", types.ProviderTarget{ProviderID: "p", ModelID: "m"})
	r.RegisterAlias("b", types.ProviderTarget{ProviderID: "p", ModelID: "n"})

	names := r.Aliases()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected aliases: %v", names)
	}

	r.Clear()
	if len(r.Aliases()) != 0 {
		t.Error("expected no aliases after Clear")
	}
}

func TestRegistry_ConcurrentRegisterAndResolve(t *testing.T) {
	t.Parallel()

	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RegisterAlias("fast", types.ProviderTarget{ProviderID: "openai", ModelID: "gpt-4o-mini"})
			if _, err := r.Resolve("openai/gpt-4o"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}
