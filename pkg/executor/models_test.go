package executor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
	"github.com/digitallysavvy/go-ai-core/pkg/registry"
	"github.com/digitallysavvy/go-ai-core/pkg/testutil"
	"github.com/digitallysavvy/go-ai-core/pkg/transport"
)

func TestExecuteModels_ResolvesAliasThroughRegistry(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"via alias"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	aliases := registry.New()
	aliases.RegisterAlias("fast", types.ProviderTarget{ProviderID: "openai", ModelID: "gpt-4o-mini"})

	tr := transport.NewWithClient(server.Client())
	exec := NewExecutor(fixedLoader(openAITestManifest(server.URL)), tr, noopResilience(), nil)
	exec.Aliases = aliases

	result, stats, err := exec.ExecuteModels(context.Background(), []string{"fast"}, simpleRequest(), Options{ExplicitAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "via alias" {
		t.Errorf("expected aliased target's response, got %q", result.Text)
	}
	if stats.TargetUsed != "openai/gpt-4o-mini" {
		t.Errorf("expected alias to resolve to openai/gpt-4o-mini, got %s", stats.TargetUsed)
	}
}

func TestExecuteModels_LiteralPairNeedsNoAlias(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	tr := transport.NewWithClient(server.Client())
	exec := NewExecutor(fixedLoader(openAITestManifest(server.URL)), tr, noopResilience(), nil)
	exec.Aliases = registry.New()

	_, stats, err := exec.ExecuteModels(context.Background(), []string{"openai/gpt-4o"}, simpleRequest(), Options{ExplicitAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TargetUsed != "openai/gpt-4o" {
		t.Errorf("unexpected target: %s", stats.TargetUsed)
	}
}

func TestExecuteModels_UnresolvableModelIsInvalidRequest(t *testing.T) {
	t.Parallel()

	issuer := &testutil.MockIssuer{
		IssueFunc: func(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.Response, error) {
			t.Error("transport must not be reached for an unresolvable model")
			return nil, errors.New("unreachable")
		},
	}
	exec := NewExecutor(fixedLoader(openAITestManifest("https://unused.test")), issuer, noopResilience(), nil)
	exec.Aliases = registry.New()

	_, _, err := exec.ExecuteModels(context.Background(), []string{"no-such-alias"}, simpleRequest(), Options{})
	if err == nil {
		t.Fatal("expected error for unresolvable model string")
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecutionError, got %T", err)
	}
	if execErr.Last.Kind != providererrors.KindInvalidRequest {
		t.Errorf("expected invalid_request, got %v", execErr.Last.Kind)
	}
}
