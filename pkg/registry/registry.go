// Package registry holds the process-wide alias table the executor's
// ExecuteModels/ExecuteStreamModels entry points resolve model strings
// through: a caller can hand the executor "fast" instead of repeating a
// full provider/model pair at every call site. The payload is the plain,
// serializable ProviderTarget; surface-API model objects are out of scope
// for this core.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// Registry maps alias names to ProviderTargets and resolves literal
// "provider/model" strings. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]types.ProviderTarget
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{aliases: make(map[string]types.ProviderTarget)}
}

// defaultRegistry backs the package-level helpers; hosts that need
// isolation (tests, multi-tenant processes) build their own with New.
var defaultRegistry = New()

// Default returns the process-wide Registry.
func Default() *Registry {
	return defaultRegistry
}

// RegisterAlias binds alias to target, replacing any previous binding.
func (r *Registry) RegisterAlias(alias string, target types.ProviderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// Resolve turns model into a ProviderTarget: a registered alias wins, and
// anything else must be a literal "provider/model" pair (the same form
// ProviderTarget.String renders and CallStats.TargetUsed reports).
func (r *Registry) Resolve(model string) (types.ProviderTarget, error) {
	r.mu.RLock()
	target, ok := r.aliases[model]
	r.mu.RUnlock()
	if ok {
		return target, nil
	}

	providerID, modelID, found := strings.Cut(model, "/")
	if !found || providerID == "" || modelID == "" {
		return types.ProviderTarget{}, fmt.Errorf("registry: %q is neither a registered alias nor a provider/model pair", model)
	}
	return types.ProviderTarget{ProviderID: providerID, ModelID: modelID}, nil
}

// ResolveAll resolves every entry of models in order, so a caller can name
// a whole fallback chain by alias.
func (r *Registry) ResolveAll(models []string) ([]types.ProviderTarget, error) {
	targets := make([]types.ProviderTarget, 0, len(models))
	for _, model := range models {
		target, err := r.Resolve(model)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// Aliases returns the registered alias names, for diagnostics.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	return names
}

// Clear drops every alias, for process shutdown or test isolation.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = make(map[string]types.ProviderTarget)
}

// RegisterAlias binds alias to target in the default Registry.
func RegisterAlias(alias string, target types.ProviderTarget) {
	defaultRegistry.RegisterAlias(alias, target)
}

// Resolve resolves model through the default Registry.
func Resolve(model string) (types.ProviderTarget, error) {
	return defaultRegistry.Resolve(model)
}
