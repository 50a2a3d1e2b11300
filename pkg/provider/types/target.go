package types

// ProviderTarget names one provider/model tuple the executor may dispatch
// a CanonicalRequest to, with optional per-call overrides. Immutable once
// constructed; the FallbackChain holds these by value in attempt order.
type ProviderTarget struct {
	ProviderID string
	ModelID    string

	// BaseURLOverride carries a per-target base URL. The executor does not
	// apply it: requests are sent to the manifest's endpoint.base_url.
	BaseURLOverride string

	// APIKeyOverride, when set, takes priority over the provider's
	// environment variable; an explicit per-call key (the executor's
	// Options.ExplicitAPIKey) still takes priority over it.
	APIKeyOverride string
}

// String renders the target as "provider/model", the form callers name
// targets with and CallStats.TargetUsed reports.
func (t ProviderTarget) String() string {
	return t.ProviderID + "/" + t.ModelID
}
