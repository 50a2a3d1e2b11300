package types

// SamplingParams holds the provider-agnostic generation knobs every
// manifest dialect knows how to translate into its own wire shape.
type SamplingParams struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// CanonicalRequest is the provider-agnostic request the caller builds once;
// the request builder turns it into a target-specific wire body using the
// resolved ProtocolManifest.
type CanonicalRequest struct {
	Messages   []Message      `json:"messages"`
	Tools      []Tool         `json:"tools,omitempty"`
	ToolChoice *ToolChoice    `json:"toolChoice,omitempty"`
	Sampling   SamplingParams `json:"sampling"`
	Stream     bool           `json:"stream,omitempty"`

	// Extensions carries provider-specific fields the canonical model has no
	// opinion about; manifests may splice these into the wire body verbatim.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}
