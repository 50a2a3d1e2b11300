// Package protocol defines the declarative ProtocolManifest data model: how
// one upstream provider's chat API is shaped on the wire, how it streams,
// and how its errors map onto the shared error taxonomy.
package protocol

// KnownProtocolVersions is the set of manifest schema major versions this
// build understands. Validate rejects a manifest outside this set when
// ValidationMode.StrictStreaming is set and logs a warning otherwise.
var KnownProtocolVersions = map[string]bool{
	"v1": true,
	"v2": true,
}

// AuthScheme enumerates how the transport attaches credentials to a request.
type AuthScheme string

const (
	AuthBearer AuthScheme = "bearer"
	AuthHeader AuthScheme = "header"
	AuthQuery  AuthScheme = "query"
	AuthNone   AuthScheme = "none"
)

// StreamDecoder selects which Decoder implementation the streaming pipeline
// uses to split the raw byte stream into JSON frames.
type StreamDecoder string

const (
	DecoderSSE          StreamDecoder = "sse"
	DecoderNDJSON       StreamDecoder = "ndjson"
	DecoderAnthropicSSE StreamDecoder = "anthropic_sse"
)

// Endpoint describes the base URL and the named operation paths a manifest
// exposes (chat, embedding, ...).
type Endpoint struct {
	BaseURL string            `json:"base_url" yaml:"base_url"`
	Paths   map[string]string `json:"paths" yaml:"paths"`
}

// AuthConfig describes how to authenticate requests to this provider.
type AuthConfig struct {
	Scheme     AuthScheme `json:"scheme" yaml:"scheme"`
	HeaderName string     `json:"header_name,omitempty" yaml:"header_name,omitempty"`
	EnvVarName string     `json:"env_var_name" yaml:"env_var_name"`
	Prefix     string     `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// RequestConfig describes the canonical-to-wire transformation rules for
// the chat request body.
type RequestConfig struct {
	// RoleMap renames canonical roles (system/user/assistant/tool) to the
	// provider's wire vocabulary. Missing entries pass the role through.
	RoleMap map[string]string `json:"role_map,omitempty" yaml:"role_map,omitempty"`

	// Envelope, when set, names a top-level key the whole request body
	// (messages, sampling fields, tools, stream flag) is wrapped under.
	Envelope string `json:"envelope,omitempty" yaml:"envelope,omitempty"`

	// ToolDialect selects how ToolDef/ToolChoice are serialized: "openai",
	// "anthropic", or "google". An empty or unrecognized value is
	// serialized in the "openai" shape.
	ToolDialect string `json:"tool_dialect,omitempty" yaml:"tool_dialect,omitempty"`
}

// StreamingConfig describes how the streaming pipeline reads this
// provider's stream format.
type StreamingConfig struct {
	Decoder          StreamDecoder `json:"decoder" yaml:"decoder"`
	ContentPath      string        `json:"content_path,omitempty" yaml:"content_path,omitempty"`
	ToolCallPath     string        `json:"tool_call_path,omitempty" yaml:"tool_call_path,omitempty"`
	RolePath         string        `json:"role_path,omitempty" yaml:"role_path,omitempty"`
	FinishReasonPath string        `json:"finish_reason_path,omitempty" yaml:"finish_reason_path,omitempty"`
	UsagePath        string        `json:"usage_path,omitempty" yaml:"usage_path,omitempty"`
	FanOutPath       string        `json:"fan_out_path,omitempty" yaml:"fan_out_path,omitempty"`
}

// Capabilities declares which optional features a manifest's target
// supports; the request builder and executor consult these to fail fast
// rather than send an unsupported shape upstream.
type Capabilities struct {
	Streaming bool `json:"streaming" yaml:"streaming"`
	Tools     bool `json:"tools" yaml:"tools"`
	Vision    bool `json:"vision" yaml:"vision"`
	Audio     bool `json:"audio" yaml:"audio"`
	JSONMode  bool `json:"json_mode" yaml:"json_mode"`
}

// ProtocolManifest is the validated, immutable-after-load description of
// one provider's API shape. Once returned by the loader, a manifest is
// shared-immutable: callers must not mutate it in place.
type ProtocolManifest struct {
	ID              string            `json:"id" yaml:"id"`
	ProtocolVersion string            `json:"protocol_version" yaml:"protocol_version"`
	Endpoint        Endpoint          `json:"endpoint" yaml:"endpoint"`
	Auth            AuthConfig        `json:"auth" yaml:"auth"`
	Request         RequestConfig     `json:"request" yaml:"request"`
	Streaming       StreamingConfig   `json:"streaming" yaml:"streaming"`
	ErrorMapping    map[string]string `json:"error_mapping,omitempty" yaml:"error_mapping,omitempty"`
	Capabilities    Capabilities      `json:"capabilities" yaml:"capabilities"`
}

// PathFor returns the configured path for a named operation (e.g. "chat"),
// and whether it was present.
func (m *ProtocolManifest) PathFor(operation string) (string, bool) {
	p, ok := m.Endpoint.Paths[operation]
	return p, ok
}
