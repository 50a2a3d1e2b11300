package protocol

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

// ValidationError reports a manifest validation failure, always naming the
// offending field path.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("manifest validation failed: %s", e.Message)
}

// pathSyntax matches the subset of gjson path syntax this manifest model
// relies on: dotted field segments, numeric array indices, and "#" for
// array-length/flatten queries. It is intentionally permissive about
// gjson's richer modifiers; together with the empty-segment check in
// validatePathSyntax its job is to catch obviously malformed paths (empty
// segments, stray operators), not to be a full gjson grammar.
var pathSyntax = regexp.MustCompile(`^\$?[A-Za-z0-9_#@.\[\]*-]+$`)

func validatePathSyntax(field, path string) error {
	if path == "" {
		return nil
	}
	if !pathSyntax.MatchString(path) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("malformed path selector %q", path)}
	}
	body := strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	if body == "" || strings.HasSuffix(body, ".") || strings.Contains(body, "..") {
		return &ValidationError{Field: field, Message: fmt.Sprintf("malformed path selector %q: empty segment", path)}
	}
	return nil
}

// ValidationMode controls how strictly Validate treats optional-but-risky
// configurations (missing content_path under a set decoder, deprecated
// protocol versions). It is resolved once at manifest load time; a manifest
// swapped in by hot reload keeps validating under the mode active when it
// was loaded (see loader/cache.go).
type ValidationMode struct {
	StrictStreaming bool
}

// Validate runs the semantic checks needed beyond the structural schema:
// non-empty auth env var (for schemes that need one), parseable path
// selectors, and streaming coherence.
func (m *ProtocolManifest) Validate(mode ValidationMode) error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}

	if !KnownProtocolVersions[m.ProtocolVersion] {
		if mode.StrictStreaming {
			return &ValidationError{Field: "protocol_version", Message: fmt.Sprintf("unknown protocol_version %q", m.ProtocolVersion)}
		}
		log.Printf("protocol: manifest %q declares unknown protocol_version %q; accepted outside strict mode", m.ID, m.ProtocolVersion)
	}

	if m.Endpoint.BaseURL == "" {
		return &ValidationError{Field: "endpoint.base_url", Message: "must not be empty"}
	}
	if len(m.Endpoint.Paths) == 0 {
		return &ValidationError{Field: "endpoint.paths", Message: "must declare at least one operation path"}
	}

	switch m.Auth.Scheme {
	case AuthBearer, AuthHeader, AuthQuery:
		if m.Auth.EnvVarName == "" {
			return &ValidationError{Field: "auth.env_var_name", Message: "required for auth scheme " + string(m.Auth.Scheme)}
		}
		if m.Auth.Scheme == AuthHeader && m.Auth.HeaderName == "" {
			return &ValidationError{Field: "auth.header_name", Message: "required for header auth scheme"}
		}
	case AuthNone:
		// no credential required
	default:
		return &ValidationError{Field: "auth.scheme", Message: fmt.Sprintf("unknown scheme %q", m.Auth.Scheme)}
	}

	for field, path := range map[string]string{
		"streaming.content_path":       m.Streaming.ContentPath,
		"streaming.tool_call_path":     m.Streaming.ToolCallPath,
		"streaming.role_path":          m.Streaming.RolePath,
		"streaming.finish_reason_path": m.Streaming.FinishReasonPath,
		"streaming.usage_path":         m.Streaming.UsagePath,
		"streaming.fan_out_path":       m.Streaming.FanOutPath,
	} {
		if err := validatePathSyntax(field, path); err != nil {
			return err
		}
	}

	if m.Streaming.Decoder != "" {
		switch m.Streaming.Decoder {
		case DecoderSSE, DecoderNDJSON, DecoderAnthropicSSE:
		default:
			return &ValidationError{Field: "streaming.decoder", Message: fmt.Sprintf("unknown decoder %q", m.Streaming.Decoder)}
		}
		if mode.StrictStreaming && m.Streaming.ContentPath == "" {
			return &ValidationError{Field: "streaming.content_path", Message: "required when streaming.decoder is set in strict mode"}
		}
	}

	for code, kind := range m.ErrorMapping {
		if code == "" {
			return &ValidationError{Field: "error_mapping", Message: "error code key must not be empty"}
		}
		if kind == "" {
			return &ValidationError{Field: "error_mapping." + code, Message: "mapped error kind must not be empty"}
		}
	}

	return nil
}
