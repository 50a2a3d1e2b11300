package protocol

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseJSON decodes and structurally+semantically validates a manifest
// document authored as JSON (the preferred "dist/v1/providers/<id>.json"
// format).
func ParseJSON(raw []byte, mode ValidationMode) (*ProtocolManifest, error) {
	if err := ValidateStructural(raw); err != nil {
		return nil, err
	}

	var m ProtocolManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ValidationError{Field: "$", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := m.Validate(mode); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseYAML decodes and validates a manifest document authored as YAML
// (the backward-compatible "v1/providers/<id>.yaml" format). YAML is
// normalized to JSON first so the same structural schema applies to both
// formats.
func ParseYAML(raw []byte, mode ValidationMode) (*ProtocolManifest, error) {
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, &ValidationError{Field: "$", Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	normalized := normalizeYAMLValue(generic)

	asJSON, err := json.Marshal(normalized)
	if err != nil {
		return nil, &ValidationError{Field: "$", Message: fmt.Sprintf("YAML->JSON normalization failed: %v", err)}
	}
	return ParseJSON(asJSON, mode)
}

// normalizeYAMLValue recursively converts map[interface{}]interface{} nodes
// (which yaml.v3 produces for untyped maps) into map[string]interface{} so
// encoding/json can marshal the result.
func normalizeYAMLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, v2 := range val {
			out[k] = normalizeYAMLValue(v2)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, v2 := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLValue(v2)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, v2 := range val {
			out[i] = normalizeYAMLValue(v2)
		}
		return out
	default:
		return val
	}
}
