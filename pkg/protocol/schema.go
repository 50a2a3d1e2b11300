package protocol

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// structuralSchema is the JSON Schema every manifest document must satisfy
// before semantic validation runs. It only enforces shape and enum
// membership; cross-field coherence (e.g. content_path required when
// streaming is strict) is checked separately in Validate.
const structuralSchema = `{
  "type": "object",
  "required": ["id", "protocol_version", "endpoint", "auth", "capabilities"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "protocol_version": {"type": "string"},
    "endpoint": {
      "type": "object",
      "required": ["base_url", "paths"],
      "properties": {
        "base_url": {"type": "string", "minLength": 1},
        "paths": {"type": "object", "minProperties": 1}
      }
    },
    "auth": {
      "type": "object",
      "required": ["scheme"],
      "properties": {
        "scheme": {"type": "string", "enum": ["bearer", "header", "query", "none"]},
        "header_name": {"type": "string"},
        "env_var_name": {"type": "string"},
        "prefix": {"type": "string"}
      }
    },
    "streaming": {
      "type": "object",
      "properties": {
        "decoder": {"type": "string", "enum": ["sse", "ndjson", "anthropic_sse"]}
      }
    },
    "capabilities": {
      "type": "object",
      "properties": {
        "streaming": {"type": "boolean"},
        "tools": {"type": "boolean"},
        "vision": {"type": "boolean"},
        "audio": {"type": "boolean"},
        "json_mode": {"type": "boolean"}
      }
    }
  }
}`

// ValidateStructural checks raw manifest JSON against structuralSchema,
// independent of whether it has been unmarshaled yet. YAML documents are
// validated after being normalized to JSON by the loader.
func ValidateStructural(rawJSON []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(structuralSchema)
	docLoader := gojsonschema.NewBytesLoader(rawJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return &ValidationError{Field: "$", Message: fmt.Sprintf("schema evaluation failed: %v", err)}
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return &ValidationError{
			Field:   first.Field(),
			Message: first.Description(),
		}
	}
	return nil
}
