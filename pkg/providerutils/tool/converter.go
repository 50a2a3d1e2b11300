package tool

import (
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// ToolShape describes, as data, how one manifest dialect serializes a tool
// declaration onto the wire. Supporting a new dialect means adding a Shape
// entry, never a new Go function — the conversion logic in ToWireFormat is
// the same for every dialect, only the field names and wrapping differ.
type ToolShape struct {
	NameKey        string
	DescriptionKey string
	ParametersKey  string
	StrictKey      string // empty if this dialect has no strict-mode field

	// WrapperType/WrapperKey nest the function definition one level down,
	// e.g. OpenAI's {"type":"function","function":{...}}. Both empty means
	// the definition itself is the wire entry (Anthropic, Google).
	WrapperType string
	WrapperKey  string

	// ArrayWrapperKey, set, wraps the whole converted array as the single
	// element of a one-key object (Google's "functionDeclarations").
	ArrayWrapperKey string
}

// ToolShapes maps a manifest's tool_dialect value to its wire shape. This is
// the one place new dialects are registered; everything downstream reads it
// as data.
var ToolShapes = map[string]ToolShape{
	"openai": {
		NameKey: "name", DescriptionKey: "description", ParametersKey: "parameters", StrictKey: "strict",
		WrapperType: "function", WrapperKey: "function",
	},
	"anthropic": {
		NameKey: "name", DescriptionKey: "description", ParametersKey: "input_schema",
	},
	"google": {
		NameKey: "name", DescriptionKey: "description", ParametersKey: "parameters",
		ArrayWrapperKey: "functionDeclarations",
	},
}

// ShapeFor resolves dialect to its ToolShape, defaulting to the OpenAI
// shape for an unset or unrecognized dialect, matching RequestConfig's
// documented default.
func ShapeFor(dialect string) ToolShape {
	if shape, ok := ToolShapes[dialect]; ok {
		return shape
	}
	return ToolShapes["openai"]
}

// ToWireFormat converts tools to dialect's wire shape, driven entirely by
// the ToolShape data ShapeFor resolves rather than a per-provider function.
func ToWireFormat(tools []types.Tool, dialect string) interface{} {
	shape := ShapeFor(dialect)

	converted := make([]map[string]interface{}, len(tools))
	for i, t := range tools {
		def := map[string]interface{}{
			shape.NameKey:        t.Name,
			shape.DescriptionKey: t.Description,
		}
		if t.Parameters != nil {
			def[shape.ParametersKey] = t.Parameters
		}
		if t.Strict && shape.StrictKey != "" {
			def[shape.StrictKey] = true
		}

		if shape.WrapperType != "" {
			converted[i] = map[string]interface{}{"type": shape.WrapperType, shape.WrapperKey: def}
		} else {
			converted[i] = def
		}
	}

	if shape.ArrayWrapperKey != "" {
		return []map[string]interface{}{{shape.ArrayWrapperKey: converted}}
	}
	return converted
}

// choiceShape carries the per-dialect literals ConvertToolChoice selects
// among by choice.Type — data, same as ToolShape above. ToolFunc is kept as
// a function rather than a literal because each dialect's "pin to this
// named tool" wire shape is structurally different (OpenAI nests under
// function.name, Anthropic is flat, Google rewrites the whole field into a
// functionCallingConfig), not just a field-name rename.
type choiceShape struct {
	Auto, None, Required interface{}
	ToolFunc             func(toolName string) interface{}
}

var choiceShapes = map[string]choiceShape{
	"openai": {
		Auto: "auto", None: "none", Required: "required",
		ToolFunc: func(name string) interface{} {
			return map[string]interface{}{"type": "function", "function": map[string]interface{}{"name": name}}
		},
	},
	"anthropic": {
		Auto:     map[string]interface{}{"type": "auto"},
		None:     nil, // Anthropic has no explicit "none"
		Required: map[string]interface{}{"type": "any"},
		ToolFunc: func(name string) interface{} {
			return map[string]interface{}{"type": "tool", "name": name}
		},
	},
	"google": {
		Auto: "AUTO", None: "NONE", Required: "ANY",
		ToolFunc: func(name string) interface{} {
			return map[string]interface{}{
				"functionCallingConfig": map[string]interface{}{
					"mode":                 "ANY",
					"allowedFunctionNames": []string{name},
				},
			}
		},
	},
}

// ConvertToolChoice converts a unified ToolChoice to dialect's wire format,
// resolving the dialect's literals/behavior from choiceShapes rather than a
// per-provider function.
func ConvertToolChoice(choice types.ToolChoice, dialect string) interface{} {
	shape, ok := choiceShapes[dialect]
	if !ok {
		shape = choiceShapes["openai"]
	}

	switch choice.Type {
	case types.ToolChoiceNone:
		return shape.None
	case types.ToolChoiceRequired:
		return shape.Required
	case types.ToolChoiceTool:
		if shape.ToolFunc != nil {
			return shape.ToolFunc(choice.ToolName)
		}
		return shape.Auto
	default:
		return shape.Auto
	}
}
