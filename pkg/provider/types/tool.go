package types

// Tool describes a function the model may call. It carries only the
// declarative shape a protocol manifest needs to advertise on the wire;
// local execution, approval flows, and streaming callbacks are concerns of
// a caller built atop the core, not of the protocol layer itself.
type Tool struct {
	// Name of the tool (must be unique within a request)
	Name string `json:"name"`

	// Description of what the tool does (helps the model decide when to use it)
	Description string `json:"description"`

	// Parameters is the JSON Schema for the tool's input
	Parameters interface{} `json:"parameters"`

	// Strict enables strict schema enforcement for tool parameters, when the
	// target dialect supports it (e.g. OpenAI's strict function calling)
	Strict bool `json:"strict,omitempty"`
}

// ToolCall represents a tool invocation requested by the model.
// Arguments is the parsed JSON object assembled by the streaming
// Accumulator once all argument fragments for this call id are in.
type ToolCall struct {
	// Unique ID for this tool call
	ID string `json:"id"`

	// Name of the tool to call
	ToolName string `json:"toolName"`

	// Arguments to pass to the tool
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult represents the result of executing a tool, fed back to the
// model as a RoleTool message.
type ToolResult struct {
	// ID of the tool call this result corresponds to
	ToolCallID string `json:"toolCallId"`

	// Name of the tool that was executed
	ToolName string `json:"toolName"`

	// Result of the tool execution
	Result interface{} `json:"result"`

	// Error if tool execution failed
	Error error `json:"error,omitempty"`
}

// ToolChoice specifies how the model should choose tools
type ToolChoice struct {
	// Type of tool choice
	Type ToolChoiceType `json:"type"`

	// Specific tool name (only used when Type is ToolChoiceTool)
	ToolName string `json:"toolName,omitempty"`
}

// ToolChoiceType represents the type of tool choice
type ToolChoiceType string

const (
	// ToolChoiceAuto lets the model decide whether to call tools
	ToolChoiceAuto ToolChoiceType = "auto"

	// ToolChoiceNone prevents the model from calling any tools
	ToolChoiceNone ToolChoiceType = "none"

	// ToolChoiceRequired forces the model to call at least one tool
	ToolChoiceRequired ToolChoiceType = "required"

	// ToolChoiceTool forces the model to call a specific tool
	ToolChoiceTool ToolChoiceType = "tool"
)

// AutoToolChoice returns a ToolChoice that lets the model decide
func AutoToolChoice() ToolChoice {
	return ToolChoice{Type: ToolChoiceAuto}
}

// NoneToolChoice returns a ToolChoice that prevents tool calls
func NoneToolChoice() ToolChoice {
	return ToolChoice{Type: ToolChoiceNone}
}

// RequiredToolChoice returns a ToolChoice that requires at least one tool call
func RequiredToolChoice() ToolChoice {
	return ToolChoice{Type: ToolChoiceRequired}
}

// SpecificToolChoice returns a ToolChoice for a specific tool
func SpecificToolChoice(toolName string) ToolChoice {
	return ToolChoice{
		Type:     ToolChoiceTool,
		ToolName: toolName,
	}
}
