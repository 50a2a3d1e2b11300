package types

// MessageRole represents the role of a message sender in a conversation
type MessageRole string

const (
	// RoleSystem represents system instructions
	RoleSystem MessageRole = "system"
	// RoleUser represents user input
	RoleUser MessageRole = "user"
	// RoleAssistant represents model responses
	RoleAssistant MessageRole = "assistant"
	// RoleTool represents tool execution results
	RoleTool MessageRole = "tool"
)

// Message represents a single message in a conversation
type Message struct {
	// Role of the message sender
	Role MessageRole `json:"role"`

	// Content parts of the message (text, images, tool results, etc.)
	Content []ContentPart `json:"content"`

	// Optional name for the message sender
	Name string `json:"name,omitempty"`
}

// ContentPart is one block of message content. The request builder switches
// on the concrete type to pick the wire shape a manifest's dialect expects.
type ContentPart interface {
	// ContentType returns the type of content ("text", "image", "tool-result", etc.)
	ContentType() string
}

// TextContent represents text content in a message
type TextContent struct {
	Text string `json:"text"`
}

// ContentType implements ContentPart interface
func (t TextContent) ContentType() string {
	return "text"
}

// ReasoningContent carries a model's exposed reasoning/thinking text, so a
// caller can round-trip thinking blocks through subsequent message history.
type ReasoningContent struct {
	Text string `json:"text"`
}

// ContentType implements ContentPart interface
func (r ReasoningContent) ContentType() string {
	return "reasoning"
}

// ImageContent represents image content in a message
type ImageContent struct {
	// Image data as bytes
	Image []byte `json:"image"`

	// MIME type of the image (e.g., "image/png", "image/jpeg")
	MimeType string `json:"mimeType"`

	// Optional URL if image is hosted remotely
	URL string `json:"url,omitempty"`
}

// ContentType implements ContentPart interface
func (i ImageContent) ContentType() string {
	return "image"
}

// AudioContent represents audio content in a message
type AudioContent struct {
	// Audio data as bytes
	Audio []byte `json:"audio"`

	// MIME type of the audio (e.g., "audio/wav", "audio/mp3")
	MimeType string `json:"mimeType"`

	// Optional URL if audio is hosted remotely
	URL string `json:"url,omitempty"`
}

// ContentType implements ContentPart interface
func (a AudioContent) ContentType() string {
	return "audio"
}

// AssistantToolCallContent represents a tool invocation requested by the
// assistant, carried in message history so a later request can round-trip
// the exact call the model made (e.g. after ToolResult feedback).
type AssistantToolCallContent struct {
	// ID of the tool call
	ID string `json:"id"`

	// Name of the tool invoked
	ToolName string `json:"toolName"`

	// Arguments passed to the tool, as raw wire JSON
	ArgumentsJSON string `json:"argumentsJson"`
}

// ContentType implements ContentPart interface
func (t AssistantToolCallContent) ContentType() string {
	return "tool-call"
}

// ToolResultContent represents a tool execution result in a message
type ToolResultContent struct {
	// ID of the tool call this result corresponds to
	ToolCallID string `json:"toolCallId"`

	// Name of the tool that was executed
	ToolName string `json:"toolName"`

	// Optional error if tool execution failed
	Error string `json:"error,omitempty"`

	// Structured output of the execution
	Output *ToolResultOutput `json:"output,omitempty"`
}

// ContentType implements ContentPart interface
func (t ToolResultContent) ContentType() string {
	return "tool-result"
}

// ToolResultOutputType represents the type of tool result output
type ToolResultOutputType string

const (
	// ToolResultOutputText represents simple text output
	ToolResultOutputText ToolResultOutputType = "text"

	// ToolResultOutputJSON represents JSON output
	ToolResultOutputJSON ToolResultOutputType = "json"

	// ToolResultOutputContent represents structured content with multiple blocks
	ToolResultOutputContent ToolResultOutputType = "content"

	// ToolResultOutputError represents error output
	ToolResultOutputError ToolResultOutputType = "error"
)

// ToolResultOutput represents structured tool result output
type ToolResultOutput struct {
	// Type of the output
	Type ToolResultOutputType `json:"type"`

	// Value for text/json/error types
	Value interface{} `json:"value,omitempty"`

	// Content blocks for content type (array of content blocks)
	Content []ToolResultContentBlock `json:"content,omitempty"`
}

// ToolResultContentBlock is one block of a rich tool result
type ToolResultContentBlock interface {
	ToolResultContentType() string
}

// TextContentBlock represents text content in tool results
type TextContentBlock struct {
	// Text content
	Text string `json:"text"`
}

// ToolResultContentType implements ToolResultContentBlock interface
func (t TextContentBlock) ToolResultContentType() string {
	return "text"
}

// ImageContentBlock represents an image in tool results
type ImageContentBlock struct {
	// Image data as bytes
	Data []byte `json:"data"`

	// MIME type of the image (e.g., "image/png", "image/jpeg")
	MediaType string `json:"mediaType"`
}

// ToolResultContentType implements ToolResultContentBlock interface
func (i ImageContentBlock) ToolResultContentType() string {
	return "image"
}

// TextResult builds a tool result carrying plain text
func TextResult(toolCallID, toolName, text string) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     &ToolResultOutput{Type: ToolResultOutputText, Value: text},
	}
}

// JSONResult builds a tool result carrying a JSON value
func JSONResult(toolCallID, toolName string, value interface{}) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     &ToolResultOutput{Type: ToolResultOutputJSON, Value: value},
	}
}

// ContentResult builds a tool result with structured content blocks
func ContentResult(toolCallID, toolName string, blocks ...ToolResultContentBlock) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     &ToolResultOutput{Type: ToolResultOutputContent, Content: blocks},
	}
}

// ErrorResult builds a tool result representing a failed execution
func ErrorResult(toolCallID, toolName, errorMsg string) ToolResultContent {
	return ToolResultContent{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Error:      errorMsg,
		Output:     &ToolResultOutput{Type: ToolResultOutputError, Value: errorMsg},
	}
}
