package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextContent_ContentType(t *testing.T) {
	t.Parallel()

	tc := TextContent{Text: "Hello"}
	assert.Equal(t, "text", tc.ContentType())
}

func TestReasoningContent_ContentType(t *testing.T) {
	t.Parallel()

	rc := ReasoningContent{Text: "thinking it through"}
	assert.Equal(t, "reasoning", rc.ContentType())
}

func TestImageContent_ContentType(t *testing.T) {
	t.Parallel()

	ic := ImageContent{Image: []byte("fake"), MimeType: "image/png"}
	assert.Equal(t, "image", ic.ContentType())
}

func TestAudioContent_ContentType(t *testing.T) {
	t.Parallel()

	ac := AudioContent{Audio: []byte("fake"), MimeType: "audio/wav"}
	assert.Equal(t, "audio", ac.ContentType())
}

func TestAssistantToolCallContent_ContentType(t *testing.T) {
	t.Parallel()

	tc := AssistantToolCallContent{ID: "call_1", ToolName: "search", ArgumentsJSON: `{"q":"go"}`}
	assert.Equal(t, "tool-call", tc.ContentType())
}

func TestToolResultContent_ContentType(t *testing.T) {
	t.Parallel()

	trc := TextResult("1", "test", "ok")
	assert.Equal(t, "tool-result", trc.ContentType())
}

func TestMessageRoles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MessageRole("system"), RoleSystem)
	assert.Equal(t, MessageRole("user"), RoleUser)
	assert.Equal(t, MessageRole("assistant"), RoleAssistant)
	assert.Equal(t, MessageRole("tool"), RoleTool)
}

func TestMessage_Content(t *testing.T) {
	t.Parallel()

	msg := Message{
		Role: RoleUser,
		Content: []ContentPart{
			TextContent{Text: "Hello"},
			ImageContent{MimeType: "image/png"},
		},
		Name: "user1",
	}

	assert.Equal(t, RoleUser, msg.Role)
	assert.Len(t, msg.Content, 2)
	assert.Equal(t, "user1", msg.Name)
}
