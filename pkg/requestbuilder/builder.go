// Package requestbuilder implements the canonical-to-wire request
// translation: given a CanonicalRequest and the resolved ProtocolManifest
// for a target, produce the method/url/headers/body a Transport can issue. The builder is pure given its inputs: same
// request plus manifest always serializes to the same bytes, since
// encoding/json sorts map keys, which is all the wire dialects here
// tolerate.
package requestbuilder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
	"github.com/digitallysavvy/go-ai-core/pkg/providerutils/prompt"
	"github.com/digitallysavvy/go-ai-core/pkg/providerutils/tool"
	"github.com/digitallysavvy/go-ai-core/pkg/transport"
)

// UnsupportedCapabilityError is returned when the canonical request asks
// for something the target's manifest does not declare support for (tools,
// streaming, vision, ...), so the executor can fail fast rather than send
// an unsupported shape upstream.
type UnsupportedCapabilityError struct {
	Provider   string
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("%s manifest does not declare capability %q", e.Provider, e.Capability)
}

// Build translates req into a WireRequest for the chat endpoint declared by
// manifest, honoring the manifest's role map, envelope, and tool dialect.
// Auth headers are not attached here; Transport.Issue/IssueStream attach
// them from manifest.Auth once the wire request reaches the transport.
func Build(req types.CanonicalRequest, manifest *protocol.ProtocolManifest, stream bool) (transport.WireRequest, error) {
	if err := prompt.ValidateMessages(req.Messages); err != nil {
		return transport.WireRequest{}, fmt.Errorf("invalid request: %w", err)
	}
	if stream && !manifest.Capabilities.Streaming {
		return transport.WireRequest{}, &UnsupportedCapabilityError{Provider: manifest.ID, Capability: "streaming"}
	}
	if len(req.Tools) > 0 && !manifest.Capabilities.Tools {
		return transport.WireRequest{}, &UnsupportedCapabilityError{Provider: manifest.ID, Capability: "tools"}
	}
	if err := checkContentCapabilities(req.Messages, manifest); err != nil {
		return transport.WireRequest{}, err
	}

	path, ok := manifest.PathFor("chat")
	if !ok {
		return transport.WireRequest{}, fmt.Errorf("manifest %s has no chat path", manifest.ID)
	}

	body := map[string]interface{}{
		"messages": buildMessages(req.Messages, manifest),
	}
	if req.Sampling.Temperature != nil {
		body["temperature"] = *req.Sampling.Temperature
	}
	if req.Sampling.TopP != nil {
		body["top_p"] = *req.Sampling.TopP
	}
	if req.Sampling.MaxTokens != nil {
		body["max_tokens"] = *req.Sampling.MaxTokens
	}
	if len(req.Sampling.Stop) > 0 {
		body["stop"] = req.Sampling.Stop
	}
	if len(req.Tools) > 0 {
		body["tools"] = buildTools(req.Tools, manifest.Request.ToolDialect)
		if req.ToolChoice != nil {
			body["tool_choice"] = buildToolChoice(*req.ToolChoice, manifest.Request.ToolDialect)
		}
	}
	for k, v := range req.Extensions {
		body[k] = v
	}
	if stream {
		body["stream"] = true
	}

	if manifest.Request.Envelope != "" {
		body = map[string]interface{}{manifest.Request.Envelope: body}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return transport.WireRequest{}, fmt.Errorf("marshal request body: %w", err)
	}

	headers := map[string]string{}
	if stream {
		headers["Accept"] = "text/event-stream"
	}

	return transport.WireRequest{
		Method:  "POST",
		URL:     strings.TrimRight(manifest.Endpoint.BaseURL, "/") + path,
		Headers: headers,
		Body:    raw,
	}, nil
}

// checkContentCapabilities fails fast when a message carries a modality the
// manifest does not advertise, instead of letting the upstream reject it.
func checkContentCapabilities(messages []types.Message, manifest *protocol.ProtocolManifest) error {
	for _, msg := range messages {
		for _, part := range msg.Content {
			switch part.(type) {
			case types.ImageContent:
				if !manifest.Capabilities.Vision {
					return &UnsupportedCapabilityError{Provider: manifest.ID, Capability: "vision"}
				}
			case types.AudioContent:
				if !manifest.Capabilities.Audio {
					return &UnsupportedCapabilityError{Provider: manifest.ID, Capability: "audio"}
				}
			}
		}
	}
	return nil
}

func mapRole(role types.MessageRole, manifest *protocol.ProtocolManifest) string {
	if manifest.Request.RoleMap != nil {
		if mapped, ok := manifest.Request.RoleMap[string(role)]; ok {
			return mapped
		}
	}
	return string(role)
}

func buildMessages(messages []types.Message, manifest *protocol.ProtocolManifest) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		wire := map[string]interface{}{"role": mapRole(msg.Role, manifest)}
		if msg.Name != "" {
			wire["name"] = msg.Name
		}

		if len(msg.Content) == 1 {
			if text, ok := msg.Content[0].(types.TextContent); ok {
				wire["content"] = text.Text
				out = append(out, wire)
				continue
			}
		}

		parts := make([]map[string]interface{}, 0, len(msg.Content))
		var toolCalls []map[string]interface{}
		for _, part := range msg.Content {
			switch p := part.(type) {
			case types.TextContent:
				parts = append(parts, map[string]interface{}{"type": "text", "text": p.Text})
			case types.ImageContent:
				parts = append(parts, buildImagePart(p))
			case types.AudioContent:
				parts = append(parts, buildAudioPart(p))
			case types.ToolResultContent:
				wire["tool_call_id"] = p.ToolCallID
				wire["content"] = toolResultText(p)
			case types.AssistantToolCallContent:
				toolCalls = append(toolCalls, buildAssistantToolCall(p))
			}
		}
		if len(parts) > 0 {
			wire["content"] = parts
		} else if _, hasContent := wire["content"]; !hasContent {
			wire["content"] = ""
		}
		if len(toolCalls) > 0 {
			wire["tool_calls"] = toolCalls
		}
		out = append(out, wire)
	}
	return out
}

func buildImagePart(p types.ImageContent) map[string]interface{} {
	url := p.URL
	if url == "" {
		url = fmt.Sprintf("data:%s;base64,%s", p.MimeType, base64.StdEncoding.EncodeToString(p.Image))
	}
	return map[string]interface{}{
		"type":      "image_url",
		"image_url": map[string]interface{}{"url": url},
	}
}

func buildAudioPart(p types.AudioContent) map[string]interface{} {
	format := strings.TrimPrefix(p.MimeType, "audio/")
	if p.URL != "" {
		return map[string]interface{}{
			"type":      "audio_url",
			"audio_url": map[string]interface{}{"url": p.URL},
		}
	}
	return map[string]interface{}{
		"type": "input_audio",
		"input_audio": map[string]interface{}{
			"data":   base64.StdEncoding.EncodeToString(p.Audio),
			"format": format,
		},
	}
}

func toolResultText(p types.ToolResultContent) string {
	if p.Error != "" {
		return p.Error
	}
	if p.Output == nil {
		return ""
	}
	switch p.Output.Type {
	case types.ToolResultOutputText, types.ToolResultOutputError:
		if s, ok := p.Output.Value.(string); ok {
			return s
		}
	case types.ToolResultOutputJSON:
		if b, err := json.Marshal(p.Output.Value); err == nil {
			return string(b)
		}
	case types.ToolResultOutputContent:
		var sb strings.Builder
		for _, block := range p.Output.Content {
			if text, ok := block.(types.TextContentBlock); ok {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(text.Text)
			}
		}
		return sb.String()
	}
	return ""
}

func buildAssistantToolCall(p types.AssistantToolCallContent) map[string]interface{} {
	return map[string]interface{}{
		"id":   p.ID,
		"type": "function",
		"function": map[string]interface{}{
			"name":      p.ToolName,
			"arguments": p.ArgumentsJSON,
		},
	}
}

// buildTools delegates to pkg/providerutils/tool.ToWireFormat, which
// interprets manifest.Request.ToolDialect against its ToolShapes table — the
// dialect string selects a row of data, never a named Go function.
func buildTools(tools []types.Tool, dialect string) interface{} {
	return tool.ToWireFormat(tools, dialect)
}

// buildToolChoice delegates to pkg/providerutils/tool.ConvertToolChoice,
// which resolves dialect the same way.
func buildToolChoice(choice types.ToolChoice, dialect string) interface{} {
	return tool.ConvertToolChoice(choice, dialect)
}
