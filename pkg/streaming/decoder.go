package streaming

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	sse "github.com/digitallysavvy/go-ai-core/pkg/providerutils/streaming"
)

// ErrMalformedFrame reports a frame whose payload cannot be interpreted as
// JSON. The decoders split frames without inspecting them; the Pipeline
// checks each frame before its RuleMapper sees it and surfaces this as
// StreamError{kind=server_error}, terminating the pipeline.
var ErrMalformedFrame = errors.New("streaming: malformed frame")

// Frame is one decoded unit of the upstream byte stream: a JSON value, plus
// the originating SSE event name when the wire format carries one (always
// empty for NDJSON).
type Frame struct {
	EventName string
	Data      []byte
}

// Decoder splits a raw byte stream into Frames. Partial frames straddling
// chunk boundaries are buffered internally and re-examined as more bytes
// arrive; Next blocks until a full frame is available or the stream ends.
type Decoder interface {
	Next() (Frame, error)
}

// NewDecoder builds the Decoder named by kind over r.
func NewDecoder(kind protocol.StreamDecoder, r io.Reader) (Decoder, error) {
	switch kind {
	case protocol.DecoderSSE:
		return &sseDecoder{parser: sse.NewSSEParser(r)}, nil
	case protocol.DecoderAnthropicSSE:
		return &anthropicSSEDecoder{parser: sse.NewSSEParser(r)}, nil
	case protocol.DecoderNDJSON:
		return &ndjsonDecoder{scanner: bufio.NewScanner(r)}, nil
	default:
		return nil, errors.New("streaming: unknown decoder " + string(kind))
	}
}

// sseDecoder implements the generic OpenAI-style "data: {json}\n\n" framing,
// stripping the "data: [DONE]" terminator.
type sseDecoder struct {
	parser *sse.SSEParser
}

func (d *sseDecoder) Next() (Frame, error) {
	for {
		event, err := d.parser.Next()
		if err != nil {
			return Frame{}, err
		}
		if sse.IsStreamDone(event) {
			return Frame{}, io.EOF
		}
		if strings.TrimSpace(event.Data) == "" {
			continue
		}
		return Frame{Data: []byte(event.Data)}, nil
	}
}

// anthropicSSEDecoder preserves the SSE event name so the Anthropic mapper
// can route content_block_start/delta/stop and message_start/delta/stop by
// name rather than by a single content_path.
type anthropicSSEDecoder struct {
	parser *sse.SSEParser
}

func (d *anthropicSSEDecoder) Next() (Frame, error) {
	for {
		event, err := d.parser.Next()
		if err != nil {
			return Frame{}, err
		}
		if event.Event == "ping" {
			continue
		}
		if strings.TrimSpace(event.Data) == "" {
			continue
		}
		return Frame{EventName: event.Event, Data: []byte(event.Data)}, nil
	}
}

// ndjsonDecoder splits on newlines, skipping blank lines.
type ndjsonDecoder struct {
	scanner *bufio.Scanner
}

func (d *ndjsonDecoder) Next() (Frame, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		return Frame{Data: []byte(line)}, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}
