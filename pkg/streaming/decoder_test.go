package streaming

import (
	"io"
	"strings"
	"testing"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

func TestSSEDecoder_SplitsFramesAcrossWrites(t *testing.T) {
	t.Parallel()

	body := "data: {\"a\":1}\n\ndata: {\"a\":2}\n\ndata: [DONE]\n\n"

	// Feed the decoder byte-at-a-time to prove frame extraction doesn't
	// depend on a single Read returning a whole event.
	r := &slowReader{data: []byte(body)}

	dec, err := NewDecoder(protocol.DecoderSSE, r)
	if err != nil {
		t.Fatal(err)
	}

	var frames []string
	for {
		f, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, string(f.Data))
	}

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %v", len(frames), frames)
	}
	if frames[0] != `{"a":1}` || frames[1] != `{"a":2}` {
		t.Errorf("unexpected frame contents: %v", frames)
	}
}

// slowReader returns at most one byte per Read, to exercise Decoder
// buffering across arbitrary chunk boundaries.
type slowReader struct {
	data []byte
	pos  int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestNDJSONDecoder_SkipsBlankLines(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("{\"a\":1}\n\n{\"a\":2}\n")
	dec, err := NewDecoder(protocol.DecoderNDJSON, r)
	if err != nil {
		t.Fatal(err)
	}

	var frames []string
	for {
		f, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, string(f.Data))
	}

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
}

func TestAnthropicSSEDecoder_PreservesEventNameAndSkipsPing(t *testing.T) {
	t.Parallel()

	body := "event: ping\ndata: {}\n\nevent: content_block_delta\ndata: {\"index\":0}\n\n"
	r := strings.NewReader(body)
	dec, err := NewDecoder(protocol.DecoderAnthropicSSE, r)
	if err != nil {
		t.Fatal(err)
	}

	f, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if f.EventName != "content_block_delta" {
		t.Errorf("expected ping event skipped, got event name %q", f.EventName)
	}

	_, err = dec.Next()
	if err != io.EOF {
		t.Errorf("expected EOF after single real event, got %v", err)
	}
}
