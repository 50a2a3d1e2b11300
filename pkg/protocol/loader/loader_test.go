package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

const testManifestJSON = `{
	"id": "openai",
	"protocol_version": "v1",
	"endpoint": {"base_url": "https://api.openai.com/v1", "paths": {"chat": "/chat/completions"}},
	"auth": {"scheme": "bearer", "env_var_name": "OPENAI_API_KEY"},
	"streaming": {"decoder": "sse", "content_path": "choices.0.delta.content"},
	"capabilities": {"streaming": true, "tools": true}
}`

func writeManifest(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, "dist", "v1", "providers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte(testManifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_RegisteredTakesPriority(t *testing.T) {
	t.Parallel()

	l := New()
	m := &protocol.ProtocolManifest{
		ID:              "openai",
		ProtocolVersion: "v1",
		Endpoint:        protocol.Endpoint{BaseURL: "https://example.test", Paths: map[string]string{"chat": "/chat"}},
		Auth:            protocol.AuthConfig{Scheme: protocol.AuthNone},
		Capabilities:    protocol.Capabilities{},
	}
	if err := l.Register(m); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, err := l.Load("openai")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Endpoint.BaseURL != "https://example.test" {
		t.Errorf("expected registered manifest to win, got %s", got.Endpoint.BaseURL)
	}
}

func TestLoader_LoadsFromSearchRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeManifest(t, root, "openai")

	l := New(WithSearchRoot(root))
	m, err := l.Load("openai")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if m.ID != "openai" {
		t.Errorf("expected id openai, got %s", m.ID)
	}
}

func TestLoader_CachesAfterFirstLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeManifest(t, root, "openai")

	l := New(WithSearchRoot(root))
	first, err := l.Load("openai")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	second, err := l.Load("openai")
	if err != nil {
		t.Fatalf("expected cached load to succeed after source removed, got %v", err)
	}
	if second != first {
		t.Error("expected cache to return the same manifest pointer")
	}
}

func TestLoader_NotFound(t *testing.T) {
	t.Parallel()

	l := New(WithSearchRoot(t.TempDir()))
	_, err := l.Load("nonexistent")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected *NotFoundError, got %T", err)
	}
}

func TestLoader_InvalidManifestSurfacesValidationError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "dist", "v1", "providers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	broken := `{"id": "openai", "protocol_version": "v1", "endpoint": {"base_url": "", "paths": {}}, "auth": {"scheme": "bearer"}, "capabilities": {}}`
	if err := os.WriteFile(filepath.Join(dir, "openai.json"), []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(WithSearchRoot(root))
	_, err := l.Load("openai")
	if err == nil {
		t.Fatal("expected a validation error for the broken manifest")
	}
	if _, ok := err.(*NotFoundError); ok {
		t.Fatal("a present-but-invalid manifest must not be reported as not found")
	}
}

type stubRemote struct {
	fetches int
	raw     []byte
}

func (s *stubRemote) Fetch(id string) ([]byte, string, error) {
	s.fetches++
	return s.raw, "json", nil
}

func TestLoader_RemoteFetchPopulatesDiskCache(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	remote := &stubRemote{raw: []byte(testManifestJSON)}

	l := New(WithRemoteFetcher(remote), WithDiskCache(cacheDir))
	if _, err := l.Load("openai"); err != nil {
		t.Fatalf("remote load failed: %v", err)
	}
	if remote.fetches != 1 {
		t.Fatalf("expected 1 remote fetch, got %d", remote.fetches)
	}

	// A fresh loader over the same cache dir must resolve from disk without
	// touching the remote.
	remote2 := &stubRemote{raw: []byte(testManifestJSON)}
	l2 := New(WithRemoteFetcher(remote2), WithDiskCache(cacheDir))
	if _, err := l2.Load("openai"); err != nil {
		t.Fatalf("disk-cached load failed: %v", err)
	}
	if remote2.fetches != 0 {
		t.Errorf("expected 0 remote fetches on a warm disk cache, got %d", remote2.fetches)
	}
}

func TestDiskCache_PutGet(t *testing.T) {
	t.Parallel()

	dc := NewDiskCache(t.TempDir())
	raw := []byte(testManifestJSON)
	if err := dc.Put("openai", "json", raw); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, format, ok := dc.Get("openai")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if format != "json" {
		t.Errorf("expected json format, got %s", format)
	}
	if string(got) != string(raw) {
		t.Error("round-tripped bytes do not match")
	}
}

func TestDiskCache_CorruptEntryDiscardedSilently(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dc := NewDiskCache(dir)
	if err := dc.Put("openai", "json", []byte(testManifestJSON)); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one cache entry, got %d (%v)", len(entries), err)
	}
	if err := os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := dc.Get("openai"); ok {
		t.Error("expected miss for a hash-mismatched entry")
	}
	if remaining, _ := os.ReadDir(dir); len(remaining) != 0 {
		t.Error("expected the corrupt entry to be removed")
	}
}

func TestDiskCache_MissingEntryIsSilent(t *testing.T) {
	t.Parallel()

	dc := NewDiskCache(t.TempDir())
	if _, _, ok := dc.Get("does-not-exist"); ok {
		t.Error("expected miss for nonexistent entry")
	}
}
