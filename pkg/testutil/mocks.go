// Package testutil provides mock implementations of the core's seam
// interfaces (executor.Issuer, executor.ManifestLoader, observability.Sink)
// for tests that want to substitute a fake without standing up a real
// httptest.Server or real manifest files.
package testutil

import (
	"context"
	"sync"

	"github.com/digitallysavvy/go-ai-core/pkg/observability"
	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	"github.com/digitallysavvy/go-ai-core/pkg/transport"
)

// MockIssuer is a mock implementation of executor.Issuer for testing the
// resilience/retry/fallback control flow without a network round trip.
type MockIssuer struct {
	IssueFunc       func(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.Response, error)
	IssueStreamFunc func(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.StreamResponse, error)

	mu          sync.Mutex
	IssueCalls  int
	StreamCalls int
}

func (m *MockIssuer) Issue(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.Response, error) {
	m.mu.Lock()
	m.IssueCalls++
	m.mu.Unlock()

	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, wire, manifest, keys)
	}
	return &transport.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
}

func (m *MockIssuer) IssueStream(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.StreamResponse, error) {
	m.mu.Lock()
	m.StreamCalls++
	m.mu.Unlock()

	if m.IssueStreamFunc != nil {
		return m.IssueStreamFunc(ctx, wire, manifest, keys)
	}
	return nil, nil
}

// MockManifestLoader is a mock implementation of executor.ManifestLoader.
type MockManifestLoader struct {
	Manifests map[string]*protocol.ProtocolManifest
	LoadFunc  func(id string) (*protocol.ProtocolManifest, error)
}

func (m *MockManifestLoader) Load(id string) (*protocol.ProtocolManifest, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(id)
	}
	return m.Manifests[id], nil
}

// CapturingSink is an observability.Sink that records every Event it
// receives, so tests can assert on the emission sequence without standing
// up a real telemetry backend.
type CapturingSink struct {
	mu     sync.Mutex
	Events []observability.Event
}

func (s *CapturingSink) Emit(ev observability.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
}

// Names returns the EventName of every captured Event, in order.
func (s *CapturingSink) Names() []observability.EventName {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]observability.EventName, len(s.Events))
	for i, ev := range s.Events {
		names[i] = ev.Name
	}
	return names
}
