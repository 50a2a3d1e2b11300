// Package transport issues the HTTP requests the request executor builds,
// injecting manifest-driven authentication and returning either a fully
// buffered response or a live byte stream for the streaming pipeline to
// consume.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// WireRequest is the fully-built, dialect-specific HTTP request the
// Canonical->Wire request builder produces.
type WireRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a fully buffered HTTP response, used for the non-streaming
// execution path.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StreamResponse is a live HTTP response whose Body the caller must close
// once the streaming pipeline has drained or abandoned it.
type StreamResponse struct {
	StatusCode int
	Headers    http.Header
	Body       io.ReadCloser
}

// KeyResolver resolves the credential to attach for one target, following
// a fixed order: explicit per-call key, then per-target key,
// then the provider's environment variable, then failure.
type KeyResolver struct {
	ExplicitKey string
	TargetKey   string
}

// ErrAuthentication is returned when no API key can be resolved for the
// manifest's configured auth scheme. It wraps errors.ErrNoCredentials so
// the classifier surfaces it as an authentication failure rather than a
// transport one.
type ErrAuthentication struct {
	EnvVarName string
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("no API key resolved (checked explicit key, target key, env %s)", e.EnvVarName)
}

func (e *ErrAuthentication) Unwrap() error { return providererrors.ErrNoCredentials }

func (r KeyResolver) resolve(envVarName string) (string, error) {
	if r.ExplicitKey != "" {
		return r.ExplicitKey, nil
	}
	if r.TargetKey != "" {
		return r.TargetKey, nil
	}
	if envVarName != "" {
		if v := os.Getenv(envVarName); v != "" {
			return v, nil
		}
	}
	return "", &ErrAuthentication{EnvVarName: envVarName}
}

// Transport issues HTTP requests with pooled connections. One Transport is
// shared process-wide; it holds no per-request state.
type Transport struct {
	client *http.Client
}

// defaultTimeout mirrors AI_HTTP_TIMEOUT_SECS, falling back to 60s. This is
// the outer per-request deadline, the second of the three timeout layers,
// bounding the whole round trip including a streamed body.
func defaultTimeout() time.Duration {
	if v := os.Getenv("AI_HTTP_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 60 * time.Second
}

// connectTimeout mirrors AI_HTTP_CONNECT_TIMEOUT_SECS, falling back to 10s.
// This bounds only TCP+TLS dial, the first of the three timeout layers:
// a provider whose DNS or handshake is hanging fails fast instead of eating
// into the request's overall budget.
func connectTimeout() time.Duration {
	if v := os.Getenv("AI_HTTP_CONNECT_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 10 * time.Second
}

// idleReadTimeout mirrors AI_HTTP_IDLE_READ_TIMEOUT_SECS, falling back to
// 30s. This is the third layer: the longest gap tolerated between bytes on
// an open connection, so a provider that stops sending chunks mid-stream
// without closing the socket surfaces a read timeout instead of hanging the
// decoder forever.
func idleReadTimeout() time.Duration {
	if v := os.Getenv("AI_HTTP_IDLE_READ_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 30 * time.Second
}

// idleTimeoutConn resets a read deadline before every Read, so the
// connection's http.Transport-level idle pooling is untouched but any single
// read may not block longer than timeout.
type idleTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleTimeoutConn) Read(b []byte) (int, error) {
	c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	return c.Conn.Read(b)
}

// New builds a Transport with pooled connections, honoring AI_HTTP_TIMEOUT_SECS,
// AI_HTTP_CONNECT_TIMEOUT_SECS, AI_HTTP_IDLE_READ_TIMEOUT_SECS, and
// AI_HTTP_TRUST_ENV. Every dialed connection gets its own connect deadline
// via net.Dialer and an idle-read deadline reapplied on every Read, so a
// stalled-but-open stream surfaces a net.Error timeout rather than blocking
// the decoder forever.
func New() *Transport {
	dialer := &net.Dialer{Timeout: connectTimeout()}
	idle := idleReadTimeout()

	rt := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &idleTimeoutConn{Conn: conn, timeout: idle}, nil
		},
	}
	if os.Getenv("AI_HTTP_TRUST_ENV") == "1" {
		rt.Proxy = http.ProxyFromEnvironment
	}
	return &Transport{
		client: &http.Client{
			Timeout:   defaultTimeout(),
			Transport: rt,
		},
	}
}

// NewWithClient wraps a caller-supplied *http.Client, useful for tests that
// point at an httptest.Server.
func NewWithClient(c *http.Client) *Transport {
	return &Transport{client: c}
}

func (t *Transport) buildRequest(ctx context.Context, wire WireRequest, manifest *protocol.ProtocolManifest, keys KeyResolver) (*http.Request, error) {
	var body io.Reader
	if wire.Body != nil {
		body = bytes.NewReader(wire.Body)
	}

	req, err := http.NewRequestWithContext(ctx, wire.Method, wire.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range wire.Headers {
		req.Header.Set(k, v)
	}
	if wire.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := injectAuth(req, manifest, keys); err != nil {
		return nil, err
	}
	return req, nil
}

func injectAuth(req *http.Request, manifest *protocol.ProtocolManifest, keys KeyResolver) error {
	if manifest.Auth.Scheme == protocol.AuthNone {
		return nil
	}

	key, err := keys.resolve(manifest.Auth.EnvVarName)
	if err != nil {
		return err
	}

	switch manifest.Auth.Scheme {
	case protocol.AuthBearer:
		prefix := manifest.Auth.Prefix
		if prefix == "" {
			prefix = "Bearer "
		}
		req.Header.Set("Authorization", prefix+key)
	case protocol.AuthHeader:
		req.Header.Set(manifest.Auth.HeaderName, manifest.Auth.Prefix+key)
	case protocol.AuthQuery:
		q := req.URL.Query()
		q.Set(manifest.Auth.HeaderName, key)
		req.URL.RawQuery = q.Encode()
	}
	return nil
}

// Issue performs the request and buffers the full response body, for the
// non-streaming execution path.
func (t *Transport) Issue(ctx context.Context, wire WireRequest, manifest *protocol.ProtocolManifest, keys KeyResolver) (*Response, error) {
	req, err := t.buildRequest(ctx, wire, manifest, keys)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// IssueStream performs the request and returns the live response body for
// the streaming pipeline to decode incrementally. The caller owns Body and
// must close it.
func (t *Transport) IssueStream(ctx context.Context, wire WireRequest, manifest *protocol.ProtocolManifest, keys KeyResolver) (*StreamResponse, error) {
	req, err := t.buildRequest(ctx, wire, manifest, keys)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	return &StreamResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: resp.Body}, nil
}
