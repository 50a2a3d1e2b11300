package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/digitallysavvy/go-ai-core/pkg/cancellation"
	"github.com/digitallysavvy/go-ai-core/pkg/observability"
	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
	"github.com/digitallysavvy/go-ai-core/pkg/registry"
	"github.com/digitallysavvy/go-ai-core/pkg/requestbuilder"
	"github.com/digitallysavvy/go-ai-core/pkg/resilience"
	"github.com/digitallysavvy/go-ai-core/pkg/streaming"
	"github.com/digitallysavvy/go-ai-core/pkg/transport"
)

// Issuer is the subset of transport.Transport the executor depends on, so
// tests can substitute a fake without standing up real sockets.
type Issuer interface {
	Issue(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.Response, error)
	IssueStream(ctx context.Context, wire transport.WireRequest, manifest *protocol.ProtocolManifest, keys transport.KeyResolver) (*transport.StreamResponse, error)
}

// ManifestLoader is the subset of loader.Loader the executor depends on.
type ManifestLoader interface {
	Load(id string) (*protocol.ProtocolManifest, error)
}

// Options configures one Execute/ExecuteStream call.
type Options struct {
	// ExplicitAPIKey overrides every other credential resolution step, per
	// target, for this call only.
	ExplicitAPIKey string

	// RetryPolicy overrides the executor's default. Zero value means "use
	// DefaultRetryPolicy()".
	RetryPolicy resilience.RetryPolicy

	// CancelToken, if set, is polled at every suspension point: preflight
	// wait, retry delay, transport call, stream iteration.
	CancelToken *cancellation.CancelToken

	// RequestID overrides the generated request id, useful for tests and
	// for correlating with an upstream trace id.
	RequestID string

	// TargetWeights, keyed by "provider/model", reorders the target list
	// through a FallbackChain before the first attempt. Weights break
	// tie-order only; unlisted targets weigh zero.
	TargetWeights map[string]int
}

// Executor is the ResilientExecutor: it glues preflight, retry, fallback,
// and transport into one call, mutating a CallStats as it goes. It is
// safe for concurrent use; all shared state lives in the resilience
// registry and manifest loader it wraps.
type Executor struct {
	Loader     ManifestLoader
	Transport  Issuer
	Resilience *resilience.Registry
	Sink       observability.Sink

	// Aliases is the registry ExecuteModels/ExecuteStreamModels resolve
	// model strings through; nil means the process-wide default.
	Aliases *registry.Registry
}

// NewExecutor builds an Executor. sink may be nil, in which case events are
// discarded.
func NewExecutor(loader ManifestLoader, issuer Issuer, res *resilience.Registry, sink observability.Sink) *Executor {
	if sink == nil {
		sink = observability.NopSink{}
	}
	return &Executor{Loader: loader, Transport: issuer, Resilience: res, Sink: sink}
}

func (e *Executor) emit(name observability.EventName, level observability.Level, attrs map[string]interface{}) {
	e.Sink.Emit(observability.Redact(observability.Event{
		Timestamp:  time.Now(),
		Level:      level,
		Name:       name,
		Attributes: attrs,
	}))
}

func scopeFor(target types.ProviderTarget) string {
	return target.ProviderID
}

func retryPolicyOrDefault(p resilience.RetryPolicy) resilience.RetryPolicy {
	if p.MaxAttempts == 0 {
		return resilience.DefaultRetryPolicy()
	}
	return p
}

// providerWireError decodes the provider's own error envelope from a
// failing response body, trying the handful of JSON shapes real provider
// envelopes use (OpenAI/Anthropic's error.type, error.code, error.message).
// A body with no recognizable envelope is carried verbatim as the message.
func providerWireError(providerID string, status int, body []byte) *providererrors.ProviderError {
	pe := &providererrors.ProviderError{Provider: providerID, StatusCode: status}
	for _, path := range []string{"error.type", "error.code", "type"} {
		if r := gjson.GetBytes(body, path); r.Exists() {
			pe.Code = r.String()
			break
		}
	}
	if r := gjson.GetBytes(body, "error.message"); r.Exists() {
		pe.Message = r.String()
	} else {
		pe.Message = string(body)
	}
	return pe
}

// orderTargets applies FallbackChain ordering to the caller's target list:
// weights break tie-order only, so with no weights the input order stands.
func orderTargets(targets []types.ProviderTarget, weights map[string]int) []types.ProviderTarget {
	if len(weights) == 0 {
		return targets
	}
	byName := make(map[string]types.ProviderTarget, len(targets))
	entries := make([]resilience.FallbackTarget, 0, len(targets))
	for _, t := range targets {
		byName[t.String()] = t
		entries = append(entries, resilience.FallbackTarget{Target: t.String(), Weight: weights[t.String()]})
	}
	chain := resilience.NewFallbackChain(entries)
	ordered := make([]types.ProviderTarget, 0, chain.Len())
	for _, entry := range chain.Targets() {
		ordered = append(ordered, byName[entry.Target])
	}
	return ordered
}

func convertErrorMapping(m map[string]string) map[string]providererrors.ErrorKind {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]providererrors.ErrorKind, len(m))
	for code, kind := range m {
		out[code] = providererrors.ErrorKind(kind)
	}
	return out
}

func retryAfterFromHeaders(h map[string][]string) *time.Duration {
	vals, ok := h["Retry-After"]
	if !ok || len(vals) == 0 {
		return nil
	}
	var secs int
	if _, err := fmt.Sscanf(vals[0], "%d", &secs); err != nil || secs < 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}

// decision is what the attempt loop does after classifying one failure.
type decision int

const (
	decisionRetrySameTarget decision = iota
	decisionFallbackNextTarget
	decisionStop
)

func (e *Executor) decide(policy resilience.RetryPolicy, kind providererrors.ErrorKind, attempt int, circuitOpen, cancelled bool) decision {
	if policy.ShouldRetry(kind, attempt, circuitOpen, cancelled) {
		return decisionRetrySameTarget
	}
	if kind.Fallbackable() && !cancelled {
		return decisionFallbackNextTarget
	}
	return decisionStop
}

// Execute runs the non-streaming path: preflight + retry + fallback +
// transport, synthesizing a GenerateResult from the single JSON response.
func (e *Executor) Execute(ctx context.Context, targets []types.ProviderTarget, req types.CanonicalRequest, opts Options) (*types.GenerateResult, *CallStats, error) {
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	stats := &CallStats{RequestID: requestID}
	start := time.Now()
	policy := retryPolicyOrDefault(opts.RetryPolicy)

	ctx, cancel := cancellation.WithContext(ctx, opts.CancelToken)
	defer cancel()

	e.emit(observability.EventRequestStart, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target_count": len(targets)})

	targets = orderTargets(targets, opts.TargetWeights)

	var history []AttemptRecord
	var last *providererrors.ClassifiedError

targetLoop:
	for _, target := range targets {
		manifest, err := e.Loader.Load(target.ProviderID)
		if err != nil {
			last = providererrors.NewClassifiedError(providererrors.ClassifyInput{TransportErr: err}, target.String(), requestID, 1, err.Error(), nil)
			history = append(history, AttemptRecord{Target: target.String(), Attempt: 1, Kind: last.Kind, Message: err.Error()})
			continue
		}

		res := e.Resilience.Get(scopeFor(target))
		checker := resilience.NewPreflightChecker(res)
		e.subscribeCircuitState(res, requestID, target)

		attempt := 0
		for {
			attempt++

			if opts.CancelToken != nil && opts.CancelToken.Cancelled() {
				last = providererrors.NewClassifiedError(providererrors.ClassifyInput{}, target.String(), requestID, attempt, "cancelled", nil)
				last.Kind = providererrors.KindCancelled
				e.emitEnd(requestID, stats, false)
				return nil, stats, &ExecutionError{Attempts: history, Last: last}
			}

			permit, gateErr := checker.Check(ctx)
			e.emit(observability.EventPreflightResult, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target": target.String(), "ok": gateErr == nil})
			if gateErr != nil {
				classified := classifyGateErr(gateErr, target.String(), requestID, attempt)
				last = classified
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: classified.Kind, Message: classified.Error()})

				switch e.decide(policy, classified.Kind, attempt, res.Breaker != nil && res.Breaker.State() == resilience.CircuitOpen, false) {
				case decisionRetrySameTarget:
					e.emitRetry(requestID, target, attempt, classified.Kind)
					if err := resilience.Wait(ctx, policy.Delay(attempt, nil)); err != nil {
						e.emitEnd(requestID, stats, false)
						return nil, stats, &ExecutionError{Attempts: history, Last: last}
					}
					continue
				case decisionFallbackNextTarget:
					e.emitFallback(requestID, target, attempt, classified.Kind)
					continue targetLoop
				default:
					e.emitEnd(requestID, stats, false)
					return nil, stats, &ExecutionError{Attempts: history, Last: last}
				}
			}

			wire, buildErr := requestbuilder.Build(req, manifest, false)
			if buildErr != nil {
				permit.Release()
				last = &providererrors.ClassifiedError{Kind: providererrors.KindInvalidRequest, Target: target.String(), RequestID: requestID, Attempt: attempt, Message: buildErr.Error()}
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: last.Kind, Message: buildErr.Error()})
				e.emitEnd(requestID, stats, false)
				return nil, stats, &ExecutionError{Attempts: history, Last: last}
			}

			keys := transport.KeyResolver{ExplicitKey: opts.ExplicitAPIKey, TargetKey: target.APIKeyOverride}
			e.emit(observability.EventTransportRequest, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target": target.String(), "attempt": attempt})

			resp, transportErr := e.Transport.Issue(ctx, wire, manifest, keys)
			permit.Release()

			recordErr := transportErr
			if recordErr == nil && resp.StatusCode >= 500 {
				recordErr = fmt.Errorf("http %d", resp.StatusCode)
			}
			permit.ReportCircuit(recordErr == nil)
			if res.Limiter != nil && transportErr == nil {
				res.Limiter.AdaptFromHeaders(resp.Headers)
			}

			if transportErr != nil {
				classified := providererrors.NewClassifiedError(providererrors.ClassifyInput{TransportErr: transportErr}, target.String(), requestID, attempt, transportErr.Error(), nil)
				last = classified
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: classified.Kind, Message: classified.Error()})

				switch e.decide(policy, classified.Kind, attempt, res.Breaker != nil && res.Breaker.State() == resilience.CircuitOpen, ctx.Err() != nil) {
				case decisionRetrySameTarget:
					e.emitRetry(requestID, target, attempt, classified.Kind)
					if err := resilience.Wait(ctx, policy.Delay(attempt, nil)); err != nil {
						e.emitEnd(requestID, stats, false)
						return nil, stats, &ExecutionError{Attempts: history, Last: last}
					}
					continue
				case decisionFallbackNextTarget:
					e.emitFallback(requestID, target, attempt, classified.Kind)
					continue targetLoop
				default:
					e.emitEnd(requestID, stats, false)
					return nil, stats, &ExecutionError{Attempts: history, Last: last}
				}
			}

			e.emit(observability.EventTransportResponse, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target": target.String(), "status": resp.StatusCode})

			if resp.StatusCode >= 400 {
				wireErr := providerWireError(target.ProviderID, resp.StatusCode, resp.Body)
				retryAfter := retryAfterFromHeaders(resp.Headers)
				classified := providererrors.NewClassifiedError(providererrors.ClassifyInput{
					HTTPStatus:        resp.StatusCode,
					ProviderErrorCode: wireErr.Code,
					ErrorMapping:      convertErrorMapping(manifest.ErrorMapping),
				}, target.String(), requestID, attempt, wireErr.Message, retryAfter)
				classified.Cause = wireErr
				last = classified
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: classified.Kind, HTTPStatus: resp.StatusCode, Message: classified.Error()})

				switch e.decide(policy, classified.Kind, attempt, res.Breaker != nil && res.Breaker.State() == resilience.CircuitOpen, false) {
				case decisionRetrySameTarget:
					e.emitRetry(requestID, target, attempt, classified.Kind)
					if err := resilience.Wait(ctx, policy.Delay(attempt, classified.RetryAfter)); err != nil {
						e.emitEnd(requestID, stats, false)
						return nil, stats, &ExecutionError{Attempts: history, Last: last}
					}
					continue
				case decisionFallbackNextTarget:
					e.emitFallback(requestID, target, attempt, classified.Kind)
					continue targetLoop
				default:
					e.emitEnd(requestID, stats, false)
					return nil, stats, &ExecutionError{Attempts: history, Last: last}
				}
			}

			result := generateResultFromEvents(streaming.MapNonStreaming(manifest.Streaming, resp.Body))
			stats.LatencyMs = time.Since(start).Milliseconds()
			stats.RetryCount = attempt - 1
			stats.TargetUsed = target.String()
			stats.TokensIn = result.Usage.InputTokens
			stats.TokensOut = result.Usage.OutputTokens
			e.emitEnd(requestID, stats, true)
			return result, stats, nil
		}
	}

	e.emitEnd(requestID, stats, false)
	if last == nil {
		last = &providererrors.ClassifiedError{Kind: providererrors.KindUnknown, Message: "no targets configured", RequestID: requestID}
	}
	return nil, stats, &ExecutionError{Attempts: history, Last: last}
}

// subscribeCircuitState (re-)registers this call's observability context as
// the breaker's state-change listener, so circuit_state_change fires
// through the current Sink with the requesting call's request_id. Cheap to
// call every time Get resolves a scope: CircuitBreaker.Subscribe just
// overwrites its single listener slot.
func (e *Executor) subscribeCircuitState(res *resilience.ProviderResilience, requestID string, target types.ProviderTarget) {
	if res.Breaker == nil {
		return
	}
	res.Breaker.Subscribe(func(from, to resilience.CircuitState) {
		e.emit(observability.EventCircuitStateChange, observability.LevelInfo, map[string]interface{}{
			"request_id": requestID,
			"target":     target.String(),
			"from":       string(from),
			"to":         string(to),
		})
	})
}

func (e *Executor) emitRetry(requestID string, target types.ProviderTarget, attempt int, kind providererrors.ErrorKind) {
	e.emit(observability.EventRetry, observability.LevelInfo, map[string]interface{}{
		"request_id": requestID,
		"target":     target.String(),
		"attempt":    attempt,
		"kind":       string(kind),
	})
}

func (e *Executor) emitFallback(requestID string, target types.ProviderTarget, attempt int, kind providererrors.ErrorKind) {
	e.emit(observability.EventFallback, observability.LevelInfo, map[string]interface{}{
		"request_id": requestID,
		"target":     target.String(),
		"attempt":    attempt,
		"kind":       string(kind),
	})
}

func (e *Executor) emitEnd(requestID string, stats *CallStats, ok bool) {
	level := observability.LevelInfo
	if !ok {
		level = observability.LevelError
	}
	e.emit(observability.EventRequestEnd, level, map[string]interface{}{
		"request_id":  requestID,
		"latency_ms":  stats.LatencyMs,
		"retry_count": stats.RetryCount,
		"target_used": stats.TargetUsed,
	})
}

func classifyGateErr(gateErr error, target, requestID string, attempt int) *providererrors.ClassifiedError {
	var classified *providererrors.ClassifiedError
	if !errors.As(gateErr, &classified) {
		classified = &providererrors.ClassifiedError{Kind: providererrors.KindUnknown, Message: gateErr.Error()}
	}
	classified.Target = target
	classified.RequestID = requestID
	classified.Attempt = attempt
	return classified
}

func generateResultFromEvents(events []streaming.CanonicalEvent) *types.GenerateResult {
	result := &types.GenerateResult{}
	var text []byte
	toolArgs := map[string]string{}
	toolNames := map[string]string{}
	var toolOrder []string

	for _, ev := range events {
		switch ev.Type {
		case streaming.EventPartialContentDelta:
			text = append(text, ev.Text...)
		case streaming.EventToolCallStarted:
			toolNames[ev.ToolCallID] = ev.ToolCallName
			toolOrder = append(toolOrder, ev.ToolCallID)
		case streaming.EventPartialToolCall:
			if ev.ArgsDelta != "" {
				toolArgs[ev.ToolCallID] += ev.ArgsDelta
			}
		case streaming.EventMetadata:
			if ev.Usage != nil {
				result.Usage = *ev.Usage
			}
		case streaming.EventStreamEnd:
			result.FinishReason = ev.FinishReason
		case streaming.EventStreamError:
			result.Warnings = append(result.Warnings, types.Warning{Message: ev.ErrorMessage})
		}
	}

	result.Text = string(text)
	for _, id := range toolOrder {
		result.ToolCalls = append(result.ToolCalls, types.ToolCall{
			ID:        id,
			ToolName:  toolNames[id],
			Arguments: parseToolArgs(toolArgs[id]),
		})
	}
	return result
}

func parseToolArgs(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	args := map[string]interface{}{}
	gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
		args[key.String()] = value.Value()
		return true
	})
	return args
}
