package executor

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/digitallysavvy/go-ai-core/pkg/cancellation"
	"github.com/digitallysavvy/go-ai-core/pkg/observability"
	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
	"github.com/digitallysavvy/go-ai-core/pkg/requestbuilder"
	"github.com/digitallysavvy/go-ai-core/pkg/resilience"
	"github.com/digitallysavvy/go-ai-core/pkg/streaming"
	"github.com/digitallysavvy/go-ai-core/pkg/transport"
)

// statsSource wraps a *streaming.Pipeline so the first CanonicalEvent
// records CallStats.TimeToFirstEventMs and every Metadata event updates
// token counts, without the pipeline itself knowing about CallStats.
type statsSource struct {
	pipeline *streaming.Pipeline
	stats    *CallStats
	start    time.Time
	sink     observability.Sink
	first    bool
}

func (s *statsSource) Next() (streaming.CanonicalEvent, bool) {
	ev, ok := s.pipeline.Next()
	if !ok {
		return ev, false
	}
	if !s.first {
		s.first = true
		ms := time.Since(s.start).Milliseconds()
		s.stats.TimeToFirstEventMs = &ms
		s.sink.Emit(observability.Event{Timestamp: time.Now(), Level: observability.LevelInfo, Name: observability.EventStreamFirstEvent, Attributes: map[string]interface{}{"request_id": s.stats.RequestID}})
	}
	if ev.Type == streaming.EventMetadata && ev.Usage != nil {
		s.stats.TokensIn = ev.Usage.InputTokens
		s.stats.TokensOut = ev.Usage.OutputTokens
	}
	if ev.Type == streaming.EventStreamEnd || ev.Type == streaming.EventStreamError {
		s.stats.LatencyMs = time.Since(s.start).Milliseconds()
	}
	return ev, true
}

func (s *statsSource) Close() { s.pipeline.Close() }

// ExecuteStream runs the streaming path: preflight + retry + fallback gate
// the call the same way Execute does, up to the point a live response body
// is obtained; once bytes are flowing, failures surface as a terminal
// StreamError event rather than triggering another retry/fallback round,
// matching the pipeline's own single-pass contract.
func (e *Executor) ExecuteStream(ctx context.Context, targets []types.ProviderTarget, req types.CanonicalRequest, opts Options) (*cancellation.CancellableStream[streaming.CanonicalEvent], *CallStats, error) {
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	stats := &CallStats{RequestID: requestID}
	start := time.Now()
	policy := retryPolicyOrDefault(opts.RetryPolicy)

	ctx, cancel := cancellation.WithContext(ctx, opts.CancelToken)
	handedOff := false
	defer func() {
		if !handedOff {
			cancel()
		}
	}()

	e.emit(observability.EventRequestStart, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target_count": len(targets), "stream": true})

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
				last = &providererrors.ClassifiedError{Kind: providererrors.KindCancelled, Target: target.String(), RequestID: requestID, Attempt: attempt}
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

			wire, buildErr := requestbuilder.Build(req, manifest, true)
			if buildErr != nil {
				permit.Release()
				last = &providererrors.ClassifiedError{Kind: providererrors.KindInvalidRequest, Target: target.String(), RequestID: requestID, Attempt: attempt, Message: buildErr.Error()}
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: last.Kind, Message: buildErr.Error()})
				e.emitEnd(requestID, stats, false)
				return nil, stats, &ExecutionError{Attempts: history, Last: last}
			}

			keys := transport.KeyResolver{ExplicitKey: opts.ExplicitAPIKey, TargetKey: target.APIKeyOverride}
			e.emit(observability.EventTransportRequest, observability.LevelInfo, map[string]interface{}{"request_id": requestID, "target": target.String(), "attempt": attempt})

			resp, transportErr := e.Transport.IssueStream(ctx, wire, manifest, keys)

			recordErr := transportErr
			if recordErr == nil && resp.StatusCode >= 500 {
				recordErr = io.ErrUnexpectedEOF
			}
			permit.ReportCircuit(recordErr == nil)
			if res.Limiter != nil && transportErr == nil {
				res.Limiter.AdaptFromHeaders(resp.Headers)
			}

			if transportErr != nil {
				permit.Release()
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
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				permit.Release()

				wireErr := providerWireError(target.ProviderID, resp.StatusCode, body)
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

			pipeline, err := streaming.NewPipeline(manifest.Streaming, resp.Body)
			if err != nil {
				resp.Body.Close()
				permit.Release()
				last = &providererrors.ClassifiedError{Kind: providererrors.KindServerError, Target: target.String(), RequestID: requestID, Attempt: attempt, Message: err.Error()}
				history = append(history, AttemptRecord{Target: target.String(), Attempt: attempt, Kind: last.Kind, Message: err.Error()})
				e.emitEnd(requestID, stats, false)
				return nil, stats, &ExecutionError{Attempts: history, Last: last}
			}

			stats.TargetUsed = target.String()
			stats.RetryCount = attempt - 1

			src := &statsSource{pipeline: pipeline, stats: stats, start: start, sink: e.Sink}
			releasingSource := &releaseOnCloseSource{Source: src, release: func() {
				permit.Release()
				cancel()
			}}

			token := opts.CancelToken
			if token == nil {
				token = cancellation.New()
			}
			stream := cancellation.NewCancellableStream(token, releasingSource, func(reason cancellation.Reason) streaming.CanonicalEvent {
				return streaming.StreamErrorEvent("cancelled", "stream cancelled: "+string(reason))
			})
			handedOff = true
			return stream, stats, nil
		}
	}

	e.emitEnd(requestID, stats, false)
	if last == nil {
		last = &providererrors.ClassifiedError{Kind: providererrors.KindUnknown, Message: "no targets configured", RequestID: requestID}
	}
	return nil, stats, &ExecutionError{Attempts: history, Last: last}
}

// releaseOnCloseSource releases the backpressure permit acquired for this
// stream's target, and ends the request context the live body is read
// under, the moment the source is closed: by the caller's Close, whether
// after draining the stream or abandoning it, or by the CancellableStream
// once its token is cancelled. Draining the stream does not close it.
type releaseOnCloseSource struct {
	cancellation.Source[streaming.CanonicalEvent]
	release func()
	closed  bool
}

func (r *releaseOnCloseSource) Close() {
	r.Source.Close()
	if !r.closed {
		r.closed = true
		r.release()
	}
}
