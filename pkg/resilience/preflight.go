package resilience

import (
	"context"
	"sync"
)

// Gate identifies which preflight stage rejected a call, for observability
// emission and for testable property 6 (preflight ordering).
type Gate string

const (
	GateCircuit      Gate = "circuit"
	GateRateLimiter  Gate = "rate_limiter"
	GateBackpressure Gate = "backpressure"
)

// GateError wraps the classified failure from whichever gate rejected the
// call, tagged with which gate produced it.
type GateError struct {
	Gate Gate
	Err  error
}

func (e *GateError) Error() string { return e.Err.Error() }
func (e *GateError) Unwrap() error { return e.Err }

// ProviderResilience bundles the per-(provider, scope) shared resilience
// components: the rate limiter, circuit breaker, and backpressure
// semaphore all requests targeting that key contend over.
type ProviderResilience struct {
	Breaker      *CircuitBreaker
	Limiter      *RateLimiter
	Backpressure *Backpressure
}

// PreflightChecker composes the resilience components into one gate,
// evaluated in a fixed order: circuit -> rate limiter -> backpressure. Any
// failure short-circuits and surfaces the corresponding kind tagged with
// the gate that rejected it.
type PreflightChecker struct {
	res *ProviderResilience
}

// NewPreflightChecker builds a checker over one provider's shared
// resilience components.
func NewPreflightChecker(res *ProviderResilience) *PreflightChecker {
	return &PreflightChecker{res: res}
}

// Permit is what a successful preflight pass hands the caller: the
// backpressure release and the circuit-probe report it owes once the
// attempt resolves, on every exit path including failure.
type Permit struct {
	release func()
	report  func(success bool)
}

// Release returns the backpressure slot. Idempotent.
func (p *Permit) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

// ReportCircuit records the attempt's outcome against the circuit breaker,
// advancing its consecutive-failure or half-open-probe counters. Idempotent.
func (p *Permit) ReportCircuit(success bool) {
	if p.report != nil {
		p.report(success)
		p.report = nil
	}
}

// Check runs the fixed-order gate sequence. The open-circuit check comes
// first so a tripped breaker rejects before a rate-limit token or
// backpressure slot is consumed; the probe slot itself is reserved last,
// once every other gate has passed, so a half-open breaker bounds its
// concurrent probes before the wire is ever touched.
func (p *PreflightChecker) Check(ctx context.Context) (*Permit, error) {
	if p.res.Breaker != nil && p.res.Breaker.State() == CircuitOpen {
		return nil, &GateError{Gate: GateCircuit, Err: overloadedErr("circuit breaker open")}
	}

	if p.res.Limiter != nil {
		if err := p.res.Limiter.Acquire(ctx); err != nil {
			return nil, &GateError{Gate: GateRateLimiter, Err: err}
		}
	}

	permit := &Permit{}
	if p.res.Backpressure != nil {
		if err := p.res.Backpressure.Acquire(ctx); err != nil {
			return nil, &GateError{Gate: GateBackpressure, Err: err}
		}
		permit.release = p.res.Backpressure.Release
	}

	if p.res.Breaker != nil {
		report, err := p.res.Breaker.Allow()
		if err != nil {
			permit.Release()
			return nil, &GateError{Gate: GateCircuit, Err: err}
		}
		permit.report = report
	}

	return permit, nil
}

// Registry holds process-wide ProviderResilience instances keyed by
// provider id (or a caller-chosen scope string), built lazily on first
// use.
type Registry struct {
	mu    sync.Mutex
	items map[string]*ProviderResilience
	build func(scope string) *ProviderResilience
}

// NewRegistry builds a Registry that lazily constructs a
// ProviderResilience for each new scope using build.
func NewRegistry(build func(scope string) *ProviderResilience) *Registry {
	return &Registry{items: make(map[string]*ProviderResilience), build: build}
}

// Get returns the ProviderResilience for scope, constructing it on first
// access.
func (r *Registry) Get(scope string) *ProviderResilience {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.items[scope]; ok {
		return res
	}
	res := r.build(scope)
	r.items[scope] = res
	return res
}
