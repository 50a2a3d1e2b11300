package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// CircuitState renames gobreaker's internal states, so callers and
// observability events never see a gobreaker-specific name.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig parameterizes the breaker.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint32
	CooldownSecs     int
	SuccessThreshold uint32

	// OnStateChange, if set, is notified of every transition for
	// observability emission as circuit_state_change events.
	OnStateChange func(from, to CircuitState)
}

// CircuitBreaker wraps sony/gobreaker's two-step breaker, translating its
// generic consecutive-failure counting into a closed/open/half_open state
// machine: FailureThreshold consecutive failures trips it, Cooldown
// governs how long it stays open, SuccessThreshold is the number of
// concurrent half-open probes allowed before closing again. The two-step
// form matters for preflight: Allow reserves a probe slot before the wire
// is touched, so excess half-open callers are rejected without a request
// ever leaving the process.
type CircuitBreaker struct {
	cb *gobreaker.TwoStepCircuitBreaker

	mu       sync.Mutex
	listener func(from, to CircuitState)
}

// NewCircuitBreaker builds a CircuitBreaker from cfg. gobreaker fixes its
// OnStateChange hook at construction, so the breaker always wires it to an
// internal dispatcher (never directly to cfg.OnStateChange) and fans that
// dispatch out to cfg.OnStateChange plus whatever Subscribe registers
// later, once the caller has an observability.Sink to hand it to.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	successThreshold := cfg.SuccessThreshold
	if successThreshold == 0 {
		successThreshold = 1
	}
	cooldown := time.Duration(cfg.CooldownSecs) * time.Second
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := &CircuitBreaker{}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: successThreshold,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromState, toState := translateState(from), translateState(to)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(fromState, toState)
			}
			breaker.notify(fromState, toState)
		},
	}

	breaker.cb = gobreaker.NewTwoStepCircuitBreaker(settings)
	return breaker
}

// Subscribe registers the listener notified of every state transition from
// this point on, replacing whatever listener was previously subscribed. A
// single slot is enough: the executor is the only caller that subscribes,
// re-subscribing on every call it makes against this breaker's scope so the
// listener always closes over the current request's observability context.
func (c *CircuitBreaker) Subscribe(listener func(from, to CircuitState)) {
	c.mu.Lock()
	c.listener = listener
	c.mu.Unlock()
}

func (c *CircuitBreaker) notify(from, to CircuitState) {
	c.mu.Lock()
	listener := c.listener
	c.mu.Unlock()
	if listener != nil {
		listener(from, to)
	}
}

func translateState(s gobreaker.State) CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return CircuitOpen
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}

// State reports the breaker's current state.
func (c *CircuitBreaker) State() CircuitState {
	return translateState(c.cb.State())
}

// overloadedErr is what Allow surfaces when the breaker rejects a call,
// either because it's open or because every half-open probe slot is taken.
func overloadedErr(message string) error {
	return &providererrors.ClassifiedError{Kind: providererrors.KindOverloaded, Retryable: true, Fallbackable: true, Message: message}
}

// Allow reserves one attempt slot without performing the attempt: an open
// circuit (or a half-open one whose probe budget is spent) rejects with
// overloaded before the wire is ever touched. On success the returned
// report func must be called exactly once with the attempt's outcome, so
// the consecutive-failure and half-open-probe counters advance.
func (c *CircuitBreaker) Allow() (report func(success bool), err error) {
	done, err := c.cb.Allow()
	if err != nil {
		return nil, overloadedErr(err.Error())
	}
	return done, nil
}
