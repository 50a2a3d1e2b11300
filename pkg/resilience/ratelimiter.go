package resilience

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// RateLimiterConfig parameterizes the token bucket: capacity is the burst
// size, RefillRatePerSec is tokens added per second.
type RateLimiterConfig struct {
	Capacity         int
	RefillRatePerSec float64

	// WaitBudget bounds how long a preflight Acquire cooperatively waits for
	// a token before surfacing rate_limited locally, without hitting the
	// wire.
	WaitBudget time.Duration

	// Adaptive enables adjusting RefillRatePerSec toward observed upstream
	// rate-limit headers after each response.
	Adaptive bool
}

// RateLimiter wraps golang.org/x/time/rate's token bucket as the
// process-wide, provider-scoped component the PreflightChecker composes.
type RateLimiter struct {
	mu         sync.Mutex
	limiter    *rate.Limiter
	waitBudget time.Duration
	adaptive   bool
}

// NewRateLimiter builds a RateLimiter from cfg.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(cfg.RefillRatePerSec), capacity),
		waitBudget: cfg.WaitBudget,
		adaptive:   cfg.Adaptive,
	}
}

// Acquire waits cooperatively, up to the configured wait budget, for a
// token. If none becomes available within budget the request fails
// rate_limited locally rather than proceeding to the wire.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	lim := r.limiter
	budget := r.waitBudget
	r.mu.Unlock()

	waitCtx := ctx
	var cancel context.CancelFunc
	if budget > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	if err := lim.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return classifiedCtxErr(ctx.Err(), "rate limiter wait interrupted")
		}
		return &errors.ClassifiedError{Kind: errors.KindRateLimited, Retryable: true, Fallbackable: true, Message: "local rate limit wait budget exceeded"}
	}
	return nil
}

// classifiedCtxErr wraps a context cancellation or deadline expiry observed
// during a gate wait, so the surfaced kind is cancelled/timeout rather than
// whatever the interrupted gate would otherwise report.
func classifiedCtxErr(ctxErr error, message string) *errors.ClassifiedError {
	kind := errors.Classify(errors.ClassifyInput{TransportErr: ctxErr})
	return &errors.ClassifiedError{
		Kind:         kind,
		Retryable:    kind.Retryable(),
		Fallbackable: kind.Fallbackable(),
		Message:      message,
		Cause:        ctxErr,
	}
}

// AdaptFromHeaders adjusts RefillRatePerSec toward the upstream's reported
// remaining-tokens/reset window, when adaptive mode is enabled. Unknown or
// missing headers are a no-op.
func (r *RateLimiter) AdaptFromHeaders(h http.Header) {
	if !r.adaptive {
		return
	}
	remaining, hasRemaining := parseIntHeader(h, "X-RateLimit-Remaining")
	resetSecs, hasReset := parseIntHeader(h, "X-RateLimit-Reset")
	if !hasRemaining || !hasReset || resetSecs <= 0 {
		return
	}

	observedRate := float64(remaining) / float64(resetSecs)
	if observedRate <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current := float64(r.limiter.Limit())
	// Move a third of the way toward the observed rate each update so a
	// single noisy response can't whipsaw the bucket.
	adjusted := current + (observedRate-current)/3
	if adjusted <= 0 {
		adjusted = current
	}
	r.limiter.SetLimit(rate.Limit(adjusted))
}

func parseIntHeader(h http.Header, name string) (int, bool) {
	v := h.Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
