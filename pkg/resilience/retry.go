// Package resilience implements the preflight/retry/circuit/fallback
// machinery that sits between the executor and the transport: everything
// here composes into the PreflightChecker gate and the retry/fallback loop
// a ResilientExecutor drives.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// JitterMode selects how RetryPolicy randomizes its computed base delay.
type JitterMode string

const (
	JitterNone  JitterMode = "none"
	JitterFull  JitterMode = "full"
	JitterEqual JitterMode = "equal"
)

// RetryPolicy computes backoff delays and decides whether an attempt
// should retry at all, from the classified error kind and any server hint.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Jitter      JitterMode
}

// DefaultRetryPolicy is what the executor falls back to when a caller
// passes a zero-valued policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, MinDelay: time.Second, MaxDelay: 60 * time.Second, Jitter: JitterEqual}
}

// ShouldRetry reports whether attempt (1-indexed, the attempt that just
// failed) should be followed by another, given the classified error, the
// circuit breaker's current openness, and whether cancellation fired.
func (p RetryPolicy) ShouldRetry(kind errors.ErrorKind, attempt int, circuitOpen, cancelled bool) bool {
	if cancelled || circuitOpen {
		return false
	}
	if attempt >= p.MaxAttempts {
		return false
	}
	return kind.Retryable()
}

// Delay returns the wait before the next attempt. retryAfter, when
// non-nil, overrides the computed exponential delay but is still clamped
// to MaxDelay.
func (p RetryPolicy) Delay(attempt int, retryAfter *time.Duration) time.Duration {
	if retryAfter != nil {
		d := *retryAfter
		if d > p.MaxDelay {
			d = p.MaxDelay
		}
		if d < 0 {
			d = 0
		}
		return d
	}

	base := float64(p.MinDelay) * math.Pow(2, float64(attempt))
	if base > float64(p.MaxDelay) {
		base = float64(p.MaxDelay)
	}
	return p.applyJitter(time.Duration(base))
}

func (p RetryPolicy) applyJitter(d time.Duration) time.Duration {
	switch p.Jitter {
	case JitterFull:
		return time.Duration(rand.Int63n(int64(d) + 1))
	case JitterEqual:
		half := int64(d) / 2
		return time.Duration(half + rand.Int63n(half+1))
	default:
		return d
	}
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
