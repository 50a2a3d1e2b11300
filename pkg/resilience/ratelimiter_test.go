package resilience

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRateLimiter_AcquireWithinCapacity(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimiterConfig{Capacity: 2, RefillRatePerSec: 10})
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRateLimiter_WaitBudgetExceeded(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimiterConfig{Capacity: 1, RefillRatePerSec: 0.1, WaitBudget: 30 * time.Millisecond})
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error on first acquire: %v", err)
	}

	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("expected rate_limited error once wait budget is exceeded")
	}
}

func TestRateLimiter_AdaptFromHeadersAdjustsRate(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimiterConfig{Capacity: 5, RefillRatePerSec: 1, Adaptive: true})

	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "100")
	h.Set("X-RateLimit-Reset", "10")
	rl.AdaptFromHeaders(h)

	rl.mu.Lock()
	newLimit := float64(rl.limiter.Limit())
	rl.mu.Unlock()

	if newLimit <= 1 {
		t.Errorf("expected adaptive rate to move toward observed 10/sec, got %v", newLimit)
	}
}

func TestRateLimiter_AdaptFromHeadersNoopWhenDisabled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimiterConfig{Capacity: 5, RefillRatePerSec: 1, Adaptive: false})

	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "100")
	h.Set("X-RateLimit-Reset", "10")
	rl.AdaptFromHeaders(h)

	rl.mu.Lock()
	newLimit := float64(rl.limiter.Limit())
	rl.mu.Unlock()

	if newLimit != 1 {
		t.Errorf("expected rate unchanged when adaptive disabled, got %v", newLimit)
	}
}
