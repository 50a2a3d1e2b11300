package resilience

import (
	"context"
	"testing"
	"time"
)

func TestBackpressure_AcquireReleaseWithinLimit(t *testing.T) {
	t.Parallel()

	bp := NewBackpressure(2, 100*time.Millisecond)
	ctx := context.Background()

	if err := bp.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bp.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.InUse() != 2 {
		t.Errorf("expected 2 in use, got %d", bp.InUse())
	}
	bp.Release()
	if bp.InUse() != 1 {
		t.Errorf("expected 1 in use after release, got %d", bp.InUse())
	}
}

func TestBackpressure_QueueWaitTimeoutSurfacesOverloaded(t *testing.T) {
	t.Parallel()

	bp := NewBackpressure(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := bp.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	err := bp.Acquire(ctx)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("expected to wait close to the queue budget, got %s", elapsed)
	}
}

func TestBackpressure_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	bp := NewBackpressure(1, time.Second)
	if err := bp.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := bp.Acquire(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
