package resilience

import (
	"context"
	"time"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// Backpressure is a counting semaphore bounding in-flight requests. It is
// shared process-wide (or per-scope) the way the rate limiter and circuit
// breaker are; acquiring beyond max_inflight waits up to a queue timeout
// before surfacing overloaded.
type Backpressure struct {
	slots     chan struct{}
	queueWait time.Duration
}

// NewBackpressure builds a Backpressure gate with maxInflight permits and a
// queueWait bound on how long Acquire waits for a free permit.
func NewBackpressure(maxInflight int, queueWait time.Duration) *Backpressure {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	return &Backpressure{slots: make(chan struct{}, maxInflight), queueWait: queueWait}
}

// Acquire blocks until a permit is free, ctx is done, or queueWait elapses,
// whichever comes first. The caller must call Release exactly once for
// every successful Acquire, on every exit path including failure.
func (b *Backpressure) Acquire(ctx context.Context) error {
	waitCtx := ctx
	var cancel context.CancelFunc
	if b.queueWait > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, b.queueWait)
		defer cancel()
	}

	select {
	case b.slots <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return classifiedCtxErr(ctx.Err(), "backpressure wait interrupted")
		}
		return &errors.ClassifiedError{Kind: errors.KindOverloaded, Retryable: true, Fallbackable: true, Message: "backpressure queue-wait timeout exceeded"}
	}
}

// Release returns a permit acquired by Acquire.
func (b *Backpressure) Release() {
	select {
	case <-b.slots:
	default:
	}
}

// InUse reports how many permits are currently held, useful for
// observability emission.
func (b *Backpressure) InUse() int {
	return len(b.slots)
}
