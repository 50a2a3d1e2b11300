// Package cancellation provides a cooperative cancellation token threaded
// through the executor, transport, and streaming pipeline. Unlike
// context.Context (which the core also honors for deadlines), CancelToken
// carries a reason and guarantees its callbacks fire exactly once.
package cancellation

import "sync"

// Reason identifies why a CancelToken was cancelled.
type Reason string

const (
	ReasonUserRequest Reason = "user_request"
	ReasonTimeout     Reason = "timeout"
	ReasonError       Reason = "error"
)

// CancelToken is cooperative: cancel() is idempotent and fires registered
// callbacks exactly once. Components that can suspend (rate-limiter wait,
// retry delay, transport I/O, pipeline iteration) poll Cancelled() at
// suspension boundaries and abort with ErrorKind=cancelled.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
	reason    Reason
	done      chan struct{}
	callbacks []func(Reason)
}

// New returns a fresh, live CancelToken.
func New() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel transitions the token to cancelled exactly once and fires every
// registered callback with reason. Subsequent calls are no-ops.
func (t *CancelToken) Cancel(reason Reason) {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	t.reason = reason
	callbacks := t.callbacks
	close(t.done)
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(reason)
	}
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the reason passed to Cancel, or "" if not yet cancelled.
func (t *CancelToken) Reason() Reason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Done returns a channel closed exactly once, when Cancel first runs. It is
// safe to select on from any goroutine, mirroring context.Context.Done().
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// OnCancel registers a callback to run when the token is cancelled. If the
// token is already cancelled, the callback runs synchronously and
// immediately.
func (t *CancelToken) OnCancel(cb func(Reason)) {
	t.mu.Lock()
	if t.cancelled {
		reason := t.reason
		t.mu.Unlock()
		cb(reason)
		return
	}
	t.callbacks = append(t.callbacks, cb)
	t.mu.Unlock()
}
