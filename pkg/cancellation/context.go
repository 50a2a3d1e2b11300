package cancellation

import "context"

// WithContext derives a context from parent that is cancelled the moment
// token is cancelled, in addition to whatever would already cancel parent.
// The executor uses this to thread a CancelToken into transport calls that
// only know how to honor context.Context (http.Client, net.Dialer): once
// the derived context is cancelled, the in-flight HTTP call is aborted and
// its response body unblocks any pending read.
//
// The returned cancel func must be called once the caller is done with ctx,
// same as context.WithCancel, to release the goroutine watching token.Done().
func WithContext(parent context.Context, token *CancelToken) (context.Context, context.CancelFunc) {
	if token == nil {
		return context.WithCancel(parent)
	}

	ctx, cancel := context.WithCancel(parent)
	stop := make(chan struct{})
	go func() {
		select {
		case <-token.Done():
			cancel()
		case <-stop:
		}
	}()

	return ctx, func() {
		close(stop)
		cancel()
	}
}
