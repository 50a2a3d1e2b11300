package resilience

import (
	"testing"
	"time"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

func TestRetryPolicy_BaseDelayNonDecreasingAndBounded(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 10, MinDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: JitterNone}

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Delay(attempt, nil)
		if d < prev {
			t.Errorf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > p.MaxDelay {
			t.Errorf("delay at attempt %d exceeds max: %v", attempt, d)
		}
		prev = d
	}
}

func TestRetryPolicy_RetryAfterHintOverridesButClamps(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 3, MinDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: JitterNone}

	hint := 2 * time.Second
	if d := p.Delay(1, &hint); d != 2*time.Second {
		t.Errorf("expected the hint verbatim, got %v", d)
	}

	huge := time.Minute
	if d := p.Delay(1, &huge); d != p.MaxDelay {
		t.Errorf("expected the hint clamped to max, got %v", d)
	}

	negative := -time.Second
	if d := p.Delay(1, &negative); d != 0 {
		t.Errorf("expected a negative hint floored to zero, got %v", d)
	}
}

func TestRetryPolicy_JitterStaysWithinBase(t *testing.T) {
	t.Parallel()

	base := RetryPolicy{MaxAttempts: 5, MinDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: JitterNone}
	full := base
	full.Jitter = JitterFull
	equal := base
	equal.Jitter = JitterEqual

	for attempt := 1; attempt <= 5; attempt++ {
		upper := base.Delay(attempt, nil)
		for i := 0; i < 50; i++ {
			if d := full.Delay(attempt, nil); d < 0 || d > upper {
				t.Fatalf("full jitter out of [0, %v]: %v", upper, d)
			}
			if d := equal.Delay(attempt, nil); d < upper/2 || d > upper {
				t.Fatalf("equal jitter out of [%v, %v]: %v", upper/2, upper, d)
			}
		}
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 3}

	tests := []struct {
		name        string
		kind        errors.ErrorKind
		attempt     int
		circuitOpen bool
		cancelled   bool
		want        bool
	}{
		{"retryable kind within budget", errors.KindServerError, 1, false, false, true},
		{"retryable kind at budget", errors.KindServerError, 3, false, false, false},
		{"non-retryable kind", errors.KindInvalidRequest, 1, false, false, false},
		{"circuit open blocks retry", errors.KindServerError, 1, true, false, false},
		{"cancellation blocks retry", errors.KindServerError, 1, false, true, false},
		{"rate limited retries", errors.KindRateLimited, 2, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ShouldRetry(tt.kind, tt.attempt, tt.circuitOpen, tt.cancelled)
			if got != tt.want {
				t.Errorf("ShouldRetry = %v, want %v", got, tt.want)
			}
		})
	}
}
