package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestProviderError_ErrorWithCode(t *testing.T) {
	t.Parallel()

	err := &ProviderError{
		Provider:   "openai",
		StatusCode: 429,
		Code:       "insufficient_quota",
		Message:    "You exceeded your current quota",
	}

	want := "openai: http 429 (insufficient_quota): You exceeded your current quota"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestProviderError_ErrorWithoutCode(t *testing.T) {
	t.Parallel()

	err := &ProviderError{Provider: "anthropic", StatusCode: 500, Message: "internal error"}

	want := "anthropic: http 500: internal error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsProviderError_UnwrapsThroughClassifiedError(t *testing.T) {
	t.Parallel()

	wire := &ProviderError{Provider: "openai", StatusCode: 503, Code: "overloaded_error"}
	classified := &ClassifiedError{Kind: KindOverloaded, Cause: wire}

	got, ok := AsProviderError(classified)
	if !ok {
		t.Fatal("expected AsProviderError to find the wrapped *ProviderError")
	}
	if got != wire {
		t.Errorf("unwrapped %+v, want the original envelope", got)
	}
}

func TestAsProviderError_FalseForUnrelatedError(t *testing.T) {
	t.Parallel()

	if _, ok := AsProviderError(errors.New("plain")); ok {
		t.Error("expected no ProviderError in a plain error chain")
	}
}

func TestClassify_NoCredentialsIsAuthentication(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("building request: %w", ErrNoCredentials)

	kind := Classify(ClassifyInput{TransportErr: wrapped})
	if kind != KindAuthentication {
		t.Errorf("Classify(ErrNoCredentials) = %v, want %v", kind, KindAuthentication)
	}
	if kind.Retryable() {
		t.Error("authentication must not be retryable")
	}
	if !kind.Fallbackable() {
		t.Error("authentication must be fallbackable")
	}
}
