package errors

import (
	"context"
	"errors"
	"time"
)

// ClassifyInput bundles everything the classifier may consult. All fields
// are optional except that at least one of TransportErr or HTTPStatus should
// be meaningful for a non-unknown result.
type ClassifyInput struct {
	// HTTPStatus is the response status code, if a response was received.
	HTTPStatus int

	// ProviderErrorCode is the provider's own error code/type string, if any
	// (e.g. Anthropic's "overloaded_error", OpenAI's "insufficient_quota").
	ProviderErrorCode string

	// TransportErr is set when the request never produced a response
	// (connect failure, DNS, read timeout, context cancellation).
	TransportErr error

	// ErrorMapping is the active manifest's error_mapping table:
	// provider error code -> ErrorKind override.
	ErrorMapping map[string]ErrorKind
}

// ClassifiedError is the structured context attached to every classified
// failure: what kind it is, whether it's retryable/fallbackable, and enough
// provenance to build an attempt history entry.
type ClassifiedError struct {
	Kind         ErrorKind
	Retryable    bool
	Fallbackable bool

	HTTPStatus   int
	ProviderCode string
	RetryAfter   *time.Duration
	Target       string
	Attempt      int
	RequestID    string
	Message      string

	Cause error
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// Classify applies the fixed priority pipeline and is pure and total: it
// always returns exactly one of the 13 ErrorKinds and never panics.
//
//  1. transport failure: ErrNoCredentials -> authentication,
//     context-cancelled -> cancelled, deadline-exceeded or a net timeout ->
//     timeout, anything else -> server_error.
//  2. manifest.error_mapping override keyed by provider error code.
//  3. fixed HTTP status table.
//  4. otherwise unknown.
func Classify(in ClassifyInput) ErrorKind {
	if in.TransportErr != nil {
		if errors.Is(in.TransportErr, ErrNoCredentials) {
			return KindAuthentication
		}
		if errors.Is(in.TransportErr, context.Canceled) {
			return KindCancelled
		}
		if errors.Is(in.TransportErr, context.DeadlineExceeded) {
			return KindTimeout
		}
		var netTimeout interface{ Timeout() bool }
		if errors.As(in.TransportErr, &netTimeout) && netTimeout.Timeout() {
			return KindTimeout
		}
		return KindServerError
	}

	if in.ProviderErrorCode != "" && in.ErrorMapping != nil {
		if kind, ok := in.ErrorMapping[in.ProviderErrorCode]; ok && kind.Valid() {
			return kind
		}
	}

	if in.HTTPStatus != 0 {
		return classifyHTTPStatus(in.HTTPStatus)
	}

	return KindUnknown
}

// NewClassifiedError runs Classify and wraps the result plus context into a
// ClassifiedError, filling Retryable/Fallbackable from the static table.
func NewClassifiedError(in ClassifyInput, target, requestID string, attempt int, message string, retryAfter *time.Duration) *ClassifiedError {
	kind := Classify(in)
	return &ClassifiedError{
		Kind:         kind,
		Retryable:    kind.Retryable(),
		Fallbackable: kind.Fallbackable(),
		HTTPStatus:   in.HTTPStatus,
		ProviderCode: in.ProviderErrorCode,
		RetryAfter:   retryAfter,
		Target:       target,
		Attempt:      attempt,
		RequestID:    requestID,
		Message:      message,
		Cause:        in.TransportErr,
	}
}
