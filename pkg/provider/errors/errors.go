// Package errors defines the closed error taxonomy every fallible protocol
// operation surfaces, the classifier that maps transport failures and HTTP
// responses onto it, and the structured error types the executor threads
// through retry, fallback, and attempt history.
package errors

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is wrapped by the transport's key resolution when no API
// key can be found for a target (explicit key, target key, and the
// provider's environment variable all empty). Classify maps any error
// wrapping it to KindAuthentication, so a missing local credential surfaces
// the same way an upstream 401 does instead of masquerading as a transport
// failure.
var ErrNoCredentials = errors.New("no API key resolved")

// ProviderError is the decoded error envelope of a failing upstream
// response: the provider's own code and message pulled out of the body,
// kept as the ClassifiedError's cause so callers can inspect what the
// provider actually said without re-parsing the raw bytes.
type ProviderError struct {
	// Provider is the manifest id of the upstream that produced the error.
	Provider string

	// StatusCode is the HTTP status of the failing response.
	StatusCode int

	// Code is the provider's own error code or type string, when the body
	// carried one (e.g. "insufficient_quota", "overloaded_error").
	Code string

	// Message is the human-readable message from the error envelope, or the
	// raw body when no envelope could be decoded.
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: http %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Message)
}

// AsProviderError unwraps err down to a *ProviderError, if one is anywhere
// in its chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
