package errors

// ErrorKind is the closed set of error classifications every fallible
// protocol operation ultimately surfaces. The set is fixed; new provider
// behaviors are absorbed by the HTTP table or a manifest's error_mapping,
// never by adding a new kind.
type ErrorKind string

const (
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindAuthentication   ErrorKind = "authentication"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindNotFound         ErrorKind = "not_found"
	KindRequestTooLarge  ErrorKind = "request_too_large"
	KindRateLimited      ErrorKind = "rate_limited"
	KindQuotaExhausted   ErrorKind = "quota_exhausted"
	KindServerError      ErrorKind = "server_error"
	KindOverloaded       ErrorKind = "overloaded"
	KindTimeout          ErrorKind = "timeout"
	KindConflict         ErrorKind = "conflict"
	KindCancelled        ErrorKind = "cancelled"
	KindUnknown          ErrorKind = "unknown"
)

// kindProperties holds the static retryable/fallbackable bits for a kind.
// Table is fixed by design; do not derive it at runtime.
type kindProperties struct {
	retryable    bool
	fallbackable bool
}

var kindTable = map[ErrorKind]kindProperties{
	KindInvalidRequest:   {retryable: false, fallbackable: false},
	KindAuthentication:   {retryable: false, fallbackable: true},
	KindPermissionDenied: {retryable: false, fallbackable: false},
	KindNotFound:         {retryable: false, fallbackable: false},
	KindRequestTooLarge:  {retryable: false, fallbackable: false},
	KindRateLimited:      {retryable: true, fallbackable: true},
	KindQuotaExhausted:   {retryable: false, fallbackable: true},
	KindServerError:      {retryable: true, fallbackable: true},
	KindOverloaded:       {retryable: true, fallbackable: true},
	KindTimeout:          {retryable: true, fallbackable: true},
	KindConflict:         {retryable: true, fallbackable: false},
	KindCancelled:        {retryable: false, fallbackable: false},
	KindUnknown:          {retryable: false, fallbackable: false},
}

// Retryable reports whether attempts classified with this kind may be retried
// against the same target.
func (k ErrorKind) Retryable() bool {
	return kindTable[k].retryable
}

// Fallbackable reports whether attempts classified with this kind may advance
// a FallbackChain to the next target.
func (k ErrorKind) Fallbackable() bool {
	return kindTable[k].fallbackable
}

// Valid reports whether k is one of the 13 defined kinds.
func (k ErrorKind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// httpStatusTable is the fixed HTTP status -> ErrorKind mapping used by
// Classify when no transport failure and no manifest error_mapping override
// applies.
var httpStatusTable = map[int]ErrorKind{
	400: KindInvalidRequest,
	401: KindAuthentication,
	403: KindPermissionDenied,
	404: KindNotFound,
	408: KindTimeout,
	409: KindConflict,
	413: KindRequestTooLarge,
	422: KindInvalidRequest,
	429: KindRateLimited,
	500: KindServerError,
	502: KindServerError,
	503: KindOverloaded,
	504: KindServerError,
	529: KindOverloaded,
}

// classifyHTTPStatus applies the fixed HTTP table, defaulting to KindUnknown.
func classifyHTTPStatus(status int) ErrorKind {
	if kind, ok := httpStatusTable[status]; ok {
		return kind
	}
	return KindUnknown
}
