// Package executor implements the ResilientExecutor: the single function
// that glues the preflight gate, retry policy, fallback chain, and
// transport into one call, and the only component allowed to mutate
// CallStats.
package executor

// CallStats is created once at executor entry and mutated only by the
// executor as a call proceeds across retries and fallback targets.
type CallStats struct {
	RequestID          string
	LatencyMs          int64
	TimeToFirstEventMs *int64
	RetryCount         int
	TargetUsed         string
	TokensIn           *int64
	TokensOut          *int64
}
