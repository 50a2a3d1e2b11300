// Package config centralizes the AI_* environment variables the runtime
// consumes. The core has exactly one configuration surface — environment
// variables — and no config file format of its own; anything richer belongs
// to the caller.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/digitallysavvy/go-ai-core/pkg/telemetry"
)

// Core bundles every environment-derived default the executor, transport,
// and resilience components fall back to when a caller doesn't override
// them explicitly.
type Core struct {
	// ProtocolPath overrides the manifest search root (AI_PROTOCOL_PATH).
	ProtocolPath string

	// HTTPTimeout is the default per-request deadline (AI_HTTP_TIMEOUT_SECS).
	HTTPTimeout time.Duration

	// HTTPTrustEnv mirrors AI_HTTP_TRUST_ENV: honor proxy env vars.
	HTTPTrustEnv bool

	// MaxInflight is the default backpressure permit count (AI_LIB_MAX_INFLIGHT).
	MaxInflight int

	// RPS is the default rate limit (AI_LIB_RPS).
	RPS float64

	// BreakerFailureThreshold is AI_LIB_BREAKER_FAILURE_THRESHOLD.
	BreakerFailureThreshold int

	// BreakerCooldownSecs is AI_LIB_BREAKER_COOLDOWN_SECS.
	BreakerCooldownSecs int

	// StrictStreaming mirrors AI_LIB_STRICT_STREAMING.
	StrictStreaming bool

	// TelemetryEnabled mirrors AI_TELEMETRY_ENABLED: whether the executor's
	// otelsink.Sink records spans at all.
	TelemetryEnabled bool

	// TelemetryFunctionID mirrors AI_TELEMETRY_FUNCTION_ID, grouping spans
	// from this process under one logical operation name.
	TelemetryFunctionID string
}

// TelemetrySettings builds a telemetry.Settings from c, for callers wiring
// an otelsink.Sink from process configuration rather than constructing
// telemetry.Settings by hand.
func (c Core) TelemetrySettings() *telemetry.Settings {
	return telemetry.DefaultSettings().
		WithEnabled(c.TelemetryEnabled).
		WithFunctionID(c.TelemetryFunctionID)
}

// defaults fill every field Load would otherwise leave zero-valued, so a
// caller never special-cases one. HTTPTimeout and the breaker settings match
// the fallbacks transport.New and NewCircuitBreaker apply on their own;
// MaxInflight and RPS have no such counterpart (NewBackpressure falls back to
// a single permit, NewRateLimiter applies no default rate).
var defaults = Core{
	HTTPTimeout:             60 * time.Second,
	HTTPTrustEnv:            false,
	MaxInflight:             64,
	RPS:                     10,
	BreakerFailureThreshold: 5,
	BreakerCooldownSecs:     30,
	StrictStreaming:         false,
}

// Load reads the AI_* environment variables, falling back to sane defaults
// for anything unset or unparsable.
func Load() Core {
	c := defaults
	c.ProtocolPath = os.Getenv("AI_PROTOCOL_PATH")

	if secs := getInt("AI_HTTP_TIMEOUT_SECS"); secs > 0 {
		c.HTTPTimeout = time.Duration(secs) * time.Second
	}
	c.HTTPTrustEnv = getBool("AI_HTTP_TRUST_ENV", c.HTTPTrustEnv)

	if n := getInt("AI_LIB_MAX_INFLIGHT"); n > 0 {
		c.MaxInflight = n
	}
	if r := getFloat("AI_LIB_RPS"); r > 0 {
		c.RPS = r
	}
	if n := getInt("AI_LIB_BREAKER_FAILURE_THRESHOLD"); n > 0 {
		c.BreakerFailureThreshold = n
	}
	if n := getInt("AI_LIB_BREAKER_COOLDOWN_SECS"); n > 0 {
		c.BreakerCooldownSecs = n
	}
	c.StrictStreaming = getBool("AI_LIB_STRICT_STREAMING", c.StrictStreaming)

	c.TelemetryEnabled = getBool("AI_TELEMETRY_ENABLED", c.TelemetryEnabled)
	c.TelemetryFunctionID = os.Getenv("AI_TELEMETRY_FUNCTION_ID")

	return c
}

// ProviderAPIKey reads the environment variable named envVarName (a
// manifest's auth.env_var_name, conventionally <PROVIDER_ID>_API_KEY),
// returning "" when the name is empty or the variable is unset. It is the
// same variable transport.KeyResolver falls back to as its last step.
func ProviderAPIKey(envVarName string) string {
	if envVarName == "" {
		return ""
	}
	return os.Getenv(envVarName)
}

func getInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func getFloat(name string) float64 {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func getBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return fallback
	}
}
