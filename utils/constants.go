package utils

import (
	"time"
)

// Hold lifecycle constants
const (
	// DefaultHoldTTL is the default time-to-live for a soft hold (48 hours)
	DefaultHoldTTL = 48 * time.Hour

	// MaxHoldTTL caps caller-supplied hold TTLs (14 days)
	MaxHoldTTL = 14 * 24 * time.Hour

	// DefaultSweepInterval is how often the expiration sweeper runs
	DefaultSweepInterval = time.Minute

	// DefaultSweepBatchSize bounds how many expired holds one sweep round releases
	DefaultSweepBatchSize = 500

	// MaxHoldCount caps the number of slots a single hold may reserve
	MaxHoldCount = 10

	// DefaultEpisodeDurationSeconds is assumed for episodes created during
	// schedule binding before their real runtime is known (30 minutes)
	DefaultEpisodeDurationSeconds = 1800
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys set by middleware and handlers
const (
	RequestIDKey      ContextKey = "request_id"
	UserAgentKey      ContextKey = "user_agent"
	IPAddressKey      ContextKey = "ip_address"
	EndpointKey       ContextKey = "endpoint"
	ActorIDKey        ContextKey = "actor_id"
	OrganizationIDKey ContextKey = "organization_id"
	TimeoutKey        ContextKey = "timeout"
	CancelFuncKey     ContextKey = "cancel_func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
