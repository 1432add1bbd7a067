package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	RD RDConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// RDConfig configures the cache backend and its guardrails.
// An empty URL with InMemory=false leaves the seam in permanent bypass
type RDConfig struct {
	Enabled bool
	URL     string

	// InMemory swaps the remote client for the in-process map implementation
	InMemory bool

	// Bypass is the operator override: skip every cache call regardless of breaker state
	Bypass bool

	ConnectTimeout time.Duration
	OpTimeout      time.Duration

	// Circuit breaker knobs, one breaker per backend endpoint
	BreakerThreshold  int
	BreakerOpenWindow time.Duration
}
