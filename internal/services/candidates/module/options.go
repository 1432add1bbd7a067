package module

import (
	"time"

	"citypulse/internal/platform/config"
)

// Options for the candidates module
type Options struct {
	TTL         time.Duration
	StaleMargin time.Duration
}

// FromConfig fills options from environment
// CACHE_TTL (default 20m) is the logical freshness window
// CACHE_SWR_MARGIN (default 5m) is the extra stale-but-servable window
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("CACHE_")
	return Options{
		TTL:         n.MayDuration("TTL", 20*time.Minute),
		StaleMargin: n.MayDuration("SWR_MARGIN", 5*time.Minute),
	}
}
