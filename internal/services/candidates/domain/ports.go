package domain

import "context"

// CachePort is the SWR read/write surface exposed by the candidates module
type CachePort interface {
	// Read returns the cached ids for key with an explicit freshness status.
	// allowStale permits serving entries past their logical TTL but inside
	// the SWR margin; without it such entries read as a miss
	Read(ctx context.Context, key string, allowStale bool) ([]string, Status)

	// Write replaces key's payload wholesale. Returns false when the write
	// was skipped (bypass, open breaker) or failed; never errors
	Write(ctx context.Context, key string, ids []string) bool
}
