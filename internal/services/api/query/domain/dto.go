// Package domain holds the query API request and response shapes
package domain

// CandidatesInput carries the query parameters for a candidate lookup.
// Category and flag are mutually exclusive cache dimensions; when both
// are present the lookup goes straight to the database
type CandidatesInput struct {
	City     string `json:"city"`
	Day      string `json:"day"`
	Category string `json:"category,omitempty"`
	Flag     string `json:"flag,omitempty"`
}

// CandidatesResult is the lookup outcome with its provenance
type CandidatesResult struct {
	City     string   `json:"city"`
	Day      string   `json:"day"`
	Category string   `json:"category,omitempty"`
	Flag     string   `json:"flag,omitempty"`
	IDs      []string `json:"ids"`

	// Source is where the ids came from: "cache", "cache-stale", or "db"
	Source string `json:"source"`

	// Cache is the raw cache read status for the derived key,
	// empty when the lookup never touched the cache
	Cache string `json:"cache,omitempty"`
}

// Provenance values for CandidatesResult.Source
const (
	SourceCache      = "cache"
	SourceCacheStale = "cache-stale"
	SourceDB         = "db"
)
