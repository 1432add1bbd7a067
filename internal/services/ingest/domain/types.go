// Package domain defines ingestion pass types and ports
package domain

// DropCounts aggregates why collected records were excluded from a pass
type DropCounts struct {
	NoStart    int `json:"no_start,omitempty"`
	OutOfRange int `json:"out_of_range,omitempty"`
	NoURL      int `json:"no_url,omitempty"`
}

// Total returns the sum of all drop reasons
func (d DropCounts) Total() int { return d.NoStart + d.OutOfRange + d.NoURL }

// PassResult summarizes one completed ingestion pass
type PassResult struct {
	PassID     string     `json:"pass_id"`
	Fetched    int        `json:"fetched"`
	Kept       int        `json:"kept"`
	Upserted   int        `json:"upserted"`
	CachedKeys int        `json:"cached_keys"`
	FailedKeys int        `json:"failed_keys"`
	Snapshots  int        `json:"snapshots"`
	Drops      DropCounts `json:"drops"`
}
