// Package domain defines the catalog record model and storage ports
package domain

import (
	"time"

	ptime "citypulse/internal/platform/time"
)

// Record is one ingested time-bound record. Identity is ID, which is
// stable and source-derived; re-ingesting the same ID refreshes content
type Record struct {
	ID       string     `json:"id" validate:"required"`
	Title    string     `json:"title" validate:"required"`
	Desc     string     `json:"desc,omitempty"`
	StartAt  *time.Time `json:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty"`
	TimeText string     `json:"time_text,omitempty"`
	Venue    string     `json:"venue,omitempty"`
	Area     string     `json:"area,omitempty"`
	Address  string     `json:"address,omitempty"`
	Image    string     `json:"image,omitempty" validate:"omitempty,url"`
	URL      string     `json:"url" validate:"required,url"`
	PriceMin *float64   `json:"price_min,omitempty"`

	Categories []string        `json:"categories,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`

	Source    string    `json:"source" validate:"required"`
	FetchedAt time.Time `json:"fetched_at"`

	// SnapshotRef is the relative path of the captured raw content, if any
	SnapshotRef string `json:"snapshot_ref,omitempty"`
}

// Day returns the record's start day as YYYY-MM-DD in UTC, or "" when unscheduled
func (r Record) Day() string {
	if r.StartAt == nil {
		return ""
	}
	return ptime.DayISO(*r.StartAt)
}

// HasCategory reports case-insensitive category membership
func (r Record) HasCategory(category string) bool {
	for _, c := range r.Categories {
		if equalFold(c, category) {
			return true
		}
	}
	return false
}

// HasFlag reports whether the boolean attribute is present and true
func (r Record) HasFlag(flag string) bool {
	return r.Flags[NormTag(flag)]
}

// Query selects record ids for one city and day, optionally narrowed by
// a category or a boolean flag. Category and Flag are mutually exclusive
// by convention; when both are set, both must match
type Query struct {
	City     string `validate:"required"`
	Day      string `validate:"required,datetime=2006-01-02"`
	Category string
	Flag     string
}

// IngestRun is one append-only audit row for an ingestion pass
type IngestRun struct {
	TS     time.Time `json:"ts"`
	Source string    `json:"source"`
	Count  int       `json:"count"`
	OK     bool      `json:"ok"`
	Note   string    `json:"note,omitempty"`
}
