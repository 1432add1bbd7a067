// Package domain defines the snapshot archiver port
package domain

import (
	"context"
	"time"
)

// ArchiverPort captures raw remote content for a sampled subset of records
type ArchiverPort interface {
	// Eligible reports whether the item at rank (0-based) falls into the
	// configured top share of total
	Eligible(total, rank int) bool

	// Path builds the relative archive path for recordID at time at
	Path(recordID string, at time.Time) string

	// Capture downloads url and stores it compressed under the relative path.
	// Errors are returned for the caller to log; a failed capture never
	// aborts an ingestion pass
	Capture(ctx context.Context, url, relPath string) error
}
