package module

import (
	"time"

	"citypulse/internal/platform/config"
)

// Options for the ingest module
type Options struct {
	City            string
	DaysAhead       int
	Retries         int
	Backoff         time.Duration
	PauseAfterFetch time.Duration
	Interval        time.Duration

	SnapshotsEnabled   bool
	SnapshotTopPercent float64
	SnapshotDir        string
	SnapshotTimeout    time.Duration
}

// FromConfig fills options from environment
// INGEST_CITY (default "bangkok") is the target city for keys and rows
// INGEST_DAYS_AHEAD (default 2) bounds the pass date range inclusive
// INGEST_RETRIES (default 3) bounds collection attempts per pass
// INGEST_BACKOFF (default 400ms) grows linearly with each failed attempt
// INGEST_PAUSE (default 400ms) is the post-collection courtesy pause
// INGEST_INTERVAL (default 30m) is the pass cadence; 24h for daily
// SNAPSHOT_ENABLE (default false) toggles raw content capture
// SNAPSHOT_TOP_PERCENT (default 0.2) selects the leading share per pass
// SNAPSHOT_DIR (default /data/snapshots) is the archive root
// SNAPSHOT_TIMEOUT (default 8s) bounds one download
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("INGEST_")
	s := cfg.Prefix("SNAPSHOT_")
	return Options{
		City:            n.MayString("CITY", "bangkok"),
		DaysAhead:       n.MayInt("DAYS_AHEAD", 2),
		Retries:         n.MayInt("RETRIES", 3),
		Backoff:         n.MayDuration("BACKOFF", 400*time.Millisecond),
		PauseAfterFetch: n.MayDuration("PAUSE", 400*time.Millisecond),
		Interval:        n.MayDuration("INTERVAL", 30*time.Minute),

		SnapshotsEnabled:   s.MayBool("ENABLE", false),
		SnapshotTopPercent: s.MayFloat64("TOP_PERCENT", 0.2),
		SnapshotDir:        s.MayString("DIR", "/data/snapshots"),
		SnapshotTimeout:    s.MayDuration("TIMEOUT", 8*time.Second),
	}
}
