package domain

import (
	"context"

	catdom "citypulse/internal/services/catalog/domain"
)

// CollectorPort pulls normalized records from the external source layer.
// Deduplication by identity happens inside the collector
type CollectorPort interface {
	Collect(ctx context.Context) ([]catdom.Record, error)
}

// RunnerPort is the public entrypoint exposed by the ingest module
type RunnerPort interface {
	// RunOnce executes exactly one pass: collect, filter, persist,
	// cache fan-out, and optional snapshot capture
	RunOnce(ctx context.Context) (PassResult, error)

	// RunForever fires passes on the configured interval until ctx ends.
	// Overlapping ticks are skipped, never queued
	RunForever(ctx context.Context) error
}
