package domain

import "context"

// WriterPort is the ingestion-facing surface of the catalog module
type WriterPort interface {
	// EnsureSchema creates tables and indexes when missing
	EnsureSchema(ctx context.Context) error

	// Upsert validates, normalizes, and idempotently writes records for a city.
	// Returns the number of rows written. All fields are replaced on conflict
	// except fetched_at, which stays monotonic
	Upsert(ctx context.Context, city string, recs []Record) (int, error)

	// RecordIngestRun appends one audit row for a completed pass
	RecordIngestRun(ctx context.Context, run IngestRun) error

	// RecordSnapshot registers the relative snapshot path for a record
	RecordSnapshot(ctx context.Context, recordID, relPath string) error
}

// ReaderPort is the query-facing surface of the catalog module
type ReaderPort interface {
	// QueryIDs returns record ids matching q, in stable insertion order
	QueryIDs(ctx context.Context, q Query) ([]string, error)
}

// StorageRepo encapsulates every SQL action the catalog performs
type StorageRepo interface {
	CreateSchema(ctx context.Context) error
	UpsertRecords(ctx context.Context, city string, recs []Record) (int, error)
	SelectByDay(ctx context.Context, city, dayISO string) ([]DayRow, error)
	InsertIngestRun(ctx context.Context, run IngestRun) error
	UpsertSnapshotRef(ctx context.Context, recordID, relPath string) error
}

// DayRow is the narrow projection used for in-process category/flag filtering
type DayRow struct {
	ID         string
	Categories []string
	Flags      map[string]bool
}
