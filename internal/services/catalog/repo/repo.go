// Package repo provides the catalog storage repository over Postgres
package repo

import (
	"context"
	"encoding/json"
	"time"

	"citypulse/internal/modkit/repokit"
	perr "citypulse/internal/platform/errors"
	"citypulse/internal/platform/store"
	pstrings "citypulse/internal/platform/strings"
	"citypulse/internal/services/catalog/domain"
)

// NewPG returns a binder for the Postgres catalog repository
func NewPG() repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(q repokit.Queryer) domain.StorageRepo {
		return &pgStore{q: q}
	})
}

type pgStore struct{ q repokit.Queryer }

func (s *pgStore) CreateSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id           text PRIMARY KEY,
			title        text NOT NULL,
			descr        text,
			start_at     timestamptz,
			end_at       timestamptz,
			time_text    text,
			venue        text,
			area         text,
			address      text,
			image        text,
			url          text NOT NULL,
			price_min    double precision,
			categories   jsonb NOT NULL DEFAULT '[]'::jsonb,
			tags         jsonb NOT NULL DEFAULT '[]'::jsonb,
			flags        jsonb NOT NULL DEFAULT '{}'::jsonb,
			source       text NOT NULL,
			fetched_at   timestamptz NOT NULL,
			snapshot_ref text,
			city         text NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_city_day
			ON records (city, ((start_at AT TIME ZONE 'UTC')::date))`,
		`CREATE INDEX IF NOT EXISTS idx_records_source ON records (source)`,
		`CREATE INDEX IF NOT EXISTS idx_records_fetched_at ON records (fetched_at)`,
		`CREATE TABLE IF NOT EXISTS ingest_log (
			id     bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			ts     timestamptz NOT NULL,
			source text NOT NULL,
			count  integer NOT NULL,
			ok     boolean NOT NULL,
			note   text
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			record_id  text PRIMARY KEY,
			path       text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgres(err, "catalog: create schema")
		}
	}
	return nil
}

const upsertSQL = `
INSERT INTO records (
	id, title, descr, start_at, end_at, time_text, venue, area, address, image,
	url, price_min, categories, tags, flags, source, fetched_at, snapshot_ref, city
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13, $14, $15, $16, $17, $18, $19
)
ON CONFLICT (id) DO UPDATE SET
	title        = EXCLUDED.title,
	descr        = EXCLUDED.descr,
	start_at     = EXCLUDED.start_at,
	end_at       = EXCLUDED.end_at,
	time_text    = EXCLUDED.time_text,
	venue        = EXCLUDED.venue,
	area         = EXCLUDED.area,
	address      = EXCLUDED.address,
	image        = EXCLUDED.image,
	url          = EXCLUDED.url,
	price_min    = EXCLUDED.price_min,
	categories   = EXCLUDED.categories,
	tags         = EXCLUDED.tags,
	flags        = EXCLUDED.flags,
	source       = EXCLUDED.source,
	fetched_at   = GREATEST(records.fetched_at, EXCLUDED.fetched_at),
	snapshot_ref = EXCLUDED.snapshot_ref,
	city         = EXCLUDED.city`

func (s *pgStore) UpsertRecords(ctx context.Context, city string, recs []domain.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	for _, r := range recs {
		cats, err := json.Marshal(orEmptySlice(r.Categories))
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeJSON, "catalog: marshal categories")
		}
		tags, err := json.Marshal(orEmptySlice(r.Tags))
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeJSON, "catalog: marshal tags")
		}
		flags, err := json.Marshal(orEmptyMap(r.Flags))
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeJSON, "catalog: marshal flags")
		}
		_, err = s.q.Exec(ctx, upsertSQL,
			r.ID, r.Title, pstrings.Ptr(r.Desc), r.StartAt, r.EndAt, pstrings.Ptr(r.TimeText),
			pstrings.Ptr(r.Venue), pstrings.Ptr(r.Area), pstrings.Ptr(r.Address), pstrings.Ptr(r.Image),
			r.URL, r.PriceMin, cats, tags, flags, r.Source, r.FetchedAt.UTC(),
			pstrings.Ptr(r.SnapshotRef), city,
		)
		if err != nil {
			return 0, perr.FromPostgres(err, "catalog: upsert record")
		}
	}
	return len(recs), nil
}

func (s *pgStore) SelectByDay(ctx context.Context, city, dayISO string) ([]domain.DayRow, error) {
	rows, err := store.Many(ctx, s.q, func(r store.Row) (domain.DayRow, error) {
		var (
			row   domain.DayRow
			cats  []byte
			flags []byte
		)
		if err := r.Scan(&row.ID, &cats, &flags); err != nil {
			return row, err
		}
		if len(cats) > 0 {
			if err := json.Unmarshal(cats, &row.Categories); err != nil {
				return row, perr.Wrap(err, perr.ErrorCodeJSON, "catalog: decode categories")
			}
		}
		if len(flags) > 0 {
			if err := json.Unmarshal(flags, &row.Flags); err != nil {
				return row, perr.Wrap(err, perr.ErrorCodeJSON, "catalog: decode flags")
			}
		}
		return row, nil
	}, `
		SELECT id, categories, flags
		  FROM records
		 WHERE city = $1
		   AND start_at IS NOT NULL
		   AND (start_at AT TIME ZONE 'UTC')::date = $2::date
		 ORDER BY start_at, id`,
		city, dayISO,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "catalog: select by day")
	}
	return rows, nil
}

func (s *pgStore) InsertIngestRun(ctx context.Context, run domain.IngestRun) error {
	ts := run.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO ingest_log (ts, source, count, ok, note)
		VALUES ($1, $2, $3, $4, $5)`,
		ts.UTC(), run.Source, run.Count, run.OK, pstrings.Ptr(run.Note),
	)
	if err != nil {
		return perr.FromPostgres(err, "catalog: insert ingest run")
	}
	return nil
}

func (s *pgStore) UpsertSnapshotRef(ctx context.Context, recordID, relPath string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO snapshots (record_id, path, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (record_id) DO UPDATE SET path = EXCLUDED.path, created_at = now()`,
		recordID, relPath,
	)
	if err != nil {
		return perr.FromPostgres(err, "catalog: upsert snapshot ref")
	}
	_, err = s.q.Exec(ctx, `UPDATE records SET snapshot_ref = $2 WHERE id = $1`, recordID, relPath)
	if err != nil {
		return perr.FromPostgres(err, "catalog: stamp snapshot ref")
	}
	return nil
}

func orEmptySlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func orEmptyMap(in map[string]bool) map[string]bool {
	if in == nil {
		return map[string]bool{}
	}
	return in
}
