// Package service implements the catalog write and read operations
package service

import (
	"context"
	"strings"
	"time"

	"citypulse/internal/modkit/repokit"
	"citypulse/internal/platform/logger"
	"citypulse/internal/services/catalog/domain"
)

// Service owns catalog persistence. Writes go through validation and
// normalization; reads filter by day in SQL and by category/flag in process
// so storage needs no JSON query support
type Service struct {
	tx     repokit.TxRunner
	binder repokit.Binder[domain.StorageRepo]
	log    logger.Logger
}

// New constructs the catalog service
func New(tx repokit.TxRunner, binder repokit.Binder[domain.StorageRepo], log logger.Logger) *Service {
	if tx == nil {
		panic("catalog: nil TxRunner")
	}
	return &Service{tx: tx, binder: binder, log: log}
}

// EnsureSchema creates tables and indexes when missing
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.binder.Bind(s.tx).CreateSchema(ctx)
}

// Upsert validates and normalizes recs, then writes them in one transaction.
// Any error aborts the batch; the database is the source of truth and
// failures surface to the caller
func (s *Service) Upsert(ctx context.Context, city string, recs []domain.Record) (int, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	clean := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		r = normalizeRecord(r)
		if err := domain.ValidateRecord(r); err != nil {
			return 0, err
		}
		clean = append(clean, r)
	}
	if len(clean) == 0 {
		return 0, nil
	}

	var written int
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		n, err := s.binder.Bind(q).UpsertRecords(ctx, city, clean)
		if err != nil {
			return err
		}
		written = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// QueryIDs returns ids for (city, day) narrowed by category or flag.
// Day filtering happens in SQL; category/flag membership in process
func (s *Service) QueryIDs(ctx context.Context, q domain.Query) ([]string, error) {
	q.City = strings.ToLower(strings.TrimSpace(q.City))
	if err := domain.ValidateQuery(q); err != nil {
		return nil, err
	}

	rows, err := s.binder.Bind(s.tx).SelectByDay(ctx, q.City, q.Day)
	if err != nil {
		return nil, err
	}

	category := domain.NormTag(q.Category)
	flag := domain.NormTag(q.Flag)

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if category != "" && !containsFold(row.Categories, category) {
			continue
		}
		if flag != "" && !row.Flags[flag] {
			continue
		}
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// RecordIngestRun appends one audit row
func (s *Service) RecordIngestRun(ctx context.Context, run domain.IngestRun) error {
	return s.binder.Bind(s.tx).InsertIngestRun(ctx, run)
}

// RecordSnapshot registers relPath for recordID
func (s *Service) RecordSnapshot(ctx context.Context, recordID, relPath string) error {
	return s.binder.Bind(s.tx).UpsertSnapshotRef(ctx, recordID, relPath)
}

// normalizeRecord canonicalizes free text, tags, and flags before validation
func normalizeRecord(r domain.Record) domain.Record {
	r.ID = domain.NormalizeText(r.ID)
	r.Title = domain.NormalizeText(r.Title)
	r.Desc = domain.SafeTruncate(domain.NormalizeText(r.Desc), 4000)
	r.TimeText = domain.NormalizeText(r.TimeText)
	r.Venue = domain.NormalizeText(r.Venue)
	r.Area = domain.NormalizeText(r.Area)
	r.Address = domain.NormalizeText(r.Address)
	r.Source = domain.NormalizeText(r.Source)
	r.URL = normalizeURL(r.URL)
	r.Image = normalizeURL(r.Image)

	r.Categories = domain.NormTags(r.Categories)
	r.Tags = domain.NormTags(r.Tags)
	if len(r.Flags) > 0 {
		flags := make(map[string]bool, len(r.Flags))
		for k, val := range r.Flags {
			if nk := domain.NormTag(k); nk != "" {
				flags[nk] = val
			}
		}
		r.Flags = flags
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = time.Now().UTC()
	}
	return r
}

// normalizeURL upgrades protocol-relative and schemeless URLs to https
func normalizeURL(u string) string {
	u = domain.NormalizeText(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.Contains(u, "://"), strings.HasPrefix(u, "data:"),
		strings.HasPrefix(u, "mailto:"), strings.HasPrefix(u, "tel:"):
		return u
	default:
		return "https://" + strings.TrimLeft(u, "/")
	}
}

func containsFold(in []string, needle string) bool {
	for _, s := range in {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
