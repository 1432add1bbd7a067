// Package service implements the periodic ingestion pass
package service

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	perr "citypulse/internal/platform/errors"
	"citypulse/internal/platform/logger"
	ptime "citypulse/internal/platform/time"
	canddom "citypulse/internal/services/candidates/domain"
	catdom "citypulse/internal/services/catalog/domain"
	"citypulse/internal/services/ingest/domain"
	snapdom "citypulse/internal/services/snapshots/domain"
)

// Config holds pass behavior knobs
type Config struct {
	City      string
	DaysAhead int

	// Retries bounds collection attempts; Backoff grows linearly per attempt
	Retries int
	Backoff time.Duration

	// PauseAfterFetch is a courtesy delay between collection and the rest
	// of the pass, honoring source rate limits
	PauseAfterFetch time.Duration

	Interval time.Duration

	SnapshotsEnabled bool
}

// Service runs ingestion passes. Persist always completes before cache
// fan-out begins so readers never see a cached id missing from the database
type Service struct {
	collector domain.CollectorPort
	catalog   catdom.WriterPort
	cache     canddom.CachePort
	archiver  snapdom.ArchiverPort

	cfg Config
	log logger.Logger

	now   func() time.Time
	sleep func(time.Duration)

	inflight atomic.Bool
}

// New constructs the ingest service. archiver may be nil when snapshot
// capture is disabled
func New(
	collector domain.CollectorPort,
	catalog catdom.WriterPort,
	cache canddom.CachePort,
	archiver snapdom.ArchiverPort,
	cfg Config,
	log logger.Logger,
) *Service {
	if collector == nil {
		panic("ingest: nil collector")
	}
	if catalog == nil {
		panic("ingest: nil catalog writer")
	}
	if cache == nil {
		panic("ingest: nil candidate cache")
	}
	if cfg.City == "" {
		cfg.City = "bangkok"
	}
	if cfg.DaysAhead < 0 {
		cfg.DaysAhead = 0
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 400 * time.Millisecond
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	return &Service{
		collector: collector,
		catalog:   catalog,
		cache:     cache,
		archiver:  archiver,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// RunOnce executes one pass end to end
func (s *Service) RunOnce(ctx context.Context) (domain.PassResult, error) {
	res := domain.PassResult{PassID: uuid.NewString()}
	ctx = logger.WithPass(ctx, res.PassID)
	log := s.log.With().Str("pass_id", res.PassID).Logger()

	// COLLECT with bounded linear-backoff retry; exhausted retries abort
	var fetched []catdom.Record
	err := s.withRetry(ctx, func() error {
		recs, err := s.collector.Collect(ctx)
		if err != nil {
			return err
		}
		fetched = recs
		return nil
	})
	if err != nil {
		return res, perr.Wrap(err, perr.ErrorCodeUnavailable, "ingest: collect failed")
	}
	res.Fetched = len(fetched)
	if s.cfg.PauseAfterFetch > 0 {
		s.sleep(s.cfg.PauseAfterFetch)
	}

	// FILTER to [today, today+daysAhead] with per-reason drop accounting
	today := s.now().UTC().Truncate(24 * time.Hour)
	last := today.AddDate(0, 0, s.cfg.DaysAhead)
	kept := make([]catdom.Record, 0, len(fetched))
	for _, rec := range fetched {
		switch {
		case rec.StartAt == nil:
			res.Drops.NoStart++
		case rec.StartAt.UTC().Truncate(24*time.Hour).Before(today),
			rec.StartAt.UTC().Truncate(24*time.Hour).After(last):
			res.Drops.OutOfRange++
		case rec.URL == "":
			res.Drops.NoURL++
		default:
			kept = append(kept, rec)
		}
	}
	res.Kept = len(kept)
	log.Info().
		Int("fetched", res.Fetched).
		Int("kept", res.Kept).
		Interface("drops", res.Drops).
		Msg("collection filtered")

	// PERSIST; the database is the source of truth and failures are fatal
	n, err := s.catalog.Upsert(ctx, s.cfg.City, kept)
	if err != nil {
		return res, err
	}
	res.Upserted = n
	if err := s.catalog.RecordIngestRun(ctx, catdom.IngestRun{
		TS:     s.now().UTC(),
		Source: "all",
		Count:  n,
		OK:     true,
		Note:   "ingest_once",
	}); err != nil {
		return res, err
	}

	// CACHE-FANOUT; cache trouble degrades the pass, never fails it
	keys, mapping := s.fanout(kept, today)
	for _, key := range keys {
		if s.cache.Write(ctx, key, mapping[key]) {
			res.CachedKeys++
		} else {
			res.FailedKeys++
		}
	}

	// SNAPSHOT a sampled top share; each item is individually best-effort
	if s.cfg.SnapshotsEnabled && s.archiver != nil && len(kept) > 0 {
		res.Snapshots = s.captureSnapshots(ctx, log, kept)
	}

	log.Info().
		Int("upserted", res.Upserted).
		Int("cached_keys", res.CachedKeys).
		Int("failed_keys", res.FailedKeys).
		Int("snapshots", res.Snapshots).
		Msg("pass complete")
	return res, nil
}

// RunForever fires RunOnce on the interval until ctx is cancelled.
// A tick arriving while a pass is still running is skipped
func (s *Service) RunForever(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Str("city", s.cfg.City).
		Msg("ingest worker started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.inflight.CompareAndSwap(false, true) {
				s.log.Warn().Msg("previous pass still running; tick skipped")
				continue
			}
			if _, err := s.RunOnce(ctx); err != nil {
				// soft handling: log and wait for the next tick
				s.log.Error().Err(err).Msg("ingestion pass failed")
			}
			s.inflight.Store(false)
		}
	}
}

// withRetry runs fn up to cfg.Retries times with linearly growing backoff
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var (
		err   error
		delay time.Duration
	)
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if delay > 0 {
			s.sleep(delay)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(); err == nil {
			return nil
		}
		delay = s.cfg.Backoff * time.Duration(attempt)
	}
	return err
}

// fanout derives the cache keys for kept records: one key per (day, category)
// and one per (day, true flag), ids in first-appearance order with no dedup.
// Every day in range additionally gets its bare base key so consumers can
// distinguish "checked, nothing found" from "never ingested"
func (s *Service) fanout(kept []catdom.Record, today time.Time) ([]string, map[string][]string) {
	keys := make([]string, 0, len(kept)*2+s.cfg.DaysAhead+1)
	mapping := make(map[string][]string)

	add := func(key, id string) {
		if _, seen := mapping[key]; !seen {
			keys = append(keys, key)
			mapping[key] = nil
		}
		if id != "" {
			mapping[key] = append(mapping[key], id)
		}
	}

	for _, rec := range kept {
		day := rec.Day()
		if day == "" {
			continue
		}
		for _, cat := range rec.Categories {
			add(canddom.KeyForCategory(s.cfg.City, day, cat), rec.ID)
		}
		// sort flag names so key derivation order is stable
		flags := make([]string, 0, len(rec.Flags))
		for flag, set := range rec.Flags {
			if set {
				flags = append(flags, flag)
			}
		}
		sort.Strings(flags)
		for _, flag := range flags {
			add(canddom.KeyForFlag(s.cfg.City, day, flag), rec.ID)
		}
	}

	for delta := 0; delta <= s.cfg.DaysAhead; delta++ {
		day := ptime.DayISO(today.AddDate(0, 0, delta))
		add(canddom.BaseKey(s.cfg.City, day), "")
	}

	return keys, mapping
}

// captureSnapshots archives the sampled top share of kept and registers
// successful paths in the catalog. Returns the number of captures
func (s *Service) captureSnapshots(ctx context.Context, log logger.Logger, kept []catdom.Record) int {
	var captured int
	at := s.now().UTC()
	total := len(kept)
	for rank, rec := range kept {
		if rec.URL == "" || !s.archiver.Eligible(total, rank) {
			continue
		}
		rel := s.archiver.Path(rec.ID, at)
		if err := s.archiver.Capture(ctx, rec.URL, rel); err != nil {
			log.Warn().Err(err).Str("record_id", rec.ID).Msg("snapshot capture failed")
			continue
		}
		if err := s.catalog.RecordSnapshot(ctx, rec.ID, rel); err != nil {
			log.Warn().Err(err).Str("record_id", rec.ID).Msg("snapshot ref write failed")
			continue
		}
		captured++
	}
	return captured
}
