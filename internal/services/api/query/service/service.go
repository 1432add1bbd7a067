// Package service implements read-through candidate lookups
package service

import (
	"context"
	"time"

	"citypulse/internal/platform/logger"
	"citypulse/internal/platform/store/rd"
	"citypulse/internal/services/api/query/domain"
	canddom "citypulse/internal/services/candidates/domain"
	catdom "citypulse/internal/services/catalog/domain"
)

// Service answers candidate queries cache-first with a database fallback.
// Stale entries are served rather than refused; a miss repopulates the key
// from the database so the next reader hits
type Service struct {
	cache  canddom.CachePort
	reader catdom.ReaderPort
	kv     *rd.SafeKV
	log    logger.Logger

	spawn func(func())
}

// New constructs the query service. kv may be nil; CacheStatus then reports bypass
func New(cache canddom.CachePort, reader catdom.ReaderPort, kv *rd.SafeKV, log logger.Logger) *Service {
	if cache == nil {
		panic("query: nil candidate cache")
	}
	if reader == nil {
		panic("query: nil catalog reader")
	}
	return &Service{
		cache:  cache,
		reader: reader,
		kv:     kv,
		log:    log,
		spawn:  func(fn func()) { go fn() },
	}
}

// Candidates resolves one lookup. The cache key carries at most one of
// category or flag, so a request with both skips the cache entirely
func (s *Service) Candidates(ctx context.Context, in domain.CandidatesInput) (domain.CandidatesResult, error) {
	q := catdom.Query{City: in.City, Day: in.Day, Category: in.Category, Flag: in.Flag}
	if err := catdom.ValidateQuery(q); err != nil {
		return domain.CandidatesResult{}, err
	}

	res := domain.CandidatesResult{
		City:     in.City,
		Day:      in.Day,
		Category: in.Category,
		Flag:     in.Flag,
	}

	key, cacheable := keyFor(in)
	if cacheable {
		ids, st := s.cache.Read(ctx, key, true)
		res.Cache = string(st)
		switch st {
		case canddom.StatusHit:
			res.IDs = ids
			res.Source = domain.SourceCache
			return res, nil
		case canddom.StatusStale:
			// serve stale within latency budget, refresh behind the response
			res.IDs = ids
			res.Source = domain.SourceCacheStale
			s.revalidate(ctx, key, q)
			return res, nil
		}
	}

	ids, err := s.reader.QueryIDs(ctx, q)
	if err != nil {
		return domain.CandidatesResult{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	res.IDs = ids
	res.Source = domain.SourceDB

	// repopulate only after a genuine miss; on bypass the backend is down
	// or disabled and the write would be dropped anyway
	if cacheable && res.Cache == string(canddom.StatusMiss) {
		s.cache.Write(ctx, key, ids)
	}
	return res, nil
}

// revalidate refreshes a stale key from the database off the request path.
// Failures only cost freshness, so they are logged and dropped
func (s *Service) revalidate(ctx context.Context, key string, q catdom.Query) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	s.spawn(func() {
		defer cancel()
		ids, err := s.reader.QueryIDs(rctx, q)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("stale revalidation failed")
			return
		}
		s.cache.Write(rctx, key, ids)
	})
}

// CacheStatus reports bypass state and breaker diagnostics
func (s *Service) CacheStatus() rd.SafeStatus {
	return s.kv.Status()
}

// keyFor derives the single cache key a lookup maps to.
// Both dimensions set means no key exists for the combination
func keyFor(in domain.CandidatesInput) (string, bool) {
	switch {
	case in.Category != "" && in.Flag != "":
		return "", false
	case in.Category != "":
		return canddom.KeyForCategory(in.City, in.Day, in.Category), true
	case in.Flag != "":
		return canddom.KeyForFlag(in.City, in.Day, in.Flag), true
	default:
		return canddom.BaseKey(in.City, in.Day), true
	}
}
