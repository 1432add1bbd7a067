package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	perr "citypulse/internal/platform/errors"
	"citypulse/internal/services/api/query/domain"
	canddom "citypulse/internal/services/candidates/domain"
	catdom "citypulse/internal/services/catalog/domain"
)

type fakeCache struct {
	entries map[string][]string
	status  canddom.Status

	reads  []string
	writes map[string][]string
}

func (f *fakeCache) Read(_ context.Context, key string, _ bool) ([]string, canddom.Status) {
	f.reads = append(f.reads, key)
	if f.status == canddom.StatusHit || f.status == canddom.StatusStale {
		return f.entries[key], f.status
	}
	return nil, f.status
}

func (f *fakeCache) Write(_ context.Context, key string, ids []string) bool {
	if f.writes == nil {
		f.writes = map[string][]string{}
	}
	f.writes[key] = ids
	return true
}

type fakeReader struct {
	ids   []string
	err   error
	calls int
	last  catdom.Query
}

func (f *fakeReader) QueryIDs(_ context.Context, q catdom.Query) ([]string, error) {
	f.calls++
	f.last = q
	return f.ids, f.err
}

func newTestService(cache *fakeCache, reader *fakeReader) *Service {
	svc := New(cache, reader, nil, zerolog.Nop())
	svc.spawn = func(fn func()) { fn() } // run refreshes inline for determinism
	return svc
}

func TestCandidates_CacheHitSkipsDatabase(t *testing.T) {
	t.Parallel()

	key := canddom.KeyForCategory("bangkok", "2026-09-01", "food")
	cache := &fakeCache{
		status:  canddom.StatusHit,
		entries: map[string][]string{key: {"a", "b"}},
	}
	reader := &fakeReader{}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "2026-09-01", Category: "food",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.Source != domain.SourceCache || res.Cache != "HIT" {
		t.Fatalf("source=%q cache=%q", res.Source, res.Cache)
	}
	if len(res.IDs) != 2 || res.IDs[0] != "a" {
		t.Fatalf("ids = %v", res.IDs)
	}
	if reader.calls != 0 {
		t.Fatalf("database must not be queried on a hit")
	}
}

func TestCandidates_StaleServedThenRevalidated(t *testing.T) {
	t.Parallel()

	key := canddom.BaseKey("bangkok", "2026-09-01")
	cache := &fakeCache{
		status:  canddom.StatusStale,
		entries: map[string][]string{key: {"x"}},
	}
	reader := &fakeReader{ids: []string{"x", "y"}}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.Source != domain.SourceCacheStale {
		t.Fatalf("source = %q", res.Source)
	}
	// the response carries the stale ids; the refresh happens behind it
	if len(res.IDs) != 1 || res.IDs[0] != "x" {
		t.Fatalf("ids = %v", res.IDs)
	}
	if reader.calls != 1 {
		t.Fatalf("stale read must trigger one revalidation, got %d", reader.calls)
	}
	if got := cache.writes[key]; len(got) != 2 {
		t.Fatalf("revalidation must rewrite %q, writes = %v", key, cache.writes)
	}
}

func TestCandidates_MissFallsBackAndRepopulates(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{status: canddom.StatusMiss}
	reader := &fakeReader{ids: []string{"r1", "r2"}}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "Bangkok", Day: "2026-09-01", Flag: "rooftop",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.Source != domain.SourceDB {
		t.Fatalf("source = %q", res.Source)
	}
	if reader.calls != 1 || reader.last.Flag != "rooftop" {
		t.Fatalf("reader calls=%d last=%+v", reader.calls, reader.last)
	}

	key := canddom.KeyForFlag("Bangkok", "2026-09-01", "rooftop")
	if got := cache.writes[key]; len(got) != 2 {
		t.Fatalf("miss must repopulate %q, writes = %v", key, cache.writes)
	}
}

func TestCandidates_BypassSkipsRepopulation(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{status: canddom.StatusBypass}
	reader := &fakeReader{ids: []string{"r1"}}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.Source != domain.SourceDB || res.Cache != "BYPASS" {
		t.Fatalf("source=%q cache=%q", res.Source, res.Cache)
	}
	if len(cache.writes) != 0 {
		t.Fatalf("bypassed reads must not trigger writes")
	}
}

func TestCandidates_BothDimensionsGoStraightToDatabase(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{status: canddom.StatusHit}
	reader := &fakeReader{ids: []string{"r1"}}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "2026-09-01", Category: "food", Flag: "rooftop",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.Source != domain.SourceDB || res.Cache != "" {
		t.Fatalf("source=%q cache=%q", res.Source, res.Cache)
	}
	if len(cache.reads) != 0 {
		t.Fatalf("no cache key exists for a category+flag combination")
	}
}

func TestCandidates_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{status: canddom.StatusMiss}
	reader := &fakeReader{}
	svc := newTestService(cache, reader)

	_, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "not-a-day",
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if len(cache.reads) != 0 || reader.calls != 0 {
		t.Fatalf("invalid input must touch nothing")
	}
}

func TestCandidates_EmptyDBResultIsNonNil(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{status: canddom.StatusMiss}
	reader := &fakeReader{ids: nil}
	svc := newTestService(cache, reader)

	res, err := svc.Candidates(context.Background(), domain.CandidatesInput{
		City: "bangkok", Day: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if res.IDs == nil || len(res.IDs) != 0 {
		t.Fatalf("ids = %#v, want empty non-nil slice", res.IDs)
	}
}

func TestCacheStatus_NilClientReportsBypass(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeCache{status: canddom.StatusMiss}, &fakeReader{})
	if st := svc.CacheStatus(); !st.Bypassed {
		t.Fatalf("nil cache client must report bypassed, got %+v", st)
	}
}
