package service

import (
	"context"
	"testing"
	"time"

	"citypulse/internal/modkit/repokit"
	perr "citypulse/internal/platform/errors"
	"citypulse/internal/platform/logger"
	"citypulse/internal/platform/store"
	"citypulse/internal/services/catalog/domain"
)

// fakeTx satisfies repokit.TxRunner; Tx simply invokes fn with itself
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeTx{})
}

// fakeRepo records calls and serves canned day rows
type fakeRepo struct {
	upsertCity string
	upserted   []domain.Record
	upsertErr  error

	dayRows []domain.DayRow
	dayErr  error

	runs  []domain.IngestRun
	snaps map[string]string
}

func (f *fakeRepo) CreateSchema(context.Context) error { return nil }

func (f *fakeRepo) UpsertRecords(_ context.Context, city string, recs []domain.Record) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upsertCity = city
	f.upserted = append(f.upserted, recs...)
	return len(recs), nil
}

func (f *fakeRepo) SelectByDay(context.Context, string, string) ([]domain.DayRow, error) {
	return f.dayRows, f.dayErr
}

func (f *fakeRepo) InsertIngestRun(_ context.Context, run domain.IngestRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRepo) UpsertSnapshotRef(_ context.Context, id, path string) error {
	if f.snaps == nil {
		f.snaps = map[string]string{}
	}
	f.snaps[id] = path
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	binder := repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return repo })
	return New(fakeTx{}, binder, logger.Logger{})
}

func validRecord(id string) domain.Record {
	start := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	return domain.Record{
		ID:      id,
		Title:   "Night Market",
		URL:     "https://example.com/" + id,
		StartAt: &start,
		Source:  "feed",
	}
}

func TestUpsert_NormalizesBeforeWrite(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo)

	rec := validRecord("r1")
	rec.Title = "  Fish &amp; Chips  Night "
	rec.Categories = []string{"Food", "FOOD", "Live  Music"}
	rec.Flags = map[string]bool{"Rooftop": true}
	rec.URL = "//example.com/r1"

	n, err := svc.Upsert(context.Background(), "Bangkok", []domain.Record{rec})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n != 1 {
		t.Fatalf("Upsert count = %d", n)
	}
	if repo.upsertCity != "bangkok" {
		t.Fatalf("city not lowercased: %q", repo.upsertCity)
	}

	got := repo.upserted[0]
	if got.Title != "Fish & Chips Night" {
		t.Fatalf("title not normalized: %q", got.Title)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "food" || got.Categories[1] != "live music" {
		t.Fatalf("categories not canonical: %v", got.Categories)
	}
	if !got.Flags["rooftop"] {
		t.Fatalf("flag key not normalized: %v", got.Flags)
	}
	if got.URL != "https://example.com/r1" {
		t.Fatalf("protocol-relative URL not upgraded: %q", got.URL)
	}
	if got.FetchedAt.IsZero() {
		t.Fatalf("fetched_at not defaulted")
	}
}

func TestUpsert_RejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo)

	rec := validRecord("r1")
	rec.URL = ""

	_, err := svc.Upsert(context.Background(), "bangkok", []domain.Record{rec})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Fatalf("invalid batch must not reach storage")
	}
}

func TestUpsert_EmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo)

	n, err := svc.Upsert(context.Background(), "bangkok", nil)
	if err != nil || n != 0 {
		t.Fatalf("empty batch: n=%d err=%v", n, err)
	}
}

func TestQueryIDs_FiltersCategoryAndFlagInProcess(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{dayRows: []domain.DayRow{
		{ID: "a", Categories: []string{"food"}, Flags: map[string]bool{"rooftop": true}},
		{ID: "b", Categories: []string{"music"}, Flags: map[string]bool{"rooftop": false}},
		{ID: "c", Categories: []string{"food", "music"}},
	}}
	svc := newTestService(repo)
	ctx := context.Background()

	all, err := svc.QueryIDs(ctx, domain.Query{City: "bangkok", Day: "2026-09-01"})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered query should return every row, got %v", all)
	}

	food, _ := svc.QueryIDs(ctx, domain.Query{City: "bangkok", Day: "2026-09-01", Category: "Food"})
	if len(food) != 2 || food[0] != "a" || food[1] != "c" {
		t.Fatalf("category filter mismatch: %v", food)
	}

	roof, _ := svc.QueryIDs(ctx, domain.Query{City: "bangkok", Day: "2026-09-01", Flag: "Rooftop"})
	if len(roof) != 1 || roof[0] != "a" {
		t.Fatalf("flag filter mismatch: %v", roof)
	}
}

func TestQueryIDs_RejectsBadDay(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeRepo{})
	_, err := svc.QueryIDs(context.Background(), domain.Query{City: "bangkok", Day: "01-09-2026"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestRecordIngestRunAndSnapshot(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	if err := svc.RecordIngestRun(ctx, domain.IngestRun{Source: "all", Count: 7, OK: true}); err != nil {
		t.Fatalf("RecordIngestRun: %v", err)
	}
	if len(repo.runs) != 1 || repo.runs[0].Count != 7 {
		t.Fatalf("run not recorded: %+v", repo.runs)
	}

	if err := svc.RecordSnapshot(ctx, "r1", "2026/09/01/r1.html.gz"); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}
	if repo.snaps["r1"] != "2026/09/01/r1.html.gz" {
		t.Fatalf("snapshot ref not recorded: %v", repo.snaps)
	}
}
