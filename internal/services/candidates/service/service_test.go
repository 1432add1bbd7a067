package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"citypulse/internal/platform/store/rd"
	"citypulse/internal/services/candidates/domain"
)

func newTestCache(t *testing.T) (*Cache, *rd.SafeKV, *time.Time) {
	t.Helper()
	reg := rd.NewRegistry(2, time.Minute)
	kv := rd.NewSafe(rd.OpenMemory(), reg, rd.SafeConfig{}, zerolog.Nop())

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c := New(kv, Config{TTL: 20 * time.Minute, StaleMargin: 5 * time.Minute}, zerolog.Nop())
	c.now = func() time.Time { return now }
	return c, kv, &now
}

func TestReadWrite_FreshHit(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t)
	ctx := context.Background()
	key := domain.KeyForCategory("bangkok", "2026-09-01", "food")

	if !c.Write(ctx, key, []string{"a", "b"}) {
		t.Fatalf("write failed on healthy backend")
	}
	ids, st := c.Read(ctx, key, false)
	if st != domain.StatusHit {
		t.Fatalf("status = %s, want HIT", st)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestRead_MissWhenAbsent(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t)
	ids, st := c.Read(context.Background(), "cand:v1:bangkok:2026-09-01:art", true)
	if st != domain.StatusMiss || ids != nil {
		t.Fatalf("absent key: ids=%v status=%s", ids, st)
	}
}

func TestRead_StaleInsideMargin(t *testing.T) {
	t.Parallel()

	c, _, now := newTestCache(t)
	ctx := context.Background()
	key := domain.KeyForFlag("bangkok", "2026-09-01", "rooftop")

	c.Write(ctx, key, []string{"x"})

	// move past the logical TTL but inside the margin
	*now = now.Add(21 * time.Minute)

	ids, st := c.Read(ctx, key, true)
	if st != domain.StatusStale {
		t.Fatalf("status = %s, want STALE", st)
	}
	if len(ids) != 1 || ids[0] != "x" {
		t.Fatalf("stale read must still serve ids, got %v", ids)
	}

	// without allowStale the same entry reads as a miss
	ids, st = c.Read(ctx, key, false)
	if st != domain.StatusMiss || ids != nil {
		t.Fatalf("allowStale=false: ids=%v status=%s", ids, st)
	}
}

func TestRead_CorruptPayloadIsMiss(t *testing.T) {
	t.Parallel()

	c, kv, _ := newTestCache(t)
	ctx := context.Background()
	key := domain.BaseKey("bangkok", "2026-09-01")

	kv.SetEx(ctx, key, []byte("{not json"), time.Hour)
	ids, st := c.Read(ctx, key, true)
	if st != domain.StatusMiss || ids != nil {
		t.Fatalf("corrupt payload: ids=%v status=%s", ids, st)
	}

	// valid json but no timestamp is equally unusable
	kv.SetEx(ctx, key, []byte(`{"ids":["a"]}`), time.Hour)
	if _, st := c.Read(ctx, key, true); st != domain.StatusMiss {
		t.Fatalf("payload without ts should read as miss, got %s", st)
	}
}

func TestRead_BypassedClient(t *testing.T) {
	t.Parallel()

	reg := rd.NewRegistry(2, time.Minute)
	kv := rd.NewSafe(nil, reg, rd.SafeConfig{}, zerolog.Nop())
	c := New(kv, Config{}, zerolog.Nop())

	ids, st := c.Read(context.Background(), "any", true)
	if st != domain.StatusBypass || ids != nil {
		t.Fatalf("bypassed: ids=%v status=%s", ids, st)
	}
	if c.Write(context.Background(), "any", []string{"a"}) {
		t.Fatalf("bypassed write must report false")
	}
}

func TestWrite_EmptyListRoundTrips(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t)
	ctx := context.Background()
	key := domain.BaseKey("bangkok", "2026-09-02")

	if !c.Write(ctx, key, nil) {
		t.Fatalf("empty write failed")
	}
	ids, st := c.Read(ctx, key, false)
	if st != domain.StatusHit {
		t.Fatalf("status = %s, want HIT", st)
	}
	if ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty non-nil ids, got %#v", ids)
	}
}

func TestWrite_FullReplacement(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t)
	ctx := context.Background()
	key := domain.KeyForCategory("bangkok", "2026-09-01", "music")

	c.Write(ctx, key, []string{"a", "b", "c"})
	c.Write(ctx, key, []string{"z"})

	ids, _ := c.Read(ctx, key, false)
	if len(ids) != 1 || ids[0] != "z" {
		t.Fatalf("write must replace wholesale, got %v", ids)
	}
}
