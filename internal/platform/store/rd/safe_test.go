package rd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// flakyKV fails a configurable number of calls before recovering
type flakyKV struct {
	failures int
	calls    int
	store    map[string][]byte
}

func newFlakyKV(failures int) *flakyKV {
	return &flakyKV{failures: failures, store: make(map[string][]byte)}
}

func (f *flakyKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, false, errors.New("connection refused")
	}
	v, ok := f.store[key]
	return v, ok, nil
}

func (f *flakyKV) SetEx(_ context.Context, key string, val []byte, _ time.Duration) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	f.store[key] = val
	return nil
}

func (f *flakyKV) Ping(context.Context) error { return nil }
func (f *flakyKV) Endpoint() string           { return "flaky:6379" }
func (f *flakyKV) Close() error               { return nil }

func newTestSafe(kv KV, cfg SafeConfig) (*SafeKV, *Registry) {
	reg := NewRegistry(2, time.Minute)
	return NewSafe(kv, reg, cfg, zerolog.Nop()), reg
}

func TestSafeKV_GetSetRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestSafe(OpenMemory(), SafeConfig{})
	ctx := context.Background()

	if ok := s.SetEx(ctx, "k", []byte("v"), time.Minute); !ok {
		t.Fatalf("SetEx reported failure on healthy backend")
	}
	got, ok := s.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}
}

func TestSafeKV_MissIsNotFailure(t *testing.T) {
	t.Parallel()

	s, reg := newTestSafe(OpenMemory(), SafeConfig{})
	if _, ok := s.Get(context.Background(), "absent"); ok {
		t.Fatalf("expected clean miss")
	}
	// a miss must not feed the breaker
	for _, st := range reg.Snapshots() {
		if st.Failures != 0 {
			t.Fatalf("miss recorded as failure: %+v", st)
		}
	}
}

func TestSafeKV_BypassSkipsBackend(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV(0)
	s, _ := newTestSafe(kv, SafeConfig{Bypass: true})

	if !s.Bypassed() {
		t.Fatalf("expected bypassed")
	}
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Fatalf("bypassed Get must degrade to miss")
	}
	if s.SetEx(context.Background(), "k", []byte("v"), time.Minute) {
		t.Fatalf("bypassed SetEx must report false")
	}
	if kv.calls != 0 {
		t.Fatalf("backend touched while bypassed: %d calls", kv.calls)
	}
}

func TestSafeKV_NilKVBehavesBypassed(t *testing.T) {
	t.Parallel()

	s, _ := newTestSafe(nil, SafeConfig{})
	if !s.Bypassed() {
		t.Fatalf("nil backend should read as bypassed")
	}
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Fatalf("nil backend Get must degrade to miss")
	}
}

func TestSafeKV_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var s *SafeKV
	if !s.Bypassed() {
		t.Fatalf("nil SafeKV should be bypassed")
	}
	st := s.Status()
	if !st.Bypassed {
		t.Fatalf("nil SafeKV status should report bypassed")
	}
}

func TestSafeKV_FailuresTripBreakerThenSkip(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV(100) // always failing
	s, reg := newTestSafe(kv, SafeConfig{})
	ctx := context.Background()

	// threshold is 2: two real calls trip the breaker
	s.Get(ctx, "k")
	s.Get(ctx, "k")
	if got := kv.calls; got != 2 {
		t.Fatalf("expected 2 backend calls, got %d", got)
	}
	if st := reg.For(kv.Endpoint()).Snapshot(); st.State != StateOpen {
		t.Fatalf("breaker should be open, got %s", st.State)
	}

	// further calls are short-circuited without touching the backend
	s.Get(ctx, "k")
	s.SetEx(ctx, "k", []byte("v"), time.Minute)
	if got := kv.calls; got != 2 {
		t.Fatalf("open breaker leaked calls to the backend: %d", got)
	}
}

func TestSafeKV_RecoversAfterWindow(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV(2) // fails twice then recovers
	reg := NewRegistry(2, time.Minute)
	s := NewSafe(kv, reg, SafeConfig{}, zerolog.Nop())
	ctx := context.Background()

	s.Get(ctx, "k")
	s.Get(ctx, "k")

	b := reg.For(kv.Endpoint())
	if b.Snapshot().State != StateOpen {
		t.Fatalf("expected open breaker")
	}

	// simulate window expiry through the injected clock
	clk := &fakeClock{t: b.lastFailure.Add(2 * time.Minute)}
	b.now = clk.now

	if ok := s.SetEx(ctx, "k", []byte("v"), time.Minute); !ok {
		t.Fatalf("probe write should succeed once the backend recovered")
	}
	if b.Snapshot().State != StateClosed {
		t.Fatalf("successful probe should close the breaker")
	}
	if got, ok := s.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get after recovery = (%q, %v)", got, ok)
	}
}

func TestSafeKV_OpTimeoutBounds(t *testing.T) {
	t.Parallel()

	slow := &slowKV{delay: 200 * time.Millisecond}
	s, _ := newTestSafe(slow, SafeConfig{OpTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, ok := s.Get(context.Background(), "k")
	elapsed := time.Since(start)

	if ok {
		t.Fatalf("timed-out Get must degrade to miss")
	}
	if elapsed > 150*time.Millisecond {
		t.Fatalf("call was not bounded by OpTimeout, took %s", elapsed)
	}
}

// slowKV blocks until its context is cancelled
type slowKV struct{ delay time.Duration }

func (k *slowKV) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	select {
	case <-time.After(k.delay):
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (k *slowKV) SetEx(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	select {
	case <-time.After(k.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *slowKV) Ping(context.Context) error { return nil }
func (k *slowKV) Endpoint() string           { return "slow:6379" }
func (k *slowKV) Close() error               { return nil }

func TestSafeKV_StatusIncludesBreakers(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV(100)
	s, _ := newTestSafe(kv, SafeConfig{})
	s.Get(context.Background(), "k")
	s.Get(context.Background(), "k")

	st := s.Status()
	if st.Bypassed {
		t.Fatalf("configured backend should not read as bypassed")
	}
	if st.Endpoint != "flaky:6379" {
		t.Fatalf("endpoint mismatch: %q", st.Endpoint)
	}
	if len(st.Breakers) != 1 || st.Breakers[0].State != StateOpen {
		t.Fatalf("breaker diagnostics mismatch: %+v", st.Breakers)
	}
}
