package rd

import (
	"context"
	"time"

	"citypulse/internal/platform/logger"
)

// SafeKV is the only path by which higher layers touch the cache backend.
// Every call is gated by the endpoint's circuit breaker and bounded by
// OpTimeout; failures degrade to the caller's fallback value and are never
// raised. A nil or bypassed SafeKV degrades every call the same way
type SafeKV struct {
	kv        KV
	reg       *Registry
	opTimeout time.Duration
	bypass    bool
	log       logger.Logger
}

// SafeConfig configures the SafeKV wrapper
type SafeConfig struct {
	// Bypass short-circuits every call without touching the breaker.
	// An unset backend (nil KV) behaves the same way
	Bypass    bool
	OpTimeout time.Duration
}

// NewSafe wraps kv with breaker gating and timeouts. reg must be shared by
// all SafeKV instances talking to the same process so "one breaker per
// endpoint" holds
func NewSafe(kv KV, reg *Registry, cfg SafeConfig, log logger.Logger) *SafeKV {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 500 * time.Millisecond
	}
	return &SafeKV{
		kv:        kv,
		reg:       reg,
		opTimeout: cfg.OpTimeout,
		bypass:    cfg.Bypass,
		log:       log,
	}
}

// Bypassed reports whether calls are currently short-circuited before the breaker
func (s *SafeKV) Bypassed() bool { return s == nil || s.bypass || s.kv == nil }

// Get fetches key, degrading to (nil, false) on bypass, open breaker, timeout,
// or any backend error
func (s *SafeKV) Get(ctx context.Context, key string) ([]byte, bool) {
	type hit struct {
		val []byte
		ok  bool
	}
	out := Safe(ctx, s, "get", func(ctx context.Context) (hit, error) {
		v, ok, err := s.kv.Get(ctx, key)
		return hit{val: v, ok: ok}, err
	}, hit{})
	return out.val, out.ok
}

// SetEx writes key with a TTL, reporting false when the write was skipped or failed
func (s *SafeKV) SetEx(ctx context.Context, key string, val []byte, ttl time.Duration) bool {
	return Safe(ctx, s, "setex", func(ctx context.Context) (bool, error) {
		return true, s.kv.SetEx(ctx, key, val, ttl)
	}, false)
}

// Status reports bypass state and breaker diagnostics for the status endpoint
func (s *SafeKV) Status() SafeStatus {
	st := SafeStatus{Bypassed: s.Bypassed()}
	if s == nil {
		return st
	}
	if s.kv != nil {
		st.Endpoint = s.kv.Endpoint()
	}
	if s.reg != nil {
		st.Breakers = s.reg.Snapshots()
	}
	return st
}

// SafeStatus is the diagnostics view of the cache client
type SafeStatus struct {
	Bypassed bool            `json:"bypassed"`
	Endpoint string          `json:"endpoint,omitempty"`
	Breakers []BreakerStatus `json:"breakers,omitempty"`
}

// Safe runs op under the endpoint breaker and the configured op timeout.
// On bypass, open circuit, or any error it returns onFail; the breaker is fed
// with the outcome of every real call. Errors never escape
func Safe[T any](ctx context.Context, s *SafeKV, opName string, op func(context.Context) (T, error), onFail T) T {
	if s.Bypassed() {
		return onFail
	}
	b := s.reg.For(s.kv.Endpoint())
	if b.ShouldBypass() {
		return onFail
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	val, err := op(opCtx)
	if err != nil {
		b.RecordFailure()
		s.log.Warn().Str("op", opName).Err(err).Msg("cache call failed")
		return onFail
	}
	b.RecordSuccess()
	return val
}
