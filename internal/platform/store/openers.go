package store

import (
	"context"
	"fmt"
	"time"

	"citypulse/internal/platform/store/pg"
	"citypulse/internal/platform/store/rd"
)

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	// Connection guardrails: ping with retry/backoff using the *pool* directly
	const (
		maxAttempts    = 20
		pingTimeout    = 3 * time.Second
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			a := newPGAdapter(p) // publish adapter only after the pool is healthy
			s.PG = a
			return a, nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		time.Sleep(backoff)
		if backoff < backoffCeiling {
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

// openRD builds the safe cache seam. It never fails Open: a missing or
// unparseable backend URL leaves the seam in bypass so callers degrade
// instead of crashing (the cache is not the source of truth)
func openRD(cfg Config, s *Store) *rd.SafeKV {
	reg := rd.NewRegistry(cfg.RD.BreakerThreshold, cfg.RD.BreakerOpenWindow)

	var kv rd.KV
	switch {
	case cfg.RD.InMemory:
		kv = rd.OpenMemory()
	case cfg.RD.URL != "":
		opened, err := rd.OpenRedis(rd.Config{
			URL:            cfg.RD.URL,
			ConnectTimeout: cfg.RD.ConnectTimeout,
			OpTimeout:      cfg.RD.OpTimeout,
		})
		if err != nil {
			s.Log.Error().Err(err).Msg("cache client unavailable; running bypassed")
		} else {
			kv = opened
		}
	}

	return rd.NewSafe(kv, reg, rd.SafeConfig{
		Bypass:    cfg.RD.Bypass,
		OpTimeout: cfg.RD.OpTimeout,
	}, s.Log)
}
