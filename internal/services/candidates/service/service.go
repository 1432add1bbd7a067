// Package service implements the stale-while-revalidate candidate cache
package service

import (
	"context"
	"encoding/json"
	"time"

	"citypulse/internal/platform/logger"
	"citypulse/internal/platform/store/rd"
	"citypulse/internal/services/candidates/domain"
)

// Config holds the SWR freshness knobs
type Config struct {
	// TTL is the logical freshness window
	TTL time.Duration
	// StaleMargin extends the physical TTL past the logical one; entries in
	// the margin are servable only with allowStale
	StaleMargin time.Duration
}

// Cache reads and writes candidate id lists through the safe cache seam.
// A single physical key carries an embedded creation timestamp; staleness is
// computed at read time, and the backend TTL spans TTL+StaleMargin
type Cache struct {
	kv  *rd.SafeKV
	cfg Config
	log logger.Logger
	now func() time.Time
}

// New constructs the cache with defaults of 20m TTL and 5m margin
func New(kv *rd.SafeKV, cfg Config, log logger.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 20 * time.Minute
	}
	if cfg.StaleMargin <= 0 {
		cfg.StaleMargin = 5 * time.Minute
	}
	return &Cache{kv: kv, cfg: cfg, log: log, now: time.Now}
}

// Read implements the SWR read contract: fresh entries are HIT, entries past
// TTL but inside the margin are STALE (servable only with allowStale), absent
// or corrupt entries are MISS, and a bypassed client answers BYPASS
func (c *Cache) Read(ctx context.Context, key string, allowStale bool) ([]string, domain.Status) {
	if c.kv.Bypassed() {
		return nil, domain.StatusBypass
	}
	raw, ok := c.kv.Get(ctx, key)
	if !ok {
		return nil, domain.StatusMiss
	}

	var e domain.Entry
	if err := json.Unmarshal(raw, &e); err != nil || e.TS <= 0 {
		// corrupt payload reads as a miss, never an error
		c.log.Debug().Str("key", key).Msg("corrupt cache payload")
		return nil, domain.StatusMiss
	}

	ids := e.IDs
	if ids == nil {
		ids = []string{}
	}

	age := c.now().Unix() - e.TS
	if age < 0 {
		age = 0
	}
	if age <= int64(c.cfg.TTL/time.Second) {
		return ids, domain.StatusHit
	}
	if allowStale {
		return ids, domain.StatusStale
	}
	return nil, domain.StatusMiss
}

// Write replaces key's payload wholesale with a fresh timestamp
func (c *Cache) Write(ctx context.Context, key string, ids []string) bool {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(domain.Entry{IDs: ids, TS: c.now().Unix()})
	if err != nil {
		return false
	}
	physical := c.cfg.TTL + c.cfg.StaleMargin
	return c.kv.SetEx(ctx, key, payload, physical)
}
