// Package feed collects event records from JSON feed endpoints
package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"citypulse/internal/platform/config"
	perr "citypulse/internal/platform/errors"
	"citypulse/internal/platform/logger"
	catdom "citypulse/internal/services/catalog/domain"
)

const (
	defaultUA      = "citypulse-ingest"
	defaultTimeout = 10 * time.Second

	// feeds are small; anything larger is a misbehaving source
	maxBodyBytes = 8 << 20
)

// Options configures the Collector
type Options struct {
	// EndpointsCSV is a comma separated list of feed URLs.
	// Sources fail independently; one bad feed never sinks a pass
	EndpointsCSV string

	UserAgent string
	Timeout   time.Duration
}

// Collector fetches every configured feed and merges the results,
// deduplicating by record id with first occurrence winning
type Collector struct {
	http      *http.Client
	endpoints []string
	ua        string
	log       logger.Logger
}

// New creates a Collector with sane defaults
func New(o Options) *Collector {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	var eps []string
	for _, e := range strings.Split(o.EndpointsCSV, ",") {
		if e = strings.TrimSpace(e); e != "" {
			eps = append(eps, e)
		}
	}
	return &Collector{
		http:      &http.Client{Timeout: o.Timeout},
		endpoints: eps,
		ua:        o.UserAgent,
		log:       *logger.Named("feed"),
	}
}

// feedItem is the wire shape one feed entry arrives in
type feedItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartAt     string          `json:"start_at"`
	EndAt       string          `json:"end_at"`
	TimeText    string          `json:"time_text"`
	Venue       string          `json:"venue"`
	Area        string          `json:"area"`
	Address     string          `json:"address"`
	Image       string          `json:"image"`
	URL         string          `json:"url"`
	PriceMin    *float64        `json:"price_min"`
	Categories  []string        `json:"categories"`
	Tags        []string        `json:"tags"`
	Flags       map[string]bool `json:"flags"`
	Source      string          `json:"source"`
}

// Collect pulls every endpoint and merges the results. It errors only when
// no endpoint produced anything usable, so a single flaky source degrades
// the pass instead of aborting it
func (c *Collector) Collect(ctx context.Context) ([]catdom.Record, error) {
	if len(c.endpoints) == 0 {
		return nil, perr.InvalidArgf("feed: no endpoints configured")
	}

	var (
		out     []catdom.Record
		seen    = make(map[string]struct{})
		healthy int
		lastErr error
	)
	for _, ep := range c.endpoints {
		items, err := c.fetch(ctx, ep)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Str("endpoint", ep).Msg("feed fetch failed")
			continue
		}
		healthy++
		for _, it := range items {
			if it.ID == "" {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, toRecord(it))
		}
	}
	if healthy == 0 {
		return nil, perr.Wrap(lastErr, perr.ErrorCodeUnavailable, "feed: every endpoint failed")
	}
	return out, nil
}

// fetch downloads and decodes one endpoint
func (c *Collector) fetch(ctx context.Context, url string) ([]feedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "feed new request failed")
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "feed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, perr.Unavailablef("feed returned status %d", resp.StatusCode)
	}

	var items []feedItem
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(&items); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "feed decode failed")
	}
	return items, nil
}

// toRecord maps a wire item to the catalog shape; timestamps that do not
// parse are dropped rather than guessed so the pass filter handles them
func toRecord(it feedItem) catdom.Record {
	return catdom.Record{
		ID:         it.ID,
		Title:      it.Title,
		Desc:       it.Description,
		StartAt:    parseTime(it.StartAt),
		EndAt:      parseTime(it.EndAt),
		TimeText:   it.TimeText,
		Venue:      it.Venue,
		Area:       it.Area,
		Address:    it.Address,
		Image:      it.Image,
		URL:        it.URL,
		PriceMin:   it.PriceMin,
		Categories: it.Categories,
		Tags:       it.Tags,
		Flags:      it.Flags,
		Source:     it.Source,
	}
}

// parseTime accepts RFC 3339 or a bare date
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FromConfig builds Options from FEED_* environment
// FEED_URLS is the comma separated endpoint list
// FEED_UA (default "citypulse-ingest") is sent as the User-Agent
// FEED_TIMEOUT (default 10s) bounds one download
func FromConfig(cfg config.Conf) Options {
	f := cfg.Prefix("FEED_")
	return Options{
		EndpointsCSV: f.MayString("URLS", ""),
		UserAgent:    f.MayString("UA", defaultUA),
		Timeout:      f.MayDuration("TIMEOUT", defaultTimeout),
	}
}
