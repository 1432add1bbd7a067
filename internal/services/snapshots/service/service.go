// Package service implements sampled gzip snapshot capture
package service

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	perr "citypulse/internal/platform/errors"
	"citypulse/internal/platform/logger"
)

const defaultUserAgent = "CityPulseBot/1.0 (+https://example.com)"

// Config holds archiver knobs
type Config struct {
	// TopPercent selects the leading share of each pass for capture, (0,1]
	TopPercent float64
	// BaseDir is the archive root; relative paths are joined beneath it
	BaseDir string
	// Timeout bounds one download
	Timeout   time.Duration
	UserAgent string
}

// Archiver downloads and stores gzip-compressed page content
type Archiver struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
}

// New constructs an Archiver with an 8s download timeout by default
func New(cfg Config, log logger.Logger) *Archiver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Archiver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Eligible reports whether rank (0-based) is inside ceil(total*TopPercent),
// with a floor of one item whenever anything qualifies
func (a *Archiver) Eligible(total, rank int) bool {
	if total <= 0 || a.cfg.TopPercent <= 0 {
		return false
	}
	limit := int(math.Ceil(float64(total) * a.cfg.TopPercent))
	if limit < 1 {
		limit = 1
	}
	return rank < limit
}

// Path builds "YYYY/MM/DD/<recordID>.html.gz" relative to the archive root
func (a *Archiver) Path(recordID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s.html.gz", at.Year(), at.Month(), at.Day(), recordID)
}

// Capture downloads url and writes it gzip-compressed beneath BaseDir
func (a *Archiver) Capture(ctx context.Context, url, relPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "snapshot: build request for %s", url)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Accept", "text/html, */*;q=0.1")

	resp, err := a.client.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "snapshot: fetch %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return perr.Unavailablef("snapshot: fetch %s: status %d", url, resp.StatusCode)
	}

	abs := filepath.Join(a.cfg.BaseDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "snapshot: mkdir for %s", relPath)
	}

	f, err := os.Create(abs)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "snapshot: create %s", relPath)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	if _, err := io.Copy(gz, resp.Body); err != nil {
		_ = gz.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "snapshot: write %s", relPath)
	}
	if err := gz.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "snapshot: flush %s", relPath)
	}
	return f.Close()
}
