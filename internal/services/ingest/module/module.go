// Package module wires up the ingest worker as a modkit.Module
package module

import (
	"citypulse/internal/modkit"
	modreg "citypulse/internal/modkit/module"
	phttp "citypulse/internal/platform/net/http"
	canddom "citypulse/internal/services/candidates/domain"
	catdom "citypulse/internal/services/catalog/domain"
	ingdom "citypulse/internal/services/ingest/domain"
	ingservice "citypulse/internal/services/ingest/service"
	snapdom "citypulse/internal/services/snapshots/domain"
	snapservice "citypulse/internal/services/snapshots/service"
)

// Ports exported by the ingest module
type Ports struct {
	Runner ingdom.RunnerPort
}

// Module implements modkit.Module for ingestion
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// Wiring carries the cross-module ports ingest consumes
type Wiring struct {
	Collector ingdom.CollectorPort
	Catalog   catdom.WriterPort
	Cache     canddom.CachePort
}

// New constructs and wires the ingest module using deps.Cfg
func New(deps modkit.Deps, w Wiring) *Module {
	opts := FromConfig(deps.Cfg)

	var archiver snapdom.ArchiverPort
	if opts.SnapshotsEnabled {
		archiver = snapservice.New(snapservice.Config{
			TopPercent: opts.SnapshotTopPercent,
			BaseDir:    opts.SnapshotDir,
			Timeout:    opts.SnapshotTimeout,
		}, deps.Log)
	}

	svc := ingservice.New(
		w.Collector,
		w.Catalog,
		w.Cache,
		archiver,
		ingservice.Config{
			City:             opts.City,
			DaysAhead:        opts.DaysAhead,
			Retries:          opts.Retries,
			Backoff:          opts.Backoff,
			PauseAfterFetch:  opts.PauseAfterFetch,
			Interval:         opts.Interval,
			SnapshotsEnabled: opts.SnapshotsEnabled,
		},
		deps.Log,
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "ingest" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: ingest has no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}

// Register stores the module's ports in the registry for cross wiring
func Register(deps modkit.Deps, w Wiring) *Module {
	m := New(deps, w)
	modreg.Register(m.Name(), m.Ports())
	return m
}
