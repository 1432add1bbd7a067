// Package module wires up the candidates cache as a modkit.Module
package module

import (
	"citypulse/internal/modkit"
	modreg "citypulse/internal/modkit/module"
	phttp "citypulse/internal/platform/net/http"
	canddom "citypulse/internal/services/candidates/domain"
	candservice "citypulse/internal/services/candidates/service"
)

// Ports exported by the candidates module
type Ports struct {
	Cache canddom.CachePort
}

// Module implements modkit.Module for the candidate cache
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the candidates module using deps.Cfg
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	cache := candservice.New(deps.RD, candservice.Config{
		TTL:         opts.TTL,
		StaleMargin: opts.StaleMargin,
	}, deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Cache: cache}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "candidates" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: cache diagnostics live on the api module
func (m *Module) MountRoutes(_ phttp.Router) {}

// Register stores the module's ports in the registry for cross wiring
func Register(deps modkit.Deps) *Module {
	m := New(deps)
	modreg.Register(m.Name(), m.Ports())
	return m
}
