// Package module wires up the catalog service as a modkit.Module
package module

import (
	"citypulse/internal/modkit"
	modreg "citypulse/internal/modkit/module"
	phttp "citypulse/internal/platform/net/http"
	catrepo "citypulse/internal/services/catalog/repo"
	catservice "citypulse/internal/services/catalog/service"

	catdom "citypulse/internal/services/catalog/domain"
)

// Ports exported by the catalog module
type Ports struct {
	Writer catdom.WriterPort
	Reader catdom.ReaderPort
}

// Module implements modkit.Module for the catalog
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the catalog module
func New(deps modkit.Deps) *Module {
	svc := catservice.New(deps.PG, catrepo.NewPG(), deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Writer: svc, Reader: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "catalog" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: the catalog exposes no HTTP routes of its own
func (m *Module) MountRoutes(_ phttp.Router) {}

// Register stores the module's ports in the registry for cross wiring
func Register(deps modkit.Deps) *Module {
	m := New(deps)
	modreg.Register(m.Name(), m.Ports())
	return m
}
