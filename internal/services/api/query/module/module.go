// Package module wires candidate queries into the API using modkit
package module

import (
	"net/http"

	"citypulse/internal/modkit"
	phttp "citypulse/internal/platform/net/http"
	str "citypulse/internal/platform/strings"
	queryhttp "citypulse/internal/services/api/query/http"
	querysvc "citypulse/internal/services/api/query/service"
	canddom "citypulse/internal/services/candidates/domain"
	catdom "citypulse/internal/services/catalog/domain"
)

// Ports consumed by the query module, injected by the composition root
type Ports struct {
	Cache  canddom.CachePort
	Reader catdom.ReaderPort
}

// Module implements the query API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws []func(http.Handler) http.Handler

	subrouter func(phttp.Router) phttp.Router
	register  func(phttp.Router)

	svc *querysvc.Service
}

// New constructs the query module. Cross-module ports arrive via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("query"),
		modkit.WithPrefix("/query"),
	}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok {
		panic("query: module requires Ports via modkit.WithPorts")
	}

	svc := querysvc.New(ports.Cache, ports.Reader, deps.RD, deps.Log)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r phttp.Router) {
		queryhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns nothing: the query module only consumes ports
func (m *Module) Ports() any { return nil }

// MountRoutes mounts the module routes under its prefix
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route(m.prefix, func(rr phttp.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}
