// Package api composes the HTTP API from the service modules
package api

import (
	"citypulse/internal/platform/config"
	"citypulse/internal/platform/logger"
	phttp "citypulse/internal/platform/net/http"
	"citypulse/internal/platform/store"

	"citypulse/internal/modkit"
	modreg "citypulse/internal/modkit/module"

	querymod "citypulse/internal/services/api/query/module"
	candmod "citypulse/internal/services/candidates/module"
	catmod "citypulse/internal/services/catalog/module"
)

// Options are the API composition options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger logger.Logger
}

// Mount wires the read path onto the given router under /api/v1
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log: opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		RD:  opt.Store.RD,
	}

	// supplier modules first so their ports exist for injection
	catalog := catmod.New(deps)
	candidates := candmod.New(deps)

	query := querymod.New(deps, modkit.WithPorts(querymod.Ports{
		Cache:  candidates.Ports().(candmod.Ports).Cache,
		Reader: catalog.Ports().(catmod.Ports).Reader,
	}))

	mods := []modreg.Module{catalog, candidates, query}

	r.Route("/api/v1", func(api phttp.Router) {
		for _, m := range mods {
			modreg.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
