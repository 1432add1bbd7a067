// Package http provides http transport for candidate queries
package http

import (
	stdhttp "net/http"

	phttp "citypulse/internal/platform/net/http"
	"citypulse/internal/services/api/query/domain"
	svc "citypulse/internal/services/api/query/service"
)

// Register mounts query endpoints on the given router
func Register(r phttp.Router, s *svc.Service) {
	h := &handlers{svc: s}

	// candidate ids for a city and day, optionally narrowed by category or flag
	r.Get("/candidates", phttp.Call(h.candidates))

	// cache bypass state and breaker diagnostics
	r.Get("/cache/status", phttp.Call(h.cacheStatus))
}

type handlers struct{ svc *svc.Service }

func (h *handlers) candidates(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	in := domain.CandidatesInput{
		City:     q.Get("city"),
		Day:      q.Get("day"),
		Category: q.Get("category"),
		Flag:     q.Get("flag"),
	}
	return h.svc.Candidates(r.Context(), in)
}

func (h *handlers) cacheStatus(*stdhttp.Request) (any, error) {
	return h.svc.CacheStatus(), nil
}
