// Package middleware holds in-house http middlewares
package middleware

import (
	"net/http"

	"citypulse/internal/platform/logger"

	"github.com/google/uuid"
)

// HeaderRequestID is the inbound/outbound request id header
const HeaderRequestID = "X-Request-ID"

// RequestID assigns a request id (honoring an inbound header) and annotates
// the context so downstream logs carry it
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequest(r.Context(), id)))
	})
}
