package middleware

import (
	"net/http"

	perr "citypulse/internal/platform/errors"
	phttp "citypulse/internal/platform/net/http"
	"citypulse/internal/platform/logger"
)

// RecoverJSON converts panics into a 500 envelope instead of a dropped connection
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.C(r.Context()).Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				phttp.RespondError(w, r, perr.Internalf("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
