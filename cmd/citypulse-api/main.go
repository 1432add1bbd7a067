// citypulse-api serves the read path: candidate lookups and cache diagnostics
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"citypulse/internal/platform/config"
	"citypulse/internal/platform/logger"
	phttp "citypulse/internal/platform/net/http"
	mw "citypulse/internal/platform/net/middleware"
	"citypulse/internal/platform/store"

	"citypulse/internal/services/api"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	rdCfg := root.Prefix("SERVICE_REDIS_")

	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "citypulse-api",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		RD: store.RDConfig{
			Enabled:           true,
			URL:               rdCfg.MayString("URL", ""),
			Bypass:            rdCfg.MayBool("BYPASS", false),
			ConnectTimeout:    rdCfg.MayDuration("CONNECT_TIMEOUT", 2*time.Second),
			OpTimeout:         rdCfg.MayDuration("OP_TIMEOUT", 500*time.Millisecond),
			BreakerThreshold:  rdCfg.MayInt("BREAKER_THRESHOLD", 2),
			BreakerOpenWindow: rdCfg.MayDuration("BREAKER_WINDOW", time.Minute),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		m.Use(mw.RequestID)
		m.Use(mw.AccessLog(mw.AccessLogOptions{
			Slow: apiCfg.MayDuration("SLOW", 2*time.Second),
		}))
		m.Use(mw.RecoverJSON)
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{apiCfg.MayString("CORS_ORIGIN", "*")},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", mw.HeaderRequestID},
			MaxAge:         300,
		}))
	})

	api.Mount(srv.Router(), api.Options{
		Config: apiCfg,
		Store:  st,
		Logger: *l,
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
