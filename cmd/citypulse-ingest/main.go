// citypulse-ingest runs the ingestion worker: collect, filter, persist,
// cache fan-out, and optional snapshot capture
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"citypulse/internal/modkit"
	"citypulse/internal/modkit/module"
	"citypulse/internal/platform/config"
	"citypulse/internal/platform/logger"
	"citypulse/internal/platform/store"

	"citypulse/internal/adapters/collect/feed"
	candmod "citypulse/internal/services/candidates/module"
	catmod "citypulse/internal/services/catalog/module"
	ingmod "citypulse/internal/services/ingest/module"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	rdCfg := root.Prefix("SERVICE_REDIS_")

	logger.Init(logger.FromEnv())
	l := logger.Get()

	fMode := flag.String("mode", "worker", "ingest mode: worker | once")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "citypulse-ingest",
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

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		RD:  st.RD,
	}

	catalog := catmod.Register(deps)
	candidates := candmod.Register(deps)

	catPorts := module.MustPortsOf[catmod.Ports](catalog)
	candPorts := module.MustPortsOf[candmod.Ports](candidates)

	if err := catPorts.Writer.EnsureSchema(ctx); err != nil {
		l.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	collector := feed.New(feed.FromConfig(root))

	ingest := ingmod.Register(deps, ingmod.Wiring{
		Collector: collector,
		Catalog:   catPorts.Writer,
		Cache:     candPorts.Cache,
	})
	runner := module.MustPortsOf[ingmod.Ports](ingest).Runner

	switch *fMode {
	case "worker":
		if err := runner.RunForever(ctx); err != nil && ctx.Err() == nil {
			l.Fatal().Err(err).Msg("ingest worker failed")
		}

	case "once":
		res, err := runner.RunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("ingestion pass failed")
		}
		l.Info().
			Str("pass_id", res.PassID).
			Int("fetched", res.Fetched).
			Int("kept", res.Kept).
			Int("upserted", res.Upserted).
			Int("cached_keys", res.CachedKeys).
			Int("snapshots", res.Snapshots).
			Msg("ingestion pass complete")

	default:
		l.Panic().Str("mode", *fMode).Msg("unknown -mode (expected: worker | once)")
	}
}
