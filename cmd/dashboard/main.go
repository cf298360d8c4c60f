package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/hra-dashboard/internal/adapter/basemap"
	"github.com/couchcryptid/hra-dashboard/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/hra-dashboard/internal/adapter/http"
	"github.com/couchcryptid/hra-dashboard/internal/config"
	"github.com/couchcryptid/hra-dashboard/internal/dashboard"
	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	sources := dataset.Sources{Label: cfg.LabelPath, Pair: cfg.PairPath, Integrated: cfg.IntegratedPath}
	store := dataset.New(csvfile.NewLoader(logger), sources, cfg.NormalizeOptions(), logger, metrics)

	// Base map (feature-flagged via BASEMAP_ENABLED). Disabled serves the
	// embedded empty boundary set.
	var inner domain.BaseMapProvider
	if cfg.BaseMapEnabled {
		inner = basemap.NewClient(cfg.BaseMapURL, cfg.BaseMapTimeout, logger)
		logger.Info("basemap enabled", "url", cfg.BaseMapURL, "cache_ttl", cfg.BaseMapCacheTTL)
	} else {
		logger.Info("basemap disabled")
	}
	// The fetch bound stays under the HTTP write timeout so the fallback
	// reaches the client.
	provider := basemap.NewCachedProvider(inner, cfg.BaseMapCacheTTL, clockwork.NewRealClock(), logger, metrics,
		basemap.WithFetchTimeout(cfg.BaseMapTimeout))

	dash := dashboard.New(store, provider, cfg.MapOptions(), logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, dash, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed first load leaves the service unready; the watcher keeps
	// retrying.
	if _, err := store.Load(ctx); err != nil {
		logger.Error("initial dataset load failed", "error", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := store.Watch(ctx, cfg.ReloadInterval); err != nil {
			logger.Error("dataset watch error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
