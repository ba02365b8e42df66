// Command server runs the tournament-tracker HTTP API: it loads the stored
// JSONL data lake and the epoch timeline derived from it, wires the source
// platform client and agent backend used by the refresh pipeline, and
// serves the read-only analytics surface.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/agent"
	"github.com/dabbslondon/tourney-tracker/internal/bcp"
	"github.com/dabbslondon/tourney-tracker/internal/config"
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/fetch"
	"github.com/dabbslondon/tourney-tracker/internal/httpapi"
	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
	"github.com/dabbslondon/tourney-tracker/internal/sync"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalw("failed to load configuration", "error", err)
	}

	storageCfg := storage.NewConfig(cfg.DataDir)
	for _, dir := range []string{storageCfg.RawDir(), storageCfg.NormalizedDir(), storageCfg.StateDir(), storageCfg.ReviewQueueDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatalw("failed to create data directory", "dir", dir, "error", err)
		}
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.CacheDir = storageCfg.RawDir()
	if cfg.Source.RateLimitMs > 0 {
		fetchCfg.RequestDelay = time.Duration(cfg.Source.RateLimitMs) * time.Millisecond
	}
	fetcher := fetch.New(fetchCfg, logger)

	sourceCfg := bcp.DefaultConfig()
	sourceCfg.APIBase = cfg.Source.BaseURL
	client := bcp.NewClient(fetcher, sourceCfg, logger)

	backend := agent.NewOllamaBackend(cfg.Ai, logger)
	if !backend.HealthCheck(context.Background()) {
		logger.Warnw("agent backend health check failed at startup, continuing anyway", "backend", backend.Name())
	}

	mapper, err := loadMapper(storageCfg, logger)
	if err != nil {
		logger.Fatalw("failed to build epoch mapper", "error", err)
	}

	orchestrator := sync.New(sync.Config{Storage: storageCfg}, fetcher, client, backend, mapper, logger)
	orchestrator.OnProgress(func(p sync.RefreshProgress) {
		logger.Debugw("refresh progress", "phase", p.Phase)
	})

	server := httpapi.NewServer(httpapi.Deps{
		Cfg:          cfg,
		Storage:      storageCfg,
		Logger:       logger,
		Fetcher:      fetcher,
		Client:       client,
		Backend:      backend,
		Orchestrator: orchestrator,
		Mapper:       mapper,
	})

	addr := cfg.Server.Host + ":" + strconv.Itoa(int(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infow("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown did not complete cleanly", "error", err)
	}
}

func newLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

func loadConfig(path string, logger *zap.SugaredLogger) (config.AppConfig, error) {
	if _, err := os.Stat(path); err != nil {
		logger.Infow("no config file found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.FromFile(path)
}

// loadMapper rebuilds the epoch timeline from every recorded balance pass
// in the "_global" partition. A fresh data lake with no significant events
// on file yields a mapper with no epochs, which maps every date to the
// pre-tracking id.
func loadMapper(cfg storage.Config, logger *zap.SugaredLogger) (*epoch.Mapper, error) {
	store := storage.NewJsonlStore[models.SignificantEvent](cfg, storage.EntitySignificantEvent).WithLogger(logger)
	events, err := store.ReadAll("_global")
	if err != nil {
		return nil, err
	}
	return epoch.FromSignificantEvents(events), nil
}
