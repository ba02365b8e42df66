package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/agent"
	"github.com/dabbslondon/tourney-tracker/internal/bcp"
	"github.com/dabbslondon/tourney-tracker/internal/config"
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/fetch"
	"github.com/dabbslondon/tourney-tracker/internal/review"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
	"github.com/dabbslondon/tourney-tracker/internal/sync"
)

// Server bundles every dependency the HTTP handlers need: the shared,
// lock-guarded epoch mapper and refresh orchestrator, the read-only JSONL
// repo, the review queue, and the optional Redis/Postgres enrichments.
type Server struct {
	cfg     config.AppConfig
	storage storage.Config
	logger  *zap.SugaredLogger

	repo   *repo
	queue  *review.Queue
	cache  *analyticsCache
	pindex *playerIndex

	orchestrator *sync.Orchestrator
	mapper       *epoch.Mapper

	traffic *trafficStats
}

// Deps carries the constructed subsystems a running process wires together
// at startup: fetcher, source client, agent backend, orchestrator and
// shared epoch mapper. httpapi owns none of their lifecycles except its own
// cache/index connections.
type Deps struct {
	Cfg          config.AppConfig
	Storage      storage.Config
	Logger       *zap.SugaredLogger
	Fetcher      *fetch.Fetcher
	Client       *bcp.Client
	Backend      agent.Backend
	Orchestrator *sync.Orchestrator
	Mapper       *epoch.Mapper
}

// NewServer builds a Server and its optional Redis/Postgres connections.
// Connection failures for either optional dependency are logged and
// degrade gracefully to the no-op fallback rather than failing startup,
// matching the source-platform client's "absence of credentials degrades
// gracefully" stance.
func NewServer(deps Deps) *Server {
	s := &Server{
		cfg:          deps.Cfg,
		storage:      deps.Storage,
		logger:       deps.Logger,
		repo:         newRepo(deps.Storage, deps.Logger),
		queue:        review.New(deps.Storage),
		cache:        newAnalyticsCache(deps.Cfg.Storage.RedisAddr, deps.Logger),
		orchestrator: deps.Orchestrator,
		mapper:       deps.Mapper,
		traffic:      newTrafficStats(),
	}

	idx, err := newPlayerIndex(context.Background(), deps.Cfg.Storage.PostgresDSN, deps.Logger)
	if err != nil {
		deps.Logger.Warnw("player index unavailable, falling back to raw names", "error", err)
		idx = &playerIndex{log: deps.Logger}
	}
	s.pindex = idx
	return s
}

// Router builds the full chi mux: CORS, recovery, traffic/metrics
// middleware, then the read-only analytics surface and the gated refresh
// control endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.trafficMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOriginOrDefault(s.cfg.Server.CorsOrigin)},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/events", s.handleListEvents)
		api.Get("/events/{id}", s.handleGetEvent)
		api.Get("/epochs", s.handleListEpochs)
		api.Get("/balance", s.handleListBalance)
		api.Get("/balance/{id}", s.handleGetBalance)
		api.Get("/meta/factions", s.handleMetaFactions)
		api.Get("/meta/factions/{name}", s.handleMetaFactionDetail)
		api.Get("/review-queue", s.handleListReviewQueue)

		api.Route("/analytics", func(a chi.Router) {
			a.Get("/overview", s.handleOverview)
			a.Get("/trends", s.handleTrends)
			a.Get("/players", s.handlePlayers)
			a.Get("/units", s.handleUnits)
			a.Get("/detachments", s.handleDetachments)
			a.Get("/unit-performance", s.handleUnitPerformance)
			a.Get("/points-efficiency", s.handlePointsEfficiency)
			a.Get("/matchups", s.handleMatchups)
			a.Get("/archetypes", s.handleArchetypes)
			a.Get("/win-rates", s.handleWinRates)
			a.Get("/composite-scores", s.handleCompositeScores)
		})

		api.Get("/refresh/preview", s.handleRefreshPreview)
		api.With(s.localhostOnly).Post("/refresh", s.handleStartRefresh)
		api.Get("/refresh/status", s.handleRefreshStatus)

		api.Get("/traffic", s.handleTraffic)
	})

	return r
}

func corsOriginOrDefault(origin string) string {
	if origin == "" {
		return "*"
	}
	return origin
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]interface{}{
		"status":       "ok",
		"redis":        s.cache.healthy(r.Context()),
		"postgres":     s.pindex.healthy(r.Context()),
		"refreshState": s.orchestrator.State().Status,
	})
}

// handleReadyz reports whether the process can actually serve traffic: the
// data directory must exist and accept writes. Unlike handleHealthz this
// never reports ok while the on-disk data lake is unreachable.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	probe := filepath.Join(s.storage.DataDir, ".readyz-probe")
	if err := os.WriteFile(probe, []byte{}, 0o644); err != nil {
		writeError(w, ErrInternal, "data directory is not writable")
		return
	}
	os.Remove(probe)
	writeOK(w, map[string]interface{}{"status": "ready"})
}
