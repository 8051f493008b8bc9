package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/bierlingm/worldview-extractor/internal/api/handlers"
	mw "github.com/bierlingm/worldview-extractor/internal/api/middleware"
	"github.com/bierlingm/worldview-extractor/internal/buildconfig"
	"github.com/bierlingm/worldview-extractor/internal/comparison"
	"github.com/bierlingm/worldview-extractor/internal/config"
	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/bierlingm/worldview-extractor/internal/embedding"
	"github.com/bierlingm/worldview-extractor/internal/service"
	"github.com/bierlingm/worldview-extractor/internal/similarity"
	"github.com/bierlingm/worldview-extractor/internal/store"
	"github.com/bierlingm/worldview-extractor/internal/synthesis"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Options configures the HTTP surface.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	// Ping reports backend health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// App holds the router and the shared similarity service.
type App struct {
	Router     *chi.Mux
	Similarity *similarity.Service
	metrics    mw.Metrics
	startTime  time.Time
	done       chan struct{}
}

// NewApp wires stores, embedding and services onto db using env config.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	worldviewStore := store.NewWorldviewStore(db)
	var cache domain.EmbeddingCache
	if config.EmbeddingCacheEnabled() {
		cache = store.NewEmbeddingCacheStore(db)
	}

	opts := embedding.Options{
		Provider:       config.EmbeddingProvider(),
		APIKey:         config.EmbeddingAPIKey(),
		OllamaEndpoint: config.OllamaEndpoint(),
		OllamaModel:    config.OllamaModel(),
	}
	sim := similarity.NewService(embedding.NewLoader(opts, cache, logger), logger)

	return New(worldviewStore, sim, Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		Ping:           db.Ping,
	}, logger)
}

// New builds the router over an arbitrary worldview store.
func New(worldviewStore domain.WorldviewStore, sim *similarity.Service, opts Options, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Services
	var ranker similarity.Ranker
	if sim != nil {
		ranker = sim
	}
	comparator := comparison.NewComparator(ranker, logger)
	synthesizer := synthesis.NewSynthesizer(comparator, sim, logger)
	worldviewSvc := service.NewWorldviewService(worldviewStore, logger)
	analysisSvc := service.NewAnalysisService(worldviewSvc, comparator, synthesizer, logger)

	// Handlers
	worldviewHandler := handlers.NewWorldviewHandler(worldviewSvc)
	analysisHandler := handlers.NewAnalysisHandler(analysisSvc)

	r := chi.NewRouter()
	app := &App{
		Router:     r,
		Similarity: sim,
		startTime:  time.Now(),
		done:       make(chan struct{}),
	}

	rps, burst := opts.RateLimitRPS, opts.RateLimitBurst
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 20
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(rps, burst, app.done))

	// No auth
	r.Get("/health", healthHandler(opts.Ping))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/worldviews", func(r chi.Router) {
			r.Post("/", worldviewHandler.Create)
			r.Get("/", worldviewHandler.List)
			r.Get("/search", worldviewHandler.Search)
			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", worldviewHandler.Get)
				r.Delete("/", worldviewHandler.Delete)
				r.Get("/eval", worldviewHandler.Eval)
				r.Get("/blindspots", analysisHandler.Blindspots)
			})
		})

		r.Get("/diff", analysisHandler.Diff)
		r.Post("/movements", analysisHandler.Movement)
	})

	return app
}

// Close stops background work started by the router.
func (app *App) Close() {
	select {
	case <-app.done:
	default:
		close(app.done)
	}
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":         uptime.Seconds(),
			"uptime_human":           uptime.Round(time.Second).String(),
			"requests":               app.metrics.Snapshot(),
			"embedding_model_loaded": app.Similarity != nil && app.Similarity.Loaded(),
			"goroutines":             runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.WorldviewStore       = (*store.WorldviewStore)(nil)
	_ domain.EmbeddingCache       = (*store.EmbeddingCacheStore)(nil)
	_ domain.BatchEmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.BatchEmbeddingClient = (*embedding.OllamaClient)(nil)
	_ domain.BatchEmbeddingClient = (*embedding.GenAIClient)(nil)
	_ domain.BatchEmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.BatchEmbeddingClient = (*embedding.CachedClient)(nil)
)
