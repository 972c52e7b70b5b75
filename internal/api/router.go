package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shadowbrief/shadowbrief/internal/api/handlers"
	mw "github.com/shadowbrief/shadowbrief/internal/api/middleware"
	"github.com/shadowbrief/shadowbrief/internal/buildconfig"
	"github.com/shadowbrief/shadowbrief/internal/config"
	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/llm"
	"github.com/shadowbrief/shadowbrief/internal/service"
	"github.com/shadowbrief/shadowbrief/internal/store"
)

// Compile-time wiring checks.
var (
	_ domain.SemanticClient = (*llm.Caller)(nil)
	_ domain.BeliefStore    = (*store.BeliefStore)(nil)
	_ domain.CacheStore     = (*store.CacheStore)(nil)
	_ domain.ThreadStore    = (*store.ThreadStore)(nil)
	_ domain.ArticleStore   = (*store.ArticleStore)(nil)
	_ domain.MessageStore   = (*store.MessageStore)(nil)
)

// App holds the router and request metrics.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, client domain.ChatClient, logger *zap.Logger) *App {
	// Stores
	beliefStore := store.NewBeliefStore(db)
	cacheStore := store.NewCacheStore(db)
	threadStore := store.NewThreadStore(db)
	articleStore := store.NewArticleStore(db)
	messageStore := store.NewMessageStore(db)

	// Structured caller over the chat client
	routes := llm.Routes{
		FastProvider:   config.FastProvider(),
		FastModel:      config.FastModel(),
		MemoryProvider: config.MemoryProvider(),
		MemoryModel:    config.MemoryModel(),
	}
	caller := llm.NewCaller(client, cacheStore, routes, config.LLMTimeout(), logger)

	// Services
	threadSvc := service.NewThreadService(threadStore, client, logger)
	articleSvc := service.NewArticleService(articleStore, messageStore, threadSvc, caller, logger)
	beliefSvc := service.NewBeliefService(beliefStore, messageStore, threadSvc, caller, logger)
	ledgerSvc := service.NewLedgerService(beliefStore, threadSvc, caller, logger)

	// Handlers
	articleHandler := handlers.NewArticleHandler(articleSvc)
	threadHandler := handlers.NewThreadHandler(threadSvc, messageStore)
	beliefHandler := handlers.NewBeliefHandler(beliefSvc, articleSvc)
	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc, config.LedgerMinCount())

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/init", threadHandler.Init)
		r.Post("/thread", threadHandler.Thread)
		r.Get("/messages", threadHandler.Messages)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.List)
			r.Post("/ingest", articleHandler.Ingest)
			r.Post("/ingest_and_explain", articleHandler.IngestAndExplain)
			r.Get("/{id}", articleHandler.GetByID)
		})

		r.Post("/action", beliefHandler.Action)

		r.Route("/beliefs", func(r chi.Router) {
			r.Get("/", beliefHandler.Recent)
			r.Get("/latest", beliefHandler.Latest)
		})

		r.Get("/ledger", ledgerHandler.Get)
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, client domain.ChatClient, logger *zap.Logger) *chi.Mux {
	return NewApp(db, client, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
