package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/api/handlers"
	mw "github.com/abhinavmusrif/kinetic-os/internal/api/middleware"
	"github.com/abhinavmusrif/kinetic-os/internal/config"
	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/embedding"
	"github.com/abhinavmusrif/kinetic-os/internal/extraction"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Memory       *service.MemoryService
	Consolidator *service.Consolidator
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(store *domain.Store, logger *zap.Logger) *App {
	// External clients via provider factory
	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.OpenAIAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	} else if embeddingClient != nil {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	extractionClient, err := extraction.NewClient(config.ExtractionProvider(), config.OpenAIAPIKey())
	if err != nil {
		logger.Warn("extraction client initialization failed",
			zap.String("provider", config.ExtractionProvider()), zap.Error(err))
	} else {
		logger.Info("extraction client initialized", zap.String("provider", config.ExtractionProvider()))
	}

	// Services
	weights := service.RetrievalWeights{
		Lexical:    config.RetrievalLexicalWeight(),
		Vector:     config.RetrievalVectorWeight(),
		Recency:    config.RetrievalRecencyWeight(),
		Confidence: config.RetrievalConfidenceWeight(),
		Goal:       config.RetrievalGoalWeight(),
	}
	recencyWindow := time.Duration(config.RecencyWindowDays()) * 24 * time.Hour
	retriever := service.NewRetriever(store, embeddingClient, logger, weights, recencyWindow)
	memorySvc := service.NewMemoryService(store, retriever, logger, config.DefaultSalience())

	miner := service.NewReplayMiner(extractionClient, embeddingClient, logger, config.CorroborationGain())
	resolver := service.NewContradictionResolver(logger,
		config.ContradictionPenalty(),
		config.ContradictionSimilarityThreshold(),
		config.ConfirmThreshold(),
		config.SupersedeFloor(),
		config.StaleBeliefDecay())
	forgetting := service.NewForgettingPolicy(config.SalienceDecayRate(), config.PruneSalienceFloor())
	consolidator := service.NewConsolidator(store, miner, resolver, forgetting, logger, config.EpisodeBatchSize())

	// Handlers
	episodeHandler := handlers.NewEpisodeHandler(memorySvc)
	memoryHandler := handlers.NewMemoryHandler(memorySvc)
	beliefHandler := handlers.NewBeliefHandler(memorySvc)
	skillHandler := handlers.NewSkillHandler(memorySvc)
	goalHandler := handlers.NewGoalHandler(memorySvc)
	hypothesisHandler := handlers.NewHypothesisHandler(memorySvc)
	selfModelHandler := handlers.NewSelfModelHandler(memorySvc)
	cognitiveHandler := handlers.NewCognitiveHandler(consolidator)

	r := chi.NewRouter()

	app := &App{
		Router:       r,
		Memory:       memorySvc,
		Consolidator: consolidator,
		startTime:    time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(store))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/episodes", func(r chi.Router) {
			r.Post("/", episodeHandler.Append)
			r.Get("/", episodeHandler.List)
			r.Get("/{id}", episodeHandler.GetByID)
		})

		r.Post("/memory/query", memoryHandler.Query)

		r.Route("/beliefs", func(r chi.Router) {
			r.Get("/", beliefHandler.List)
			r.Get("/{id}", beliefHandler.GetByID)
		})

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", skillHandler.List)
			r.Get("/{id}", skillHandler.GetByID)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", goalHandler.Create)
			r.Get("/", goalHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", goalHandler.GetByID)
				r.Post("/progress", goalHandler.UpdateProgress)
			})
		})

		r.Route("/hypotheses", func(r chi.Router) {
			r.Post("/", hypothesisHandler.Register)
			r.Get("/", hypothesisHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", hypothesisHandler.GetByID)
				r.Post("/resolve", hypothesisHandler.Resolve)
			})
		})

		r.Route("/self-model", func(r chi.Router) {
			r.Get("/", selfModelHandler.List)
			r.Get("/{capability}", selfModelHandler.GetByCapability)
		})

		r.Route("/cognitive", func(r chi.Router) {
			r.Post("/consolidate", cognitiveHandler.TriggerConsolidation)
			r.Get("/state", cognitiveHandler.GetState)
		})
	})

	return app
}

func healthHandler(store *domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.Consolidation.Watermark(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":      uptime.Seconds(),
			"uptime_human":        uptime.Round(time.Second).String(),
			"request_count":       app.requestCount.Load(),
			"error_count":         app.errorCount.Load(),
			"goroutines":          runtime.NumGoroutine(),
			"consolidation_state": string(app.Consolidator.State()),
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
