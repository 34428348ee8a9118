package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/config"
	dbRedis "github.com/kailas-cloud/shopsense/internal/db/redis"
	logpkg "github.com/kailas-cloud/shopsense/internal/logger"
	"github.com/kailas-cloud/shopsense/internal/metrics"
	"github.com/kailas-cloud/shopsense/internal/persona"
	"github.com/kailas-cloud/shopsense/internal/progress"
	"github.com/kailas-cloud/shopsense/internal/repository/catalog"
	"github.com/kailas-cloud/shopsense/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/shopsense/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/shopsense/internal/transport/openai"
	healthuc "github.com/kailas-cloud/shopsense/internal/usecase/health"
	orchestratoruc "github.com/kailas-cloud/shopsense/internal/usecase/orchestrator"
	"github.com/kailas-cloud/shopsense/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shopsense API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Embedder chain — OpenAI base wrapped in the KV cache.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.EmbeddingModel,
		Dimensions:        cfg.OpenAI.EmbeddingDimensions,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Logger:            logger,
	})
	embedder := embcache.New(
		baseEmbedder, store,
		time.Duration(cfg.OpenAI.EmbeddingCacheTTLH)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)

	reasoner := openaiTransport.NewReasoner(&openaiTransport.ReasonerConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.ChatModel,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		PromptLimit:       cfg.Pipeline.RerankPromptLimit,
		Logger:            logger,
	})
	logger.Info("Backends created",
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
	)

	catalogRepo := catalog.New(store, embedder, catalog.Config{
		IndexName: cfg.Search.IndexName,
		KeyPrefix: cfg.Search.KeyPrefix,
		TopK:      cfg.Search.TopK,
	})

	personas, err := persona.Load(cfg.Personas.File, logger)
	if err != nil {
		logger.Fatal("Failed to load personas", zap.Error(err))
	}
	logger.Info("Personas loaded", zap.Int("count", len(personas.All())))

	tracker := progress.NewTracker(
		time.Duration(cfg.Pipeline.CleanupIntervalSec)*time.Second,
		time.Duration(cfg.Pipeline.ProgressRetentionSec)*time.Second,
		logger,
	)

	searchSvc := orchestratoruc.New(
		catalogRepo, reasoner, tracker, personas,
		orchestratoruc.Config{ReasoningBatchSize: cfg.Pipeline.ReasoningBatchSize},
		logger,
	)

	healthSvc := healthuc.New(store, reasoner)

	server := chiTransport.NewServer(searchSvc, personas, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP shutdown", zap.Error(err))
	}

	// Drain in-flight search pipelines before the tracker stops.
	if err := searchSvc.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error draining search pipelines", zap.Error(err))
	}
	tracker.Stop()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
