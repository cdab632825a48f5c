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

	"github.com/sycomix/marqo/internal/config"
	dbRedis "github.com/sycomix/marqo/internal/db/redis"
	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
	logpkg "github.com/sycomix/marqo/internal/logger"
	"github.com/sycomix/marqo/internal/metrics"
	documentrepo "github.com/sycomix/marqo/internal/repository/document"
	"github.com/sycomix/marqo/internal/repository/embcache"
	searchrepo "github.com/sycomix/marqo/internal/repository/search"
	chiTransport "github.com/sycomix/marqo/internal/transport/chi"
	openaiEmb "github.com/sycomix/marqo/internal/transport/openai"
	documentuc "github.com/sycomix/marqo/internal/usecase/document"
	searchuc "github.com/sycomix/marqo/internal/usecase/search"
	"github.com/sycomix/marqo/internal/version"
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

	logger.Info("Starting marqo API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vespa_url", cfg.Vespa.BaseURL),
	)

	// Load structured index declarations
	indexes, err := index.LoadSchemas(cfg.Schema.Path)
	if err != nil {
		logger.Fatal("Failed to load index schemas", zap.Error(err))
	}
	catalog := index.NewCatalog(indexes)
	logger.Info("Loaded index schemas",
		zap.String("path", cfg.Schema.Path),
		zap.Int("indexes", len(indexes)),
	)

	// Vespa backend client
	vespaClient, err := vespa.NewClient(vespa.Config{
		BaseURL:    cfg.Vespa.BaseURL,
		TimeoutSec: cfg.Vespa.TimeoutSec,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create vespa client", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterVespaMetrics()
	metrics.RegisterHTTPMetrics()

	// Optional embedding cache store
	ctx := context.Background()
	var cacheStore *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := cacheStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache")
	}

	// Build embedder chain — composition root
	// Take the first vectorizer config
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	docEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, cacheStore, cfg.Cache, logger)
	queryEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, cacheStore, cfg.Cache, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	// Repositories and use case services
	searchRepo := searchrepo.New(vespaClient, logger)
	docRepo := documentrepo.New(vespaClient, logger)

	searchSvc := searchuc.New(searchRepo, catalog, queryEmbedder, searchuc.Limits{
		DefaultLimit:    cfg.Search.DefaultLimit,
		MaxLimit:        cfg.Search.MaxLimit,
		DefaultEFSearch: cfg.Search.DefaultEFSearch,
	})
	docSvc := documentuc.New(docRepo, catalog, docEmbedder)

	checks := map[string]chiTransport.Pinger{"vespa": vespaClient}
	if cacheStore != nil {
		checks["cache"] = cacheStore
	}
	server := chiTransport.NewServer(searchSvc, docSvc, checks, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	cacheStore *dbRedis.Store,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if cacheStore != nil {
		ttl := time.Duration(cacheCfg.TTLSec) * time.Second
		embedder = embcache.New(base, cacheStore, cacheCfg.KeyPrefix, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
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
