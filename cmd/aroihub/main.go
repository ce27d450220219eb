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
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/killmete/aroihub-sub000/internal/config"
	"github.com/killmete/aroihub-sub000/internal/db"
	dbRedis "github.com/killmete/aroihub-sub000/internal/db/redis"
	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	logpkg "github.com/killmete/aroihub-sub000/internal/logger"
	"github.com/killmete/aroihub-sub000/internal/metrics"
	"github.com/killmete/aroihub-sub000/internal/repository/corpus"
	chiTransport "github.com/killmete/aroihub-sub000/internal/transport/chi"
	discoveryuc "github.com/killmete/aroihub-sub000/internal/usecase/discovery"
	healthuc "github.com/killmete/aroihub-sub000/internal/usecase/health"
	"github.com/killmete/aroihub-sub000/internal/usecase/reconcile"
	"github.com/killmete/aroihub-sub000/internal/version"
)

func main() {
	// Load .env for local development; absence is fine in containers.
	_ = godotenv.Load()

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

	logger.Info("Starting aroihub API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	pool, err := corpus.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("Connected to postgres")

	metrics.RegisterSearchMetrics()

	catalogRepo := corpus.NewPostgres(pool, logger)

	// Cache is optional; with no addrs every query goes straight to postgres.
	var queries reconcile.CorpusProvider = catalogRepo
	var cachePinger healthuc.CachePinger
	if len(cfg.Cache.Addrs) > 0 {
		var store db.Store
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		queries = corpus.NewCached(
			catalogRepo, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.CorpusCacheTotal, logger,
		)
		cachePinger = store
	}

	discoverySvc := discoveryuc.New(&cachedCatalog{Postgres: catalogRepo, queries: queries}).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	healthSvc := healthuc.New(catalogRepo, cachePinger)

	server := chiTransport.NewServer(discoverySvc, healthSvc, logger).
		WithAdminKeys(cfg.Auth.AdminAPIKeys)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsMiddleware(cfg.HTTP.AllowedOrigins))
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

// cachedCatalog answers listing queries through the cache while the other
// catalog reads go straight to postgres.
type cachedCatalog struct {
	*corpus.Postgres
	queries reconcile.CorpusProvider
}

func (c *cachedCatalog) Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error) {
	return c.queries.Query(ctx, f)
}

// corsMiddleware allows browser clients from the configured origins.
func corsMiddleware(origins []string) func(next http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		// Credentials are only safe with an explicit origin list.
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler
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
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
