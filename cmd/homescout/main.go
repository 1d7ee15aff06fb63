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

	"github.com/kailas-cloud/homescout/internal/config"
	"github.com/kailas-cloud/homescout/internal/db"
	dbRedis "github.com/kailas-cloud/homescout/internal/db/redis"
	"github.com/kailas-cloud/homescout/internal/domain/geo"
	logpkg "github.com/kailas-cloud/homescout/internal/logger"
	"github.com/kailas-cloud/homescout/internal/metrics"
	cacherepo "github.com/kailas-cloud/homescout/internal/repository/cache"
	lockrepo "github.com/kailas-cloud/homescout/internal/repository/lock"
	chiTransport "github.com/kailas-cloud/homescout/internal/transport/chi"
	"github.com/kailas-cloud/homescout/internal/transport/gateway"
	healthuc "github.com/kailas-cloud/homescout/internal/usecase/health"
	"github.com/kailas-cloud/homescout/internal/usecase/normalize"
	"github.com/kailas-cloud/homescout/internal/usecase/relax"
	searchuc "github.com/kailas-cloud/homescout/internal/usecase/search"
	"github.com/kailas-cloud/homescout/internal/version"
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

	logger.Info("Starting homescout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("gateway", cfg.Gateway.BaseURL),
	)

	// Both supported drivers speak the same protocol; one client serves both.
	var store db.Store
	switch cfg.Database.Driver {
	case "valkey", "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Upstream listings gateway
	listings := gateway.NewClient(&gateway.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		APIKey:   cfg.Gateway.APIKey,
		Timeout:  time.Duration(cfg.Gateway.TimeoutSec) * time.Second,
		PageSize: cfg.Gateway.PageSize,
		Logger:   logger,
	})

	// Repositories over the shared store
	resultCache := cacherepo.New(store).
		WithPrefix(cfg.Database.KeyPrefix).
		WithTTL(time.Duration(cfg.Cache.TTLSec) * time.Second)
	sessionLocks := lockrepo.New(store).
		WithPrefix(cfg.Database.KeyPrefix).
		WithTTL(time.Duration(cfg.Lock.TTLSec) * time.Second).
		WithWait(
			time.Duration(cfg.Lock.WaitTimeoutSec)*time.Second,
			time.Duration(cfg.Lock.PollIntervalMS)*time.Millisecond,
		).
		WithMetrics(metrics.LockWaitSeconds, metrics.LockTimeoutsTotal)

	// Use case services
	planner := relax.New(listings, geo.DefaultAtlas()).
		WithThresholds(cfg.Search.MinResults, cfg.Search.TargetResults).
		WithMaxPages(cfg.Gateway.MaxPages).
		WithMetrics(metrics.RelaxationLevelTotal)
	searchSvc := searchuc.New(normalize.New(), planner, resultCache, sessionLocks).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
		WithStaleOnBusy(cfg.Search.ServeStaleOnBusy).
		WithMetrics(metrics.CacheRequestsTotal)
	healthSvc := healthuc.New(store, listings)

	// HTTP surface
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

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

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
