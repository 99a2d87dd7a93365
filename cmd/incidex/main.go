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

	"github.com/kailas-cloud/incidex/internal/config"
	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/incidex/internal/db/redis"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	"github.com/kailas-cloud/incidex/internal/domain/feed/query"
	logpkg "github.com/kailas-cloud/incidex/internal/logger"
	"github.com/kailas-cloud/incidex/internal/metrics"
	commentrepo "github.com/kailas-cloud/incidex/internal/repository/comment"
	"github.com/kailas-cloud/incidex/internal/repository/identity"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
	reportrepo "github.com/kailas-cloud/incidex/internal/repository/report"
	"github.com/kailas-cloud/incidex/internal/repository/session"
	voterepo "github.com/kailas-cloud/incidex/internal/repository/vote"
	chiTransport "github.com/kailas-cloud/incidex/internal/transport/chi"
	commentuc "github.com/kailas-cloud/incidex/internal/usecase/comment"
	feeduc "github.com/kailas-cloud/incidex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/incidex/internal/usecase/health"
	reportuc "github.com/kailas-cloud/incidex/internal/usecase/report"
	voteuc "github.com/kailas-cloud/incidex/internal/usecase/vote"
	"github.com/kailas-cloud/incidex/internal/version"
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

	logger.Info("Starting incidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case config.DriverMemory:
		store = memory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database", zap.Bool("search", store.SupportsSearch(ctx)))

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Create repositories
	ks := keys.New(cfg.Storage.KeyPrefix)
	reportRepo := reportrepo.New(store, ks)
	voteRepo := voterepo.New(store, ks)
	commentRepo := commentrepo.New(store, ks)
	directory := identity.New(store, ks)
	sessions := session.New(store, ks)

	if err := reportRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure report index", zap.Error(err))
	}
	if err := seedSessions(ctx, sessions, cfg.Auth); err != nil {
		logger.Fatal("Failed to seed sessions", zap.Error(err))
	}

	// Create use case services
	reportSvc := reportuc.New(reportRepo, voteRepo)
	feedSvc := feeduc.New(reportRepo, directory).WithLimits(query.Limits{
		Default: cfg.Feed.DefaultPageSize,
		Max:     cfg.Feed.MaxPageSize,
	})
	voteSvc := voteuc.New(voteRepo, reportRepo).WithConflictRetries(*cfg.Vote.ConflictRetries)
	commentSvc := commentuc.New(commentRepo, reportRepo, directory)
	healthSvc := healthuc.New(store, reportRepo)

	// Create chi server
	server := chiTransport.NewServer(reportSvc, feedSvc, voteSvc, commentSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.SessionAuthMiddleware(sessions))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

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

// seedSessions writes the configured sessions so local runs have callers to act as.
func seedSessions(ctx context.Context, sessions *session.Repo, cfg config.AuthConfig) error {
	ttl := time.Duration(cfg.SeedSessionTTL) * time.Second
	for _, ss := range cfg.SeedSessions {
		p := auth.Principal{UserID: ss.UserID, Role: auth.Role(ss.Role), Verified: ss.Verified}
		if err := sessions.Save(ctx, ss.Token, &p, ttl); err != nil {
			return fmt.Errorf("seed session for %s: %w", ss.UserID, err)
		}
	}
	return nil
}

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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
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
