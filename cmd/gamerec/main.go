package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/artifact/source"
	"github.com/kailas-cloud/gamerec/internal/config"
	logpkg "github.com/kailas-cloud/gamerec/internal/logger"
	"github.com/kailas-cloud/gamerec/internal/metrics"
	"github.com/kailas-cloud/gamerec/internal/modelstore"
	chiTransport "github.com/kailas-cloud/gamerec/internal/transport/chi"
	healthuc "github.com/kailas-cloud/gamerec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
	"github.com/kailas-cloud/gamerec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, logpkg.ComponentAPI, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gamerec API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("primary_driver", cfg.Artifacts.Primary.Driver),
		zap.String("fallback_driver", cfg.Artifacts.Fallback.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Serving.StartupTimeoutS)*time.Second)
	defer cancel()

	models, closeStores, err := openModelStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open artifact stores", zap.Error(err))
	}
	defer closeStores()

	// The model is loaded once; a new model needs a restart.
	eng, loaded, err := models.Load(ctx)
	if err != nil {
		metrics.ModelLoadsTotal.WithLabelValues("none", "error").Inc()
		logger.Fatal("Model unavailable", zap.Error(err))
	}
	st := eng.Status()
	metrics.ModelLoadsTotal.WithLabelValues(loaded.Source, "ok").Inc()
	metrics.ModelGames.Set(float64(st.Games))
	metrics.ModelFeatures.Set(float64(st.Features))
	logger.Info("Model loaded",
		zap.String("model_id", loaded.ModelID),
		zap.String("source", loaded.Source),
		zap.String("location", loaded.Location),
		zap.Int("games", st.Games),
		zap.Int("features", st.Features),
		zap.Time("trained_at", st.TrainedAt),
	)

	// Create use case services
	recommendSvc := recommenduc.New(eng, recommenduc.Config{
		DefaultTopK:    cfg.Serving.DefaultTopK,
		MaxTopK:        cfg.Serving.MaxTopK,
		SummaryPreview: cfg.Serving.SummaryPreview,
		SearchLimit:    cfg.Serving.SearchLimit,
		MaxSearchLimit: cfg.Serving.MaxSearchLimit,
		MaxQueryLength: cfg.Serving.MaxQueryLength,
	})
	healthSvc := healthuc.New(eng, models)

	// Create chi server
	server := chiTransport.NewServer(recommendSvc, healthSvc, chiTransport.ModelInfo{
		ID:     loaded.ModelID,
		Source: loaded.Source,
	}, logger)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openModelStore opens both artifact sources and assembles the model store.
// Remote sources sit behind a circuit breaker.
func openModelStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*modelstore.Store, func(), error) {
	primary, closePrimary, err := source.Open(ctx, cfg.Artifacts.Primary)
	if err != nil {
		return nil, func() {}, fmt.Errorf("primary: %w", err)
	}
	fallback, closeFallback, err := source.Open(ctx, cfg.Artifacts.Fallback)
	if err != nil {
		closePrimary()
		return nil, func() {}, fmt.Errorf("fallback: %w", err)
	}
	closeAll := func() {
		closePrimary()
		closeFallback()
	}

	if primary != nil && cfg.Artifacts.Primary.Driver != source.DriverLocal {
		primary = artifact.NewBreaker(primary, cfg.Artifacts.Breaker, logger)
	}

	models, err := modelstore.New(primary, fallback, cfg.Artifacts.Names, logger)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	return models, closeAll, nil
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

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
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
