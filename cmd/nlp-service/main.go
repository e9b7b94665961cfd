// cmd/nlp-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"helpro-nlp/internal/common/config"
	"helpro-nlp/internal/common/database"
	apperrors "helpro-nlp/internal/common/errors"
	"helpro-nlp/internal/common/logger"
	"helpro-nlp/internal/common/observability"
	"helpro-nlp/internal/nlp"
	"helpro-nlp/internal/server"

	am "helpro-nlp/internal/workers/nlp/analyze-message"
	hc "helpro-nlp/internal/workers/infrastructure/health-check"
)

// connectRedis builds a client and pings it. A client that fails the ping is
// closed so retries do not leak connection pools.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*database.RedisClient, error) {
	client, err := database.NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s aborted: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting NLP service...",
		zap.String("service", cfg.String()),
		zap.String("envFile", cfg.EnvFile),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	var obs *observability.Observability
	if cfg.Observability.MetricsEnabled || cfg.Observability.TracingEnabled {
		opts := []observability.Option{observability.AsGlobal()}
		if cfg.Observability.TracingEnabled && cfg.Observability.JaegerEndpoint != "" {
			opts = append(opts, observability.WithJaegerEndpoint(cfg.Observability.JaegerEndpoint))
		}
		obs, err = observability.New(cfg.App.Name, opts...)
		if err != nil {
			zapLog.Fatal("observability init failed", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := obs.Shutdown(shutdownCtx); err != nil {
				zapLog.Error("observability shutdown failed", zap.Error(err))
			}
		}()
	}

	// --- Analyzer ---
	analyzerOpts := []nlp.Option{
		nlp.WithIntentThreshold(cfg.NLP.IntentThreshold),
		nlp.WithCategoryThreshold(cfg.NLP.CategoryThreshold),
	}
	if path := cfg.NLP.KeywordsPath; path != "" {
		tables, err := nlp.LoadTables(path)
		if err != nil {
			zapLog.Fatal("keyword tables rejected", zap.Error(apperrors.NewRegistryInvalidError(path, err)))
		}
		analyzerOpts = append(analyzerOpts, nlp.WithKeywordTables(tables))
		zapLog.Info("keyword tables loaded", zap.String("path", path), zap.Strings("categories", tables.Categories()))
	}
	if cfg.NLP.UseSemantic {
		zapLog.Warn("nlp.use_semantic is set but no semantic matcher is available; running keyword matching only")
	}
	analyzer := nlp.NewAnalyzer(analyzerOpts...)

	// --- Handlers ---
	health := hc.NewHandler(&hc.Config{
		ServiceName:  "Helpro NLP",
		Version:      cfg.App.Version,
		ReadyTimeout: time.Second,
	}, log)

	handlerOpts := []am.Option{am.WithObservability(obs)}

	// --- Init Redis with retry ---
	if cfg.Cache.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			redis, err = connectRedis(ctx, cfg.Database.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		cache := database.NewAnalysisCache(redis.Client, cfg.Cache.KeyPrefix, config.GetDuration(cfg.Cache.TTL))
		handlerOpts = append(handlerOpts, am.WithCache(cache))
		health.AddCheck("cache", cache.Ping)
	}

	analyze := am.NewHandler(am.ConfigFrom(cfg.NLP), analyzer, log, handlerOpts...)

	// --- HTTP Server ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers := server.Handlers{Analyze: analyze, Health: health}
	if cfg.Observability.MetricsEnabled {
		handlers.Metrics = server.DefaultMetricsHandler()
	}
	router, err := server.NewRouter(cfg, handlers, log)
	if err != nil {
		zapLog.Fatal("router setup failed", zap.Error(err))
	}

	srv := server.NewHTTPServer(cfg.Server, router)
	if err := server.Run(ctx, srv, config.GetDuration(cfg.Server.ShutdownTimeout), log); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		return
	}

	zapLog.Info("NLP service stopped gracefully")
}
