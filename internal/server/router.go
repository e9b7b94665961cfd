// Package server assembles the HTTP surface of the service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"helpro-nlp/internal/common/config"
	apperrors "helpro-nlp/internal/common/errors"
	"helpro-nlp/internal/common/logger"
	analyzemessage "helpro-nlp/internal/workers/nlp/analyze-message"
	healthcheck "helpro-nlp/internal/workers/infrastructure/health-check"
)

type Handlers struct {
	Analyze *analyzemessage.Handler
	Health  *healthcheck.Handler
	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler
}

// DefaultMetricsHandler exposes the default Prometheus registry.
func DefaultMetricsHandler() http.Handler { return promhttp.Handler() }

func NewRouter(cfg *config.Config, h Handlers, log logger.Logger) (*gin.Engine, error) {
	corsMiddleware, err := CORS(cfg.CORS)
	if err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(Metrics())
	r.Use(corsMiddleware)

	r.GET("/", h.Health.Info)
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.POST(analyzemessage.Route, h.Analyze.Handle)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	errs := apperrors.NewErrorHandler(log)
	r.NoRoute(func(c *gin.Context) {
		errs.HandleHTTPError(c, apperrors.NewNotFoundError(c.Request.URL.Path))
	})
	return r, nil
}

func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
}

// Run serves until ctx is done, then shuts the server down within
// shutdownTimeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
