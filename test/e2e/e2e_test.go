// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpro-nlp/internal/common/config"
	"helpro-nlp/internal/common/database"
	"helpro-nlp/internal/common/logger"
	"helpro-nlp/internal/common/observability"
	"helpro-nlp/internal/nlp"
	"helpro-nlp/internal/server"
	hc "helpro-nlp/internal/workers/infrastructure/health-check"
	am "helpro-nlp/internal/workers/nlp/analyze-message"
	"helpro-nlp/pkg/nlpclient"
)

type stack struct {
	srv    *httptest.Server
	redis  *miniredis.Miniredis
	client *nlpclient.Client
}

// startStack wires the service the way cmd/nlp-service does, backed by an
// in-memory redis, and returns a client pointed at it.
func startStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadFromFile("../../configs/config.yaml")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cfg.Cache.Enabled = true
	cfg.Database.Redis.Address = mr.Addr()

	log := logger.NewTestLogger(t)

	obs, err := observability.New("helpro-nlp-e2e", observability.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	cache := database.NewAnalysisCache(rdb.Client, cfg.Cache.KeyPrefix, config.GetDuration(cfg.Cache.TTL))

	analyzer := nlp.NewAnalyzer(
		nlp.WithIntentThreshold(cfg.NLP.IntentThreshold),
		nlp.WithCategoryThreshold(cfg.NLP.CategoryThreshold),
	)

	health := hc.NewHandler(hc.LoadConfig(), log)
	health.AddCheck("cache", cache.Ping)

	analyze := am.NewHandler(am.ConfigFrom(cfg.NLP), analyzer, log,
		am.WithCache(cache),
		am.WithObservability(obs),
	)

	router, err := server.NewRouter(cfg, server.Handlers{Analyze: analyze, Health: health}, log)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client := nlpclient.New(nlpclient.Config{BaseURL: srv.URL, Timeout: 2 * time.Second},
		nlpclient.WithHTTPClient(srv.Client()),
		nlpclient.WithLogger(log),
	)
	return &stack{srv: srv, redis: mr, client: client}
}

// ==========================
// Analyze through the client
// ==========================

func TestE2E_Analyze(t *testing.T) {
	s := startStack(t)

	tests := []struct {
		name     string
		message  string
		locale   string
		language string
		intent   string
		category string
		location string
		timing   string
	}{
		{
			name: "english booking", message: "I need cleaning in Stockholm tomorrow", locale: "en",
			language: "en", intent: "BOOK_SERVICE", category: "cleaning", location: "Stockholm", timing: "tomorrow",
		},
		{
			name: "swedish booking", message: "Jag behöver städning i Stockholm imorgon", locale: "en",
			language: "sv", intent: "BOOK_SERVICE", category: "cleaning", location: "Stockholm", timing: "imorgon",
		},
		{
			name: "persian booking", message: "سلام، نیاز به نظافت دارم", locale: "sv",
			language: "fa", intent: "BOOK_SERVICE", category: "cleaning",
		},
		{
			name: "small talk", message: "hello there", locale: "en",
			language: "en", intent: "UNKNOWN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.client.Analyze(testContext(t), tt.message, tt.locale, "e2e-"+tt.name)
			require.NoError(t, err)

			assert.Equal(t, tt.language, res.Language)
			assert.Equal(t, tt.intent, res.Intent)
			if tt.category == "" {
				assert.Nil(t, res.Category)
			} else {
				require.NotNil(t, res.Category)
				assert.Equal(t, tt.category, *res.Category)
			}
			if tt.location != "" {
				require.NotNil(t, res.Entities.Location)
				assert.Equal(t, tt.location, *res.Entities.Location)
			}
			if tt.timing != "" {
				require.NotNil(t, res.Entities.Timing)
				assert.Equal(t, tt.timing, *res.Entities.Timing)
			}
			assert.Nil(t, res.KBHit)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
			require.NotNil(t, res.RequestID)
			assert.Equal(t, "e2e-"+tt.name, *res.RequestID)
		})
	}

	assert.Equal(t, nlpclient.StateClosed, s.client.Status().State)
}

func TestE2E_CachedResultKeepsRequestID(t *testing.T) {
	s := startStack(t)
	ctx := testContext(t)

	first, err := s.client.Analyze(ctx, "I need cleaning in Stockholm tomorrow", "en", "first")
	require.NoError(t, err)
	assert.Len(t, s.redis.Keys(), 1)

	second, err := s.client.Analyze(ctx, "I need cleaning in Stockholm tomorrow", "en", "second")
	require.NoError(t, err)
	assert.Len(t, s.redis.Keys(), 1)

	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, first.Category, second.Category)
	require.NotNil(t, second.RequestID)
	assert.Equal(t, "second", *second.RequestID)
}

func TestE2E_ValidationIsNotRetried(t *testing.T) {
	s := startStack(t)

	_, err := s.client.Analyze(testContext(t), "hello", "fr", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, nlpclient.ErrCircuitOpen))
	assert.Equal(t, 1, s.client.Status().FailureCount)
}

// ==========================
// Health endpoints
// ==========================

func TestE2E_Health(t *testing.T) {
	s := startStack(t)

	for _, path := range []string{"/", "/health", "/ready"} {
		resp, err := s.srv.Client().Get(s.srv.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	s.redis.Close()
	resp, err := s.srv.Client().Get(s.srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is
// cancelled just before the test's Cleanup-registered functions run.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
