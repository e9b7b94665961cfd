// pkg/nlpclient/client_test.go
package nlpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "helpro-nlp/internal/common/errors"
	"helpro-nlp/internal/common/logger"
)

// ==========================
// Test Helpers
// ==========================

const okBody = `{"language":"en","intent":"BOOK_SERVICE","category":"cleaning",
"entities":{"location":"Stockholm","timing":null,"budget":null,"hours":null,"items":null,"rooms":null},
"kb_hit":null,"confidence":1.0,"request_id":"req-1"}`

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config, opts ...Option) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	opts = append([]Option{WithHTTPClient(srv.Client()), WithLogger(logger.NewTestLogger(t))}, opts...)
	return New(cfg, opts...)
}

// statusSequence answers with the given statuses in order, then 200.
func statusSequence(calls *int32, statuses ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}
}

// ==========================
// Analyze
// ==========================

func TestClient_Analyze_Success(t *testing.T) {
	var got request
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/nlp/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		header = r.Header.Get("X-Request-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	resp, err := c.Analyze(context.Background(), "I need cleaning in Stockholm", "sv", "req-1")
	require.NoError(t, err)

	assert.Equal(t, "BOOK_SERVICE", resp.Intent)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "cleaning", *resp.Category)
	require.NotNil(t, resp.Entities.Location)
	assert.Equal(t, "Stockholm", *resp.Entities.Location)
	assert.Nil(t, resp.KBHit)

	assert.Equal(t, "req-1", header)
	assert.Equal(t, "I need cleaning in Stockholm", got.Message)
	assert.Equal(t, "sv", got.Locale)
	require.NotNil(t, got.RequestID)
	assert.Equal(t, "req-1", *got.RequestID)
	assert.Equal(t, StateClosed, c.Status().State)
}

func TestClient_Analyze_Defaults(t *testing.T) {
	var raw map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	_, err := c.Analyze(context.Background(), "hello", "", "")
	require.NoError(t, err)

	assert.Equal(t, "en", raw["locale"])
	assert.Contains(t, raw, "request_id")
	assert.Nil(t, raw["request_id"])
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
}

func TestClient_Analyze_Disabled(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Enabled())

	_, err := c.Analyze(context.Background(), "hello", "en", "")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClient_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		code    apperrors.ErrorCode
		target  error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			code: apperrors.ErrCodeNLPServiceUnavailable,
		},
		{
			name: "validation rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			code: apperrors.ErrCodeNLPServiceUnavailable,
		},
		{
			name: "missing intent",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"language":"en","confidence":0}`))
			},
			code:   apperrors.ErrCodeNLPServiceUnavailable,
			target: ErrInvalidResponse,
		},
		{
			name: "intent not a string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"intent":42}`))
			},
			code: apperrors.ErrCodeNLPServiceUnavailable,
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			code:    apperrors.ErrCodeNLPServiceTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv, Config{Timeout: tt.timeout})
			resp, err := c.Analyze(context.Background(), "hello", "en", "r")

			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), err.Error())
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, 1, c.Status().FailureCount)
		})
	}
}

func TestClient_Analyze_Retries(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantErr    bool
		wantCalls  int32
	}{
		{"no retries by default", []int{503}, 0, true, 1},
		{"recovers after 5xx", []int{503, 502}, 2, false, 3},
		{"gives up after retries", []int{500, 500, 500}, 1, true, 2},
		{"4xx is not retried", []int{400}, 3, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(statusSequence(&calls, tt.statuses...))
			defer srv.Close()

			c := newTestClient(t, srv, Config{MaxRetries: tt.maxRetries})
			_, err := c.Analyze(context.Background(), "hello", "en", "")

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_Analyze_RetriesCountAsOneFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(statusSequence(&calls, 500, 500, 500))
	defer srv.Close()

	c := newTestClient(t, srv, Config{MaxRetries: 2})
	_, err := c.Analyze(context.Background(), "hello", "en", "")
	require.Error(t, err)
	assert.Equal(t, 1, c.Status().FailureCount)
}

// ==========================
// Circuit Breaker
// ==========================

func TestClient_CircuitBreaker(t *testing.T) {
	var calls int32
	healthy := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{}, WithBreaker(newTestBreaker()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Analyze(ctx, "hello", "en", "")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	assert.Equal(t, StateOpen, c.Status().State)

	_, err := c.Analyze(ctx, "hello", "en", "")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCircuitOpen))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	healthy.Store(true)
	require.Eventually(t, func() bool {
		return c.Status().State == StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	resp, err := c.Analyze(ctx, "hello", "en", "")
	require.NoError(t, err)
	assert.Equal(t, "BOOK_SERVICE", resp.Intent)
	assert.Equal(t, Status{State: StateClosed}, c.Status())
}

func TestClient_CallerCancelDoesNotTripBreaker(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the disconnect is only noticed once the body has been read
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, Config{Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Analyze(ctx, "hello", "en", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Status{State: StateClosed}, c.Status())
}

// ==========================
// Config
// ==========================

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NLP_URL", "http://nlp:8000/")
	t.Setenv("NLP_TIMEOUT_MS", "2500")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://nlp:8000", cfg.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)

	t.Setenv("NLP_TIMEOUT_MS", "soon")
	assert.Equal(t, DefaultTimeout, ConfigFromEnv().Timeout)

	t.Setenv("NLP_URL", "")
	assert.False(t, New(ConfigFromEnv()).Enabled())
}
