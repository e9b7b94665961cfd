// Package nlpclient calls the Helpro NLP service's analyze endpoint with a
// per-call timeout, optional retries and a circuit breaker.
package nlpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "helpro-nlp/internal/common/errors"
	commonhttp "helpro-nlp/internal/common/http"
	"helpro-nlp/internal/common/logger"
)

const (
	DefaultTimeout = 1200 * time.Millisecond
	analyzePath    = "/nlp/analyze"
)

var (
	// ErrDisabled is returned when no base URL is configured.
	ErrDisabled = errors.New("nlp client disabled: no base url")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("nlp circuit open")
	// ErrInvalidResponse means the service answered without a string intent.
	ErrInvalidResponse = errors.New("invalid nlp response")
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// ConfigFromEnv reads NLP_URL and NLP_TIMEOUT_MS.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL: strings.TrimRight(os.Getenv("NLP_URL"), "/"),
		Timeout: DefaultTimeout,
	}
	if v := os.Getenv("NLP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

type Entities struct {
	Location *string `json:"location"`
	Timing   *string `json:"timing"`
	Budget   *string `json:"budget"`
	Hours    *int    `json:"hours"`
	Items    *int    `json:"items"`
	Rooms    *int    `json:"rooms"`
}

type KBHit struct {
	Matched    bool    `json:"matched"`
	Category   *string `json:"category"`
	AnswerKey  *string `json:"answer_key"`
	Confidence float64 `json:"confidence"`
}

// Response is the analyze endpoint's body.
type Response struct {
	Language   string   `json:"language"`
	Intent     string   `json:"intent"`
	Category   *string  `json:"category"`
	Entities   Entities `json:"entities"`
	KBHit      *KBHit   `json:"kb_hit"`
	Confidence float64  `json:"confidence"`
	RequestID  *string  `json:"request_id"`
}

type request struct {
	Message   string  `json:"message"`
	Locale    string  `json:"locale"`
	RequestID *string `json:"request_id"`
}

type Client struct {
	config  Config
	http    *commonhttp.Client
	breaker *Breaker
	logger  logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. an httptest
// server's.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = commonhttp.NewClientWith(c) }
}

func WithBreaker(b *Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

func WithLogger(l logger.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(config Config, opts ...Option) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config:  config,
		http:    commonhttp.NewClient(0),
		breaker: NewBreaker(DefaultFailureThreshold, DefaultResetTimeout),
		logger:  logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(map[string]interface{}{"service": "nlpClient"})
	return c
}

func (c *Client) Enabled() bool { return c.config.BaseURL != "" }

// Status reports the circuit breaker state.
func (c *Client) Status() Status { return c.breaker.Status() }

// Analyze sends one message for analysis. locale defaults to "en"; an empty
// requestID is sent as null.
func (c *Client) Analyze(ctx context.Context, message, locale, requestID string) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if locale == "" {
		locale = "en"
	}

	ticket, err := c.breaker.Allow()
	if err != nil {
		st := c.breaker.Status()
		c.logger.Warn("circuit breaker open, skipping nlp call", map[string]interface{}{
			"requestId":     requestID,
			"nextAttemptIn": time.Until(st.NextAttempt).String(),
		})
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, apperrors.NewCircuitOpenError(st.NextAttempt))
	}

	body := request{Message: message, Locale: locale}
	if requestID != "" {
		body.RequestID = &requestID
	}
	headers := map[string]string{"X-Request-ID": requestID}

	c.logger.Info("calling nlp service", map[string]interface{}{
		"requestId": requestID,
		"locale":    locale,
	})

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				ticket.Release()
				return nil, ctx.Err()
			}
		}

		resp, err := c.call(ctx, headers, body)
		if err == nil {
			ticket.Success()
			c.logger.Info("nlp response received", map[string]interface{}{
				"requestId":  requestID,
				"intent":     resp.Intent,
				"category":   resp.Category,
				"confidence": resp.Confidence,
			})
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			ticket.Release()
			return nil, ctx.Err()
		}
		if !retryable(err) {
			break
		}
	}

	c.logger.Error("nlp call failed", map[string]interface{}{
		"requestId": requestID,
		"isTimeout": apperrors.HasCode(lastErr, apperrors.ErrCodeNLPServiceTimeout),
		"error":     lastErr.Error(),
	})
	if ticket.Failure() {
		st := c.breaker.Status()
		c.logger.Warn("circuit breaker opened after consecutive failures", map[string]interface{}{
			"failureCount": st.FailureCount,
			"resetIn":      time.Until(st.NextAttempt).String(),
		})
	}
	return nil, lastErr
}

// call makes a single attempt bounded by the configured timeout.
func (c *Client) call(ctx context.Context, headers map[string]string, body request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var resp Response
	err := c.http.PostJSON(attemptCtx, c.config.BaseURL+analyzePath, headers, body, &resp)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewNLPServiceTimeoutError(c.config.Timeout)
		}
		return nil, apperrors.NewNLPServiceUnavailableError(err)
	}
	if resp.Intent == "" {
		return nil, apperrors.NewNLPServiceUnavailableError(ErrInvalidResponse)
	}
	return &resp, nil
}

// retryable reports whether another attempt may help: transport errors and
// 5xx responses. Timeouts and invalid bodies are final.
func retryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) || errors.Is(err, commonhttp.ErrDecodeResponse) ||
		apperrors.HasCode(err, apperrors.ErrCodeNLPServiceTimeout) {
		return false
	}
	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
