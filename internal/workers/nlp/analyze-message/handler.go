package analyzemessage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap/zapcore"

	apperrors "helpro-nlp/internal/common/errors"
	"helpro-nlp/internal/common/logger"
	"helpro-nlp/internal/common/metrics"
	"helpro-nlp/internal/common/observability"
	"helpro-nlp/internal/common/validation"
	"helpro-nlp/internal/nlp"
)

const (
	TaskType = "analyze-message"
	Route    = "/nlp/analyze"
)

// maxBodyBytes caps the request body; a 1000 character message fits many
// times over.
const maxBodyBytes = 64 << 10

// Cache is the optional result cache.
type Cache interface {
	Get(ctx context.Context, hint nlp.Locale, message string) (*nlp.AnalysisResult, bool, error)
	Set(ctx context.Context, hint nlp.Locale, message string, result nlp.AnalysisResult) error
}

type Handler struct {
	config   *Config
	analyzer *nlp.Analyzer
	schema   *validation.Schema
	cache    Cache
	obs      *observability.Observability
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

type Option func(*Handler)

func WithCache(c Cache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithObservability(o *observability.Observability) Option {
	return func(h *Handler) { h.obs = o }
}

func WithErrorHandler(e *apperrors.ErrorHandler) Option {
	return func(h *Handler) { h.errors = e }
}

func NewHandler(config *Config, analyzer *nlp.Analyzer, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		config:   config,
		analyzer: analyzer,
		schema:   validation.MustCompile(inputSchema(config.MaxMessageLength)),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.errors == nil {
		h.errors = apperrors.NewErrorHandler(h.logger).OnError(func(code apperrors.ErrorCode) {
			metrics.AnalysisErrors.WithLabelValues(string(code)).Inc()
		})
	}
	return h
}

// Handle serves POST /nlp/analyze.
func (h *Handler) Handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		h.errors.HandleHTTPError(c, apperrors.NewInvalidRequestError(err.Error(),
			apperrors.FieldError{Field: validation.RootField, Message: "unreadable body", Code: "invalid_body"}))
		return
	}

	input, err := h.parseInput(body)
	if err != nil {
		h.errors.HandleHTTPError(c, err)
		return
	}

	output, err := h.Execute(c.Request.Context(), input)
	if err != nil {
		h.errors.HandleHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

// parseInput validates the raw body against the schema and decodes it.
func (h *Handler) parseInput(body []byte) (*Input, error) {
	result := h.schema.ValidateBytes(body)
	if !result.Valid {
		return nil, h.validationError(result, body)
	}

	var input Input
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	return &input, nil
}

func (h *Handler) validationError(result *validation.ValidationResult, body []byte) error {
	fields := make([]apperrors.FieldError, len(result.Errors))
	for i, e := range result.Errors {
		fields[i] = apperrors.FieldError{Field: e.Field, Message: e.Message, Code: e.Code}
	}

	// best effort, only used to fill in error details
	var probe struct {
		Message string `json:"message"`
		Locale  string `json:"locale"`
	}
	_ = json.Unmarshal(body, &probe)

	for _, e := range result.Errors {
		switch {
		case e.Field == "message" && e.Code == "string_lte":
			return apperrors.NewMessageTooLongError(len([]rune(probe.Message)), h.config.MaxMessageLength)
		case e.Field == "locale" && e.Code == "enum":
			return apperrors.NewUnsupportedLocaleError(probe.Locale)
		}
	}
	return apperrors.NewInvalidRequestError(fmt.Sprintf("%d invalid field(s)", len(fields)), fields...)
}

// Execute analyzes one validated request.
func (h *Handler) Execute(ctx context.Context, input *Input) (output *Output, err error) {
	if n := len([]rune(input.Message)); n == 0 {
		return nil, apperrors.NewInvalidRequestError("message is empty",
			apperrors.FieldError{Field: "message", Message: "must not be empty", Code: "string_gte"})
	} else if n > h.config.MaxMessageLength {
		return nil, apperrors.NewMessageTooLongError(n, h.config.MaxMessageLength)
	}

	hint := h.config.DefaultLocale
	if input.Locale != nil {
		hint = nlp.Locale(*input.Locale)
		if !hint.Valid() {
			return nil, apperrors.NewUnsupportedLocaleError(*input.Locale)
		}
	}

	start := time.Now()
	metrics.InflightRequests.Inc()
	defer metrics.InflightRequests.Dec()

	ctx, span := h.obs.StartSpan(ctx, "nlp.analyze", attribute.String("locale_hint", string(hint)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewAnalysisFailedError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, "analysis panicked")
			output = nil
		}
	}()

	if res, ok := h.lookup(ctx, hint, input.Message); ok {
		res.RequestID = input.RequestID
		h.record(ctx, res, input.Message, time.Since(start), true)
		return res, nil
	}

	analysis := h.analyzer.AnalyzeDetailed(ctx, nlp.Request{
		Message:    input.Message,
		LocaleHint: hint,
		RequestID:  input.RequestID,
	})
	if analysis.SemanticErr != nil {
		h.logger.Warn("semantic matcher failed", map[string]interface{}{
			"error":     analysis.SemanticErr.Error(),
			"requestId": deref(input.RequestID),
		})
	}

	res := analysis.Result
	h.store(ctx, hint, input.Message, res)

	span.SetAttributes(
		attribute.String("locale", string(res.Language)),
		attribute.String("intent", string(res.Intent)),
		attribute.String("category", res.CategoryName()),
	)
	h.record(ctx, &res, input.Message, time.Since(start), false)

	if h.logger.Enabled(zapcore.DebugLevel) {
		h.logger.Debug("analysis details", map[string]interface{}{
			"requestId":  deref(input.RequestID),
			"normalized": analysis.Normalized,
			"detected":   string(analysis.Detected),
			"keyword":    analysis.IntentMatch.Keyword,
			"categoryKw": analysis.Category.Keyword,
			"result":     res,
		})
	}

	return &res, nil
}

func (h *Handler) lookup(ctx context.Context, hint nlp.Locale, message string) (*nlp.AnalysisResult, bool) {
	if h.cache == nil {
		return nil, false
	}
	res, ok, err := h.cache.Get(ctx, hint, message)
	if err != nil {
		metrics.CacheEvents.WithLabelValues(metrics.CacheError).Inc()
		h.logger.Warn("cache lookup failed", map[string]interface{}{
			"error": apperrors.NewCacheUnavailableError("get", err).Error(),
		})
		return nil, false
	}
	if !ok {
		metrics.CacheEvents.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, false
	}
	metrics.CacheEvents.WithLabelValues(metrics.CacheHit).Inc()
	return res, true
}

func (h *Handler) store(ctx context.Context, hint nlp.Locale, message string, res nlp.AnalysisResult) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, hint, message, res); err != nil {
		metrics.CacheEvents.WithLabelValues(metrics.CacheError).Inc()
		h.logger.Warn("cache store failed", map[string]interface{}{
			"error": apperrors.NewCacheUnavailableError("set", err).Error(),
		})
		return
	}
	metrics.CacheEvents.WithLabelValues(metrics.CacheStore).Inc()
}

func (h *Handler) record(ctx context.Context, res *nlp.AnalysisResult, message string, elapsed time.Duration, cached bool) {
	metrics.AnalysisRequests.WithLabelValues(string(res.Intent), string(res.Language)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(res.Intent)).Observe(elapsed.Seconds())
	h.obs.RecordAnalysis(ctx, string(res.Intent), string(res.Language), elapsed)

	fields := map[string]interface{}{
		"requestId":  deref(res.RequestID),
		"locale":     string(res.Language),
		"intent":     string(res.Intent),
		"category":   res.CategoryName(),
		"confidence": res.Confidence,
		"cached":     cached,
		"durationMs": float64(elapsed.Microseconds()) / 1000,
	}
	if h.config.LogMessages {
		fields["message"] = message
	}
	h.logger.Info("message analyzed", fields)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
