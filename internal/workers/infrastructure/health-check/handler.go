package healthcheck

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"helpro-nlp/internal/common/logger"
)

const TaskType = "health-check"

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type Handler struct {
	config  *Config
	started time.Time
	now     func() time.Time
	checks  map[string]Check
	logger  logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		started: time.Now(),
		now:     time.Now,
		checks:  make(map[string]Check),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// AddCheck registers a readiness check. Call before serving.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// Info serves GET /.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, ServiceInfo{
		Service:   h.config.ServiceName,
		Version:   h.config.Version,
		Endpoints: []string{"/health", "/nlp/analyze"},
	})
}

// Health serves GET /health. It only reports that the process is up.
func (h *Handler) Health(c *gin.Context) {
	now := h.now()
	uptime := now.Sub(h.started).Seconds()
	c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Version:   h.config.Version,
		Uptime:    math.Round(uptime*100) / 100,
		Timestamp: isoTimestamp(now),
	})
}

// Ready serves GET /ready, running every registered check.
func (h *Handler) Ready(c *gin.Context) {
	if len(h.checks) == 0 {
		c.JSON(http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.ReadyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ready", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			results[name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	c.JSON(code, ReadyResponse{Status: status, Checks: results})
}

// isoTimestamp formats t as a zone-less UTC ISO-8601 string with
// microseconds, dropping the fraction when it is zero.
func isoTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}
