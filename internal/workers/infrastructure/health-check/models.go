// internal/workers/infrastructure/health-check/models.go
package healthcheck

// ServiceInfo is served at GET /.
type ServiceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse is served at GET /health.
type HealthResponse struct {
	OK        bool    `json:"ok"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime"` // seconds
	Timestamp string  `json:"timestamp"`
}

// ReadyResponse is served at GET /ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
