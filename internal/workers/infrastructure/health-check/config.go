// internal/workers/infrastructure/health-check/config.go
package healthcheck

import "time"

type Config struct {
	ServiceName  string
	Version      string
	ReadyTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServiceName:  "Helpro NLP",
		Version:      "1.0.0",
		ReadyTimeout: time.Second,
	}
}
