// internal/workers/nlp/analyze-message/config.go
package analyzemessage

import (
	"helpro-nlp/internal/common/config"
	"helpro-nlp/internal/nlp"
)

type Config struct {
	MaxMessageLength int
	DefaultLocale    nlp.Locale
	// LogMessages adds the raw message text to request logs.
	LogMessages bool
}

func LoadConfig() *Config {
	return &Config{
		MaxMessageLength: 1000,
		DefaultLocale:    nlp.DefaultLocale,
	}
}

// ConfigFrom derives the handler config from the service's nlp section.
func ConfigFrom(c config.NLPConfig) *Config {
	cfg := LoadConfig()
	if c.MaxMessageLength > 0 {
		cfg.MaxMessageLength = c.MaxMessageLength
	}
	if loc := nlp.Locale(c.DefaultLocale); loc.Valid() {
		cfg.DefaultLocale = loc
	}
	cfg.LogMessages = c.StoreRequests
	return cfg
}
