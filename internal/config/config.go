// Package config loads daemon configuration from the environment and
// sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all daemon settings.
type Config struct {
	// Speech services
	TranscribeURL string `env:"JANA_TRANSCRIBE_URL" envDefault:"http://localhost:8570"`
	TTSURL        string `env:"JANA_TTS_URL" envDefault:"http://localhost:8880"`
	Speaker       string `env:"JANA_SPEAKER" envDefault:"af_bella"`

	// Agent relay
	AgentURL          string `env:"JANA_AGENT_URL" envDefault:"http://localhost:8571"`
	AgentAssemblyMode string `env:"JANA_AGENT_ASSEMBLY" envDefault:"replace"`

	// Conversation behavior
	AutoRestart bool `env:"JANA_AUTO_RESTART" envDefault:"true"`

	// Storage
	KVPath      string `env:"JANA_KV_PATH" envDefault:"jana.db"`
	DatabaseURL string `env:"JANA_DATABASE_URL"`

	// Identity service
	WorkOSAPIKey   string `env:"WORKOS_API_KEY"`
	WorkOSClientID string `env:"WORKOS_CLIENT_ID"`

	// Switch monitoring
	SwitchInsecureTLS bool `env:"JANA_SWITCH_INSECURE_TLS" envDefault:"true"`

	// Logging
	LogFile  string `env:"JANA_LOG_FILE" envDefault:"jana.log"`
	LogLevel string `env:"JANA_LOG_LEVEL" envDefault:"INFO"`
}

// Load reads .env when present, then parses the environment.
func Load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
