package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. Everything comes from the environment.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// LLM
	APIKey            string        `env:"API_KEY"`
	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"gemini"` // "gemini" or "openai"
	LLMModel          string        `env:"LLM_MODEL"`                        // empty means the provider default
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"2m"`

	// Extraction cache
	CacheProvider string        `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
