package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "MAX_UPLOAD_SIZE", "SESSION_TTL", "API_KEY",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "GENERATION_TIMEOUT",
		"CACHE_PROVIDER", "REDIS_ADDR", "REDIS_PASSWORD", "CACHE_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(10485760)},
		{"SessionTTL", cfg.SessionTTL, time.Hour},
		{"APIKey", cfg.APIKey, ""},
		{"LLMProvider", cfg.LLMProvider, "gemini"},
		{"LLMModel", cfg.LLMModel, ""},
		{"GenerationTimeout", cfg.GenerationTimeout, 2 * time.Minute},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"CacheTTL", cfg.CacheTTL, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("SESSION_TTL", "15m")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("expected API key from env, got %q", cfg.APIKey)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("expected session ttl 15m, got %v", cfg.SessionTTL)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("CACHE_PROVIDER", "redis")

	cfg := Load()

	if cfg.LLMProvider != "openai" {
		t.Errorf("expected LLM provider 'openai', got %s", cfg.LLMProvider)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("expected LLM model 'gpt-4o-mini', got %s", cfg.LLMModel)
	}
	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
}
