package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/llm"
	"docqa/internal/logger"
	"docqa/internal/retry"
	"docqa/internal/session"
)

const (
	redisConnectAttempts = 3
	redisConnectBackoff  = 200 * time.Millisecond
)

// Deps bundles the runtime dependencies of the server.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Cache    cache.Cache
	Sessions *session.Registry
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if err := checkProvider(cfg); err != nil {
		return Deps{}, err
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return New(cfg, log, c), nil
}

// New assembles Deps from already-built parts.
func New(cfg config.Config, log *slog.Logger, c cache.Cache) Deps {
	return Deps{
		Config:   cfg,
		Log:      log,
		Cache:    c,
		Sessions: session.NewRegistry(cfg.SessionTTL, ControllerFactory(cfg, log, c, llm.New)),
	}
}

// ControllerFactory returns the constructor the session registry uses for new
// browser sessions.
func ControllerFactory(cfg config.Config, log *slog.Logger, c cache.Cache, newClient llm.Factory) func() *session.Controller {
	settings := llm.Settings{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	}
	return func() *session.Controller {
		return session.NewController(session.Options{
			Settings:  settings,
			EnvAPIKey: cfg.APIKey,
			NewClient: newClient,
			Cache:     c,
			CacheTTL:  cfg.CacheTTL,
			Log:       log,
		})
	}
}

func checkProvider(cfg config.Config) error {
	switch cfg.LLMProvider {
	case llm.ProviderGemini, llm.ProviderOpenAI:
		return nil
	default:
		return fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: %s, %s)", cfg.LLMProvider, llm.ProviderGemini, llm.ProviderOpenAI)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		var rc *cache.RedisCache
		err := retry.Do(context.Background(), redisConnectAttempts, redisConnectBackoff, func() error {
			var err error
			rc, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
			return err
		})
		if err != nil {
			log.Warn("redis unavailable, extraction cache disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache(), nil
		}
		log.Info("using Redis extraction cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return rc, nil
	case "none", "":
		log.Info("extraction cache disabled")
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: none, redis)", cfg.CacheProvider)
	}
}
