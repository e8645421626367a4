package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"timeback/internal/cleanupcache"
	"timeback/internal/config"
	"timeback/internal/logging"
	"timeback/internal/mistakes"
	"timeback/internal/pipeline"
	"timeback/internal/render"
	"timeback/internal/services/llm"
	"timeback/internal/supervisor"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool
	registry     *supervisor.Registry

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool, registry *supervisor.Registry) *commandContext {
	if registry == nil {
		registry = supervisor.NewRegistry()
	}
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
		registry:     registry,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) supervisor(logger *slog.Logger) *supervisor.Supervisor {
	return supervisor.New(c.registry, supervisor.WithLogger(logger))
}

func (c *commandContext) renderer(cfg *config.Config, logger *slog.Logger) *render.Renderer {
	return render.New(cfg.Encoder, c.supervisor(logger), render.WithLogger(logger))
}

// engine builds the pipeline. The returned closer releases the cleanup cache.
func (c *commandContext) engine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Engine, func(), error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithSupervisor(c.supervisor(logger)),
	}
	closer := func() {}

	if cfg.Mistakes.Cleanup {
		cleaner, closeCache, err := c.cleaner(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if cleaner != nil {
			opts = append(opts, pipeline.WithCleaner(cleaner))
			closer = closeCache
		}
	}
	return pipeline.New(cfg.Encoder, opts...), closer, nil
}

func (c *commandContext) cleaner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (mistakes.Cleaner, func(), error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "cleanup detector disabled", "cleanup_disabled",
			logging.String("reason", "llm api_key not configured"),
			logging.String(logging.FieldImpact, "mistakes are found by rules and acoustics only"),
		)
		return nil, func() {}, nil
	}
	client := newLLMClient(cfg)
	var cleaner mistakes.Cleaner = mistakes.NewLLMCleaner(client)
	if !cfg.Mistakes.CleanupCache {
		return cleaner, func() {}, nil
	}
	store, err := cleanupcache.Open(cfg.CleanupCachePath())
	if err != nil {
		if errors.Is(err, cleanupcache.ErrSchemaMismatch) {
			return nil, nil, err
		}
		logging.WarnWithContext(logging.WithContext(ctx, logger), "cleanup cache unavailable", "cleanup_cache_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "every chunk is sent to the cleanup service"),
		)
		return cleaner, func() {}, nil
	}
	return cleanupcache.NewCachingCleaner(store, cleaner, client.Model(), logger), func() { _ = store.Close() }, nil
}

func newLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
