package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/schoolmate"
	"github.com/hupe1980/schoolmate/cache"
	"github.com/hupe1980/schoolmate/config"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/model"
	anthropicmodel "github.com/hupe1980/schoolmate/model/anthropic"
	openaimodel "github.com/hupe1980/schoolmate/model/openai"
	"github.com/hupe1980/schoolmate/storage/sqlite"
)

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}
	return cfg, nil
}

// newModel builds the configured reasoning engine wrapped with retries.
func newModel(cfg config.Config) (model.Model, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", cfg.ModelProvider)
	}

	var m model.Model
	switch cfg.ModelProvider {
	case config.ProviderAnthropic:
		m = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
		})
	case config.ProviderOpenAI:
		m = openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.ModelProvider)
	}

	return model.WithRetry(m, func(o *model.RetryOptions) {
		o.MaxAttempts = cfg.ModelRetries
	}), nil
}

// deps owns the process wide dependencies.
type deps struct {
	app     *schoolmate.App
	logger  logging.Logger
	metrics *metrics.Metrics
	cache   cache.Cache
	closers []io.Closer
}

func (d *deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

const redisPingTimeout = 2 * time.Second

// newDeps opens the store and cache and assembles the App.
func newDeps(ctx context.Context, cfg config.Config, logOut io.Writer) (*deps, error) {
	logger := cfg.Logger(logOut)

	m, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	d := &deps{
		logger:  logger,
		metrics: metrics.New(prometheus.NewRegistry()),
		closers: []io.Closer{store},
	}

	var c cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("cache.unavailable", "error", err.Error())
			_ = rc.Close()
		} else {
			d.closers = append(d.closers, rc)
			c = rc
		}
	}

	d.cache = c

	app, err := schoolmate.New(m, func(o *schoolmate.Options) {
		o.Store = store
		o.Cache = c
		o.ModelTimeout = cfg.ModelTimeout
		o.CapabilityTimeout = cfg.CapabilityTimeout
		o.MaxParallel = cfg.MaxParallel
		o.MismatchPolicy = cfg.MismatchPolicy()
		o.UnscopedPolicy = cfg.UnscopedPolicy()
		o.Logger = logger
		o.Metrics = d.metrics
	})
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.app = app
	return d, nil
}
