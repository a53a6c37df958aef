package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/llm"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/taxonomy"
	"github.com/ppiankov/clausewise/internal/worker"
)

// app holds everything a command needs to analyze documents
type app struct {
	cfg     *model.Config
	logger  *zap.Logger
	tax     *taxonomy.Taxonomy
	cache   cache.Cache
	limiter *worker.Limiter
	service *pipeline.Service
}

// buildApp wires taxonomy, cache, rate limiter, AI advisor and service
// from cfg. Taxonomy and provider problems are ConfigurationErrors.
func buildApp(cfg *model.Config, logger *zap.Logger) (*app, error) {
	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	opts := []pipeline.ServiceOption{
		pipeline.WithCache(c),
		pipeline.WithServiceLogger(logger),
	}

	if cfg.LLM.Provider != "" {
		advisor, err := llm.NewAdvisor(
			llm.ConfigFromModel(cfg.LLM, cfg.HTTP),
			llm.WithLimiter(limiter),
			llm.WithLogger(logger),
		)
		if err != nil {
			closeCache(c, logger)
			return nil, err
		}
		opts = append(opts, pipeline.WithAdvisor(advisor))
		logger.Debug("llm provider configured", zap.String("provider", advisor.ProviderName()))
	}

	analyzer := pipeline.NewAnalyzer(tax, *cfg)
	logger.Debug("taxonomy loaded",
		zap.String("source", tax.Source()),
		zap.Int("categories", len(tax.Categories())))

	return &app{
		cfg:     cfg,
		logger:  logger,
		tax:     tax,
		cache:   c,
		limiter: limiter,
		service: pipeline.NewService(analyzer, cfg, opts...),
	}, nil
}

// Close releases the cache backend
func (a *app) Close() {
	closeCache(a.cache, a.logger)
	_ = a.logger.Sync()
}

func closeCache(c cache.Cache, logger *zap.Logger) {
	if closer, ok := c.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("close cache", zap.Error(err))
		}
	}
}

// setup loads config, builds the logger and the app
func setup(apply func(*model.Config)) (*app, error) {
	cfg, err := loadConfig(apply)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a, err := buildApp(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}
