package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/explain"
	"github.com/ppiankov/clausewise/internal/llm"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/privacy"
	"github.com/ppiankov/clausewise/internal/validate"
)

// Request is one document to analyze. Exactly one of Text or URL is used;
// empty Text with no URL is a valid (empty) document.
type Request struct {
	Text     string `json:"text" validate:"excluded_with=URL"`
	URL      string `json:"url" validate:"omitempty,http_url"`
	Language string `json:"language" validate:"omitempty,max=35"`
	Simplify bool   `json:"simplify"`
	AI       bool   `json:"ai"`
	Source   string `json:"-"` // Label for the report; defaults to the URL or "request"
}

// Service wraps the analyzer with input validation, document fetching,
// PII scrubbing, result caching and the optional AI merge
type Service struct {
	analyzer *Analyzer
	fetcher  *Fetcher
	scrubber *privacy.Scrubber
	cache    cache.Cache
	group    singleflight.Group
	advisor  *llm.Advisor
	config   *model.Config
	logger   *zap.Logger
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithCache sets the result cache (default: no caching)
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithAdvisor enables the external AI assessment for requests that ask for it
func WithAdvisor(a *llm.Advisor) ServiceOption {
	return func(s *Service) {
		s.advisor = a
	}
}

// WithFetcher replaces the URL fetcher
func WithFetcher(f *Fetcher) ServiceOption {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithServiceLogger sets the service logger
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service around analyzer
func NewService(analyzer *Analyzer, cfg *model.Config, opts ...ServiceOption) *Service {
	s := &Service{
		analyzer: analyzer,
		scrubber: privacy.NewScrubber(cfg.Privacy.Enabled),
		cache:    cache.Nop{},
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = NewFetcher(cfg.HTTP, s.logger)
	}
	return s
}

// Analyzer returns the deterministic core behind the service
func (s *Service) Analyzer() *Analyzer {
	return s.analyzer
}

// Analyze validates, fetches (for URL requests), scrubs and analyzes one
// document. Only invalid input and fetch failures return errors; a failing
// AI provider becomes a warning on the report.
func (s *Service) Analyze(ctx context.Context, req Request) (*model.Report, error) {
	start := time.Now()

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" {
		lang = s.config.Output.Language
	}

	text := req.Text
	source := req.Source
	if req.URL != "" {
		doc, err := s.fetcher.FetchDocument(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		text = doc.Text
		if source == "" {
			source = req.URL
		}
		s.logger.Debug("fetched document",
			zap.String("url", req.URL),
			zap.String("adapter", doc.Adapter),
			zap.Int("bytes", len(text)))
	}
	if source == "" {
		source = "request"
	}

	if err := validate.Text(text, s.config.Input.MaxDocumentBytes); err != nil {
		return nil, err
	}

	scrubbed, pii := s.scrubber.Process(text)
	result, cached := s.analyzeCached(ctx, scrubbed, lang)

	report := &model.Report{
		ID:         uuid.NewString(),
		Source:     source,
		AnalyzedAt: time.Now().UTC(),
		Result:     result,
		PII:        pii,
		Cached:     cached,
		Principles: model.DefaultPrinciples(),
	}

	if req.AI && s.advisor != nil && s.advisor.IsEnabled() {
		assessment := s.advisor.Assess(ctx, scrubbed, lang)
		if assessment != nil {
			if assessment.Enabled && !assessment.Partial.IsNeutral() {
				report.Result = s.analyzer.Merge(result, assessment.Partial)
				assessment.Merged = true
			}
			report.AI = assessment
		}
	}

	if req.Simplify {
		report.Simplified = explain.Simplify(scrubbed)
	}
	report.Audio = explain.AudioScript(report.Result, lang)

	s.logger.Info("analyzed document",
		zap.String("id", report.ID),
		zap.String("source", source),
		zap.Float64("risk_score", report.Result.RiskScore),
		zap.String("risk_level", string(report.Result.RiskLevel)),
		zap.Int("clauses", len(report.Result.Clauses)),
		zap.Int("pii", pii.Total),
		zap.Bool("cached", cached),
		zap.Bool("ai_merged", report.AI != nil && report.AI.Merged),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}

// analyzeCached returns the cached result for (text, lang) or computes it.
// Identical concurrent requests share one computation.
func (s *Service) analyzeCached(ctx context.Context, text, lang string) (*model.AnalysisResult, bool) {
	key := cache.CacheKey(text, lang)

	if data, ok := s.cache.Get(ctx, key); ok {
		var result model.AnalysisResult
		err := json.Unmarshal(data, &result)
		if err == nil {
			return &result, true
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		result := s.analyzer.Analyze(text, lang)

		data, err := json.Marshal(result)
		if err != nil {
			s.logger.Warn("encode result for cache", zap.Error(err))
			return result, nil
		}
		if err := s.cache.Set(ctx, key, data, 0); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return result, nil
	})

	return v.(*model.AnalysisResult), false
}
