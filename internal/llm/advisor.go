package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/clausewise/internal/model"
)

const (
	// availabilityTTL is how long an availability check result is trusted
	availabilityTTL = time.Minute

	availabilityCheckTimeout = 10 * time.Second
)

// RateLimiter throttles provider calls; keys are provider names
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Advisor wraps a provider so that its failures become warnings and a
// neutral partial result. It never returns an error from Assess.
type Advisor struct {
	provider Provider
	config   Config
	limiter  RateLimiter
	logger   *zap.Logger

	checks    singleflight.Group
	mu        sync.Mutex
	checkedAt time.Time
	available bool
}

// AdvisorOption customizes an Advisor
type AdvisorOption func(*Advisor)

// WithLimiter throttles provider calls through l
func WithLimiter(l RateLimiter) AdvisorOption {
	return func(a *Advisor) { a.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) AdvisorOption {
	return func(a *Advisor) { a.logger = l }
}

// WithProvider replaces the provider built from config
func WithProvider(p Provider) AdvisorOption {
	return func(a *Advisor) { a.provider = p }
}

// NewAdvisor builds an advisor for config. An unknown provider name or a
// provider missing its credentials is an error; an empty provider name
// gives a disabled advisor.
func NewAdvisor(config Config, opts ...AdvisorOption) (*Advisor, error) {
	a := &Advisor{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.provider != nil {
		return a, nil
	}

	provider, err := NewProvider(config)
	if err != nil {
		return nil, &model.ConfigurationError{Source: "llm", Err: err}
	}
	a.provider = provider
	return a, nil
}

// IsEnabled returns true if a provider is configured
func (a *Advisor) IsEnabled() bool {
	return a != nil && a.provider != nil
}

// ProviderName returns the configured provider name, or ""
func (a *Advisor) ProviderName() string {
	if !a.IsEnabled() {
		return ""
	}
	return a.provider.Name()
}

// Assess asks the provider about text. It returns nil when the advisor is
// disabled. Any failure yields an assessment with a neutral partial result
// and a warning.
func (a *Advisor) Assess(ctx context.Context, text, language string) *model.AIAssessment {
	if !a.IsEnabled() {
		return nil
	}

	name := a.provider.Name()
	if !a.isAvailable(ctx) {
		a.logger.Warn("llm provider not available", zap.String("provider", name))
		return &model.AIAssessment{
			Enabled:  false,
			Provider: name,
			Warnings: []string{fmt.Sprintf("LLM provider '%s' is not available", name)},
		}
	}

	assessment := &model.AIAssessment{
		Enabled:  true,
		Provider: name,
		Model:    a.config.Model,
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, name); err != nil {
			assessment.Warnings = append(assessment.Warnings, fmt.Sprintf("LLM assessment skipped: %v", err))
			return assessment
		}
	}

	start := time.Now()
	resp, err := a.provider.Assess(ctx, AssessRequest{
		Text:     text,
		Language: language,
		Model:    a.config.Model,
	})
	if err != nil {
		a.logger.Warn("llm assessment failed",
			zap.String("provider", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		assessment.Warnings = append(assessment.Warnings, fmt.Sprintf("LLM assessment failed: %v", err))
		return assessment
	}

	a.logger.Debug("llm assessment complete",
		zap.String("provider", name),
		zap.String("model", resp.Model),
		zap.Float64("risk_score", resp.Partial.RiskScore),
		zap.Int("threats", len(resp.Partial.Threats)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.Model != "" {
		assessment.Model = resp.Model
	}
	assessment.Partial = resp.Partial
	assessment.Warnings = append(assessment.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if resp.Partial.IsNeutral() {
		assessment.Warnings = append(assessment.Warnings, "LLM assessment carried no risk signal")
	}
	return assessment
}

// isAvailable caches the provider availability check for availabilityTTL.
// Concurrent callers share one check. The check runs on its own context so a
// cancelled caller neither blocks the others nor records a false result.
func (a *Advisor) isAvailable(ctx context.Context) bool {
	a.mu.Lock()
	if !a.checkedAt.IsZero() && time.Since(a.checkedAt) < availabilityTTL {
		available := a.available
		a.mu.Unlock()
		return available
	}
	a.mu.Unlock()

	ch := a.checks.DoChan("available", func() (interface{}, error) {
		checkCtx, cancel := context.WithTimeout(context.Background(), availabilityCheckTimeout)
		defer cancel()

		available := a.provider.IsAvailable(checkCtx)
		if checkCtx.Err() == nil {
			a.mu.Lock()
			a.available = available
			a.checkedAt = time.Now()
			a.mu.Unlock()
		}
		return available, nil
	})

	select {
	case res := <-ch:
		available, _ := res.Val.(bool)
		return available
	case <-ctx.Done():
		return false
	}
}
