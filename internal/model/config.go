package model

import (
	"fmt"
	"math"
	"time"
)

// Config holds all clausewise configuration
type Config struct {
	Taxonomy     TaxonomyConfig     `yaml:"taxonomy" mapstructure:"taxonomy"`
	Scoring      ScoringConfig      `yaml:"scoring" mapstructure:"scoring"`
	Chains       ChainConfig        `yaml:"chains" mapstructure:"chains"`
	Privacy      PrivacyConfig      `yaml:"privacy" mapstructure:"privacy"`
	Input        InputConfig        `yaml:"input" mapstructure:"input"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// TaxonomyConfig selects the category reference data
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty uses the built-in taxonomy
}

// ScoreWeights are the fixed combination weights of the four sub-scores.
// They must sum to 1.0.
type ScoreWeights struct {
	Category   float64 `yaml:"category" mapstructure:"category" json:"category"`
	Structural float64 `yaml:"structural" mapstructure:"structural" json:"structural"`
	Lexical    float64 `yaml:"lexical_density" mapstructure:"lexical_density" json:"lexical_density"`
	Ambiguity  float64 `yaml:"ambiguity" mapstructure:"ambiguity" json:"ambiguity"`
}

// Sum returns the total of all weights
func (w ScoreWeights) Sum() float64 {
	return w.Category + w.Structural + w.Lexical + w.Ambiguity
}

// Thresholds is the canonical risk-level step table (lower bounds)
type Thresholds struct {
	Critical float64 `yaml:"critical" mapstructure:"critical" json:"critical"`
	High     float64 `yaml:"high" mapstructure:"high" json:"high"`
	Medium   float64 `yaml:"medium" mapstructure:"medium" json:"medium"`
}

// ScoringConfig holds every constant of the risk scorer
type ScoringConfig struct {
	Weights                  ScoreWeights `yaml:"weights" mapstructure:"weights"`
	Thresholds               Thresholds   `yaml:"thresholds" mapstructure:"thresholds"`
	BaselineCategoryScore    float64      `yaml:"baseline_category_score" mapstructure:"baseline_category_score"`
	LexicalMultiplier        float64      `yaml:"lexical_multiplier" mapstructure:"lexical_multiplier"`
	AmbiguityWeight          float64      `yaml:"ambiguity_weight" mapstructure:"ambiguity_weight"`
	ComplexClauseWords       int          `yaml:"complex_clause_words" mapstructure:"complex_clause_words"`
	LengthNormalizationWords int          `yaml:"length_normalization_words" mapstructure:"length_normalization_words"`
	ComplexityWeight         float64      `yaml:"complexity_weight" mapstructure:"complexity_weight"`
	LengthWeight             float64      `yaml:"length_weight" mapstructure:"length_weight"`
	EscalateOnThreatSeverity bool         `yaml:"escalate_on_threat_severity" mapstructure:"escalate_on_threat_severity"`
}

// ChainConfig bounds the threat-chain and recommendation output
type ChainConfig struct {
	MaxChains        int `yaml:"max_chains" mapstructure:"max_chains"`
	MaxRecommendRefs int `yaml:"max_recommendation_clauses" mapstructure:"max_recommendation_clauses"`
	MaxGraphNodes    int `yaml:"max_graph_nodes" mapstructure:"max_graph_nodes"`
	MaxGraphEdges    int `yaml:"max_graph_edges" mapstructure:"max_graph_edges"`
	PreviewRunes     int `yaml:"preview_runes" mapstructure:"preview_runes"`
}

// PrivacyConfig toggles PII scrubbing before segmentation
type PrivacyConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// InputConfig bounds accepted documents
type InputConfig struct {
	MaxDocumentBytes int `yaml:"max_document_bytes" mapstructure:"max_document_bytes"`
}

// HTTPConfig holds settings for fetching documents by URL
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig selects the result cache backend
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisDB   int           `yaml:"redis_db" mapstructure:"redis_db"`
	RedisTTL  time.Duration `yaml:"redis_ttl" mapstructure:"redis_ttl"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles calls to external providers
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LLMConfig configures the optional external AI provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxChars  int    `yaml:"max_chars" mapstructure:"max_chars"` // Document prefix sent to the provider
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Language      string `yaml:"language" mapstructure:"language"`
	Color         bool   `yaml:"color" mapstructure:"color"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the canonical defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: ScoreWeights{
				Category:   0.4,
				Structural: 0.1,
				Lexical:    0.2,
				Ambiguity:  0.3,
			},
			Thresholds: Thresholds{
				Critical: 8.0,
				High:     6.5,
				Medium:   4.0,
			},
			BaselineCategoryScore:    2.0,
			LexicalMultiplier:        15,
			AmbiguityWeight:          2,
			ComplexClauseWords:       50,
			LengthNormalizationWords: 1000,
			ComplexityWeight:         0.7,
			LengthWeight:             0.3,
			EscalateOnThreatSeverity: true,
		},
		Chains: ChainConfig{
			MaxChains:        5,
			MaxRecommendRefs: 3,
			MaxGraphNodes:    20,
			MaxGraphEdges:    30,
			PreviewRunes:     100,
		},
		Privacy: PrivacyConfig{Enabled: true},
		Input:   InputConfig{MaxDocumentBytes: 2_000_000},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Clausewise/0.1 (+https://github.com/ppiankov/clausewise)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "memory",
			MemoryTTL: 10 * time.Minute,
			DiskDir:   defaultCacheDir(),
			DiskTTL:   24 * time.Hour,
			RedisTTL:  time.Hour,
		},
		Concurrency: ConcurrencyConfig{Workers: 4},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
			MaxChars:  2000,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Language:      "en",
			Color:         true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the scoring and chain constants. Failures are
// ConfigurationErrors and must stop startup.
func (c *Config) Validate() error {
	s := c.Scoring
	w := s.Weights
	for name, v := range map[string]float64{
		"category": w.Category, "structural": w.Structural,
		"lexical_density": w.Lexical, "ambiguity": w.Ambiguity,
	} {
		if v < 0 {
			return &ConfigurationError{Source: "scoring.weights", Err: fmt.Errorf("weight %s is negative: %v", name, v)}
		}
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return &ConfigurationError{Source: "scoring.weights", Err: fmt.Errorf("weights must sum to 1.0, got %.3f", w.Sum())}
	}

	t := s.Thresholds
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium > 0 && t.Critical <= 10) {
		return &ConfigurationError{Source: "scoring.thresholds", Err: fmt.Errorf("thresholds must satisfy 0 < medium < high < critical <= 10, got %.2f/%.2f/%.2f", t.Medium, t.High, t.Critical)}
	}
	if math.Abs(s.ComplexityWeight+s.LengthWeight-1.0) > 0.001 {
		return &ConfigurationError{Source: "scoring", Err: fmt.Errorf("complexity_weight + length_weight must be 1.0")}
	}
	if s.ComplexClauseWords <= 0 || s.LengthNormalizationWords <= 0 {
		return &ConfigurationError{Source: "scoring", Err: fmt.Errorf("word limits must be positive")}
	}
	if s.BaselineCategoryScore < 0 || s.BaselineCategoryScore > 10 {
		return &ConfigurationError{Source: "scoring", Err: fmt.Errorf("baseline_category_score must be within [0,10]")}
	}

	if c.Chains.MaxChains < 1 {
		return &ConfigurationError{Source: "chains.max_chains", Err: fmt.Errorf("must be at least 1")}
	}
	if c.Chains.MaxRecommendRefs < 1 {
		return &ConfigurationError{Source: "chains.max_recommendation_clauses", Err: fmt.Errorf("must be at least 1")}
	}

	switch c.Cache.Backend {
	case "memory", "disk", "layered", "redis":
	default:
		return &ConfigurationError{Source: "cache.backend", Err: fmt.Errorf("unknown backend %q", c.Cache.Backend)}
	}

	return nil
}
