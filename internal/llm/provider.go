// Package llm asks an external AI provider for a second opinion on a
// contract. Providers return a partial result that the caller merges with
// the deterministic analysis; provider failures never fail an analysis.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Assess asks the model for a risk assessment of the contract text
	Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// AssessRequest contains the input for an assessment
type AssessRequest struct {
	// Text is the (already scrubbed) contract text
	Text string

	// Language is the tag the explanation should be written in
	Language string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// AssessResponse contains the provider's parsed assessment
type AssessResponse struct {
	// Partial is the assessment in the shape the merge policy consumes
	Partial model.PartialResult

	// RiskLevel is the level the model claimed, informational only
	RiskLevel string

	// Raw is the model's unparsed answer
	Raw string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// MaxChars is the length of the document prefix sent to the provider
	MaxChars int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 800,
		MaxChars:  2000,
	}
}

const systemPrompt = "You are a contract risk reviewer for people who are not lawyers. You answer with a single JSON object and nothing else."

// BuildPrompt constructs the default assessment prompt. Only the first
// maxChars runes of the document are sent.
func BuildPrompt(text, language string, maxChars int) string {
	if language == "" {
		language = "en"
	}
	return fmt.Sprintf(`Analyze this contract text for legal risks and threats to the person signing it.

Return JSON with exactly these fields:
1. risk_score (number from 0 to 10)
2. risk_level (LOW, MEDIUM, HIGH or CRITICAL)
3. detected_clauses (list of clause types, e.g. "arbitration", "indemnification")
4. threats (list of short statements of what could happen to the signer)
5. explanation (one or two sentences in language %q)

Do not give legal advice. Do not invent clauses that are not in the text.

Text:
%s

Return valid JSON only.`, language, truncateRunes(text, maxChars))
}

// assessmentJSON is the answer format requested by BuildPrompt
type assessmentJSON struct {
	RiskScore       flexibleFloat `json:"risk_score"`
	RiskLevel       string        `json:"risk_level"`
	DetectedClauses []string      `json:"detected_clauses"`
	Threats         []string      `json:"threats"`
	Explanation     string        `json:"explanation"`
}

// flexibleFloat accepts 7, 7.5 and "7.5"
type flexibleFloat float64

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("risk_score: %w", err)
	}
	*f = flexibleFloat(v)
	return nil
}

// ParseAssessment extracts the JSON object from a model answer, tolerating
// surrounding prose and code fences. The score is clamped to [0,10] and
// blank list entries are dropped.
func ParseAssessment(raw string) (model.PartialResult, string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return model.PartialResult{}, "", fmt.Errorf("no JSON object in response")
	}

	var parsed assessmentJSON
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return model.PartialResult{}, "", fmt.Errorf("parse assessment: %w", err)
	}

	score := float64(parsed.RiskScore)
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return model.PartialResult{
		RiskScore:   score,
		Threats:     compact(parsed.Threats),
		Clauses:     compact(parsed.DetectedClauses),
		Explanation: strings.TrimSpace(parsed.Explanation),
	}, strings.ToUpper(strings.TrimSpace(parsed.RiskLevel)), nil
}

// resolve fills model and token defaults from the provider config
func resolve(req AssessRequest, config Config, defaultModel string) (prompt, modelName string, maxTokens int) {
	prompt = req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Text, req.Language, config.MaxChars)
	}

	modelName = req.Model
	if modelName == "" {
		modelName = config.Model
	}
	if modelName == "" {
		modelName = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 800
	}
	return prompt, modelName, maxTokens
}

// newResponse parses the model answer into an AssessResponse
func newResponse(raw, modelName string, tokens int) (*AssessResponse, error) {
	partial, level, err := ParseAssessment(raw)
	if err != nil {
		return nil, err
	}
	return &AssessResponse{
		Partial:    partial,
		RiskLevel:  level,
		Raw:        raw,
		Model:      modelName,
		TokensUsed: tokens,
	}, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func compact(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
