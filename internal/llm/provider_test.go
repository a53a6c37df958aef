package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

func TestParseAssessment(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.PartialResult
		level   string
		wantErr bool
	}{
		{
			name:  "plain object",
			raw:   sampleAssessment,
			want:  model.PartialResult{RiskScore: 7.5, Threats: []string{"You may lose the right to sue in court"}, Clauses: []string{"arbitration"}, Explanation: "Disputes go to private arbitration."},
			level: "HIGH",
		},
		{
			name:  "fenced with prose and string score",
			raw:   "Sure!\n```json\n{\"risk_score\": \"6\", \"risk_level\": \"medium\", \"threats\": [\"a\", \"\", \"a\", \" b \"]}\n```",
			want:  model.PartialResult{RiskScore: 6, Threats: []string{"a", "b"}},
			level: "MEDIUM",
		},
		{
			name: "score clamped",
			raw:  `{"risk_score": 42}`,
			want: model.PartialResult{RiskScore: 10},
		},
		{
			name: "negative score clamped",
			raw:  `{"risk_score": -3}`,
			want: model.PartialResult{RiskScore: 0},
		},
		{name: "no object", raw: "I am unable to comply.", wantErr: true},
		{name: "broken object", raw: `{"risk_score": }`, wantErr: true},
		{name: "non-numeric score", raw: `{"risk_score": "high"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, level, err := ParseAssessment(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	text := strings.Repeat("x", 50) + "TAIL"
	prompt := BuildPrompt(text, "es", 50)

	assert.Contains(t, prompt, "risk_score")
	assert.Contains(t, prompt, "detected_clauses")
	assert.Contains(t, prompt, `language "es"`)
	assert.Contains(t, prompt, strings.Repeat("x", 50))
	assert.NotContains(t, prompt, "TAIL", "only the document prefix is sent")

	assert.Contains(t, BuildPrompt("short", "", 0), `language "en"`)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "", config.Provider, "LLM must be disabled by default")
	assert.Equal(t, 30, config.Timeout)
	assert.Equal(t, 2000, config.MaxChars)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	for name, want := range map[string]string{
		"openai":    "openai",
		"anthropic": "anthropic",
		"claude":    "anthropic",
		"ollama":    "ollama",
		"gemini":    "gemini",
		"GOOGLE":    "gemini",
	} {
		p, err := NewProvider(Config{Provider: name, APIKey: "k"})
		require.NoError(t, err, name)
		assert.Equal(t, want, p.Name())
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(
		model.LLMConfig{Provider: "gemini", Model: "gemini-2.0-flash", APIKey: "k", Timeout: 10, MaxTokens: 500, MaxChars: 1000},
		model.HTTPConfig{HTTPSProxy: "http://proxy:3128"},
	)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 1000, cfg.MaxChars)
	assert.Equal(t, "http://proxy:3128", cfg.HTTPSProxy)
}
