package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a Gemini API provider. An API key from Google AI
// Studio is required.
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(config, 0),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable lists one page of models to check the key
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return err == nil
}

// Assess requests an assessment with a JSON response MIME type
func (p *GeminiProvider) Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error) {
	prompt, modelName, maxTokens := resolve(req, p.config, "gemini-2.0-flash")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, requestTimeout(p.config, 30*time.Second))
	defer cancel()

	content := genai.NewContentFromText(prompt, genai.RoleUser)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		MaxOutputTokens:   int32(maxTokens),
		ResponseMIMEType:  "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctxWithTimeout, modelName, []*genai.Content{content}, genConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	// Extract text from the first candidate
	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw.WriteString(part.Text)
		}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return newResponse(strings.TrimSpace(raw.String()), modelName, tokens)
}
