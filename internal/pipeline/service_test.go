package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/llm"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

type stubProvider struct {
	partial model.PartialResult
	err     error
	calls   atomic.Int32
	text    atomic.Value
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Assess(ctx context.Context, req llm.AssessRequest) (*llm.AssessResponse, error) {
	p.calls.Add(1)
	p.text.Store(req.Text)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.AssessResponse{Partial: p.partial, Model: "stub-1", TokensUsed: 42}, nil
}

func (p *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP = testHTTPConfig()
	cfg.Input.MaxDocumentBytes = 4096
	analyzer := NewAnalyzer(taxonomy.Default(), *cfg)
	return NewService(analyzer, cfg, opts...)
}

func TestService_Analyze_Text(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Analyze(context.Background(), Request{Text: threeClauseContract})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "request", report.Source)
	assert.False(t, report.Cached)
	assert.Nil(t, report.AI)
	assert.Equal(t, model.RiskCritical, report.Result.RiskLevel)
	assert.Equal(t, "en", report.Result.Language)
	assert.True(t, strings.HasPrefix(report.Audio, "Warning. Risk score 4.3 out of 10."))
	assert.Empty(t, report.Simplified)
	assert.Equal(t, model.DefaultPrinciples(), report.Principles)
}

func TestService_Analyze_InvalidInput(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"invalid utf8", Request{Text: "abc\xff"}},
		{"nul byte", Request{Text: "a\x00b"}},
		{"too large", Request{Text: strings.Repeat("a", 5000)}},
		{"text and url", Request{Text: "x", URL: "https://example.com"}},
		{"bad url", Request{URL: "example.com/terms"}},
		{"language too long", Request{Text: "x", Language: strings.Repeat("e", 40)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestService_Analyze_EmptyTextIsValid(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Analyze(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, report.Result.Clauses)
	assert.Equal(t, model.RiskLow, report.Result.RiskLevel)
}

func TestService_Analyze_ScrubsPersonalData(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Analyze(context.Background(), Request{
		Text:     "Contact jane.doe@example.com about the arbitration clause.",
		Simplify: true,
	})
	require.NoError(t, err)

	assert.True(t, report.PII.Detected)
	assert.True(t, report.PII.Scrubbed)
	assert.Equal(t, 1, report.PII.Counts["email"])
	for _, c := range report.Result.Clauses {
		assert.NotContains(t, c.Text, "jane.doe@example.com")
	}
	assert.NotContains(t, report.Simplified, "jane.doe@example.com")
	assert.Contains(t, report.Simplified, "private judge")
}

func TestService_Analyze_CacheHit(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	svc := newTestService(t, WithCache(mem))
	ctx := context.Background()

	first, err := svc.Analyze(ctx, Request{Text: threeClauseContract})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, mem.Len())

	second, err := svc.Analyze(ctx, Request{Text: threeClauseContract})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Result.RiskScore, second.Result.RiskScore)
	assert.Equal(t, first.Result.RiskLevel, second.Result.RiskLevel)
	assert.Equal(t, first.Result.Threats, second.Result.Threats)

	// A different language is a different cache entry
	third, err := svc.Analyze(ctx, Request{Text: threeClauseContract, Language: "es"})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, "es", third.Result.Language)
}

func TestService_Analyze_CorruptCacheEntryIsRecomputed(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	svc := newTestService(t, WithCache(mem))
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, cache.CacheKey(threeClauseContract, "en"), []byte("{not json"), 0))

	report, err := svc.Analyze(ctx, Request{Text: threeClauseContract})
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.InDelta(t, 4.27, report.Result.RiskScore, 0.001)
}

func TestService_Analyze_ConcurrentIdenticalRequests(t *testing.T) {
	svc := newTestService(t, WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	var wg sync.WaitGroup
	scores := make([]float64, 8)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := svc.Analyze(context.Background(), Request{Text: threeClauseContract})
			if err == nil {
				scores[i] = report.Result.RiskScore
			}
		}(i)
	}
	wg.Wait()

	for _, s := range scores {
		assert.InDelta(t, 4.27, s, 0.001)
	}
}

func TestService_Analyze_AIMerge(t *testing.T) {
	provider := &stubProvider{partial: model.PartialResult{
		RiskScore: 9.5,
		Threats:   []string{"Unlimited liability"},
	}}
	advisor, err := llm.NewAdvisor(llm.Config{Model: "stub-1"}, llm.WithProvider(provider))
	require.NoError(t, err)
	svc := newTestService(t, WithAdvisor(advisor))

	report, err := svc.Analyze(context.Background(), Request{
		Text: threeClauseContract + " Notices go to john@example.com.",
		AI:   true,
	})
	require.NoError(t, err)

	require.NotNil(t, report.AI)
	assert.True(t, report.AI.Enabled)
	assert.True(t, report.AI.Merged)
	assert.Equal(t, "stub", report.AI.Provider)
	assert.InDelta(t, 9.5, report.Result.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, report.Result.RiskLevel)
	assert.Contains(t, report.Result.Threats, "Unlimited liability")
	assert.Equal(t, "High financial liability risk", report.Result.Threats[0])

	// The provider only ever sees scrubbed text
	sent, _ := provider.text.Load().(string)
	assert.NotContains(t, sent, "john@example.com")
}

func TestService_Analyze_AINotRequested(t *testing.T) {
	provider := &stubProvider{partial: model.PartialResult{RiskScore: 9.5}}
	advisor, err := llm.NewAdvisor(llm.Config{}, llm.WithProvider(provider))
	require.NoError(t, err)
	svc := newTestService(t, WithAdvisor(advisor))

	report, err := svc.Analyze(context.Background(), Request{Text: threeClauseContract})
	require.NoError(t, err)

	assert.Nil(t, report.AI)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.InDelta(t, 4.27, report.Result.RiskScore, 0.001)
}

func TestService_Analyze_AIFailureKeepsCoreResult(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream exploded")}
	advisor, err := llm.NewAdvisor(llm.Config{}, llm.WithProvider(provider))
	require.NoError(t, err)
	svc := newTestService(t, WithAdvisor(advisor), WithServiceLogger(zap.NewNop()))

	report, err := svc.Analyze(context.Background(), Request{Text: threeClauseContract, AI: true})
	require.NoError(t, err)

	require.NotNil(t, report.AI)
	assert.False(t, report.AI.Merged)
	assert.NotEmpty(t, report.AI.Warnings)
	assert.InDelta(t, 4.27, report.Result.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, report.Result.RiskLevel)
}

func TestService_Analyze_URL(t *testing.T) {
	noSleep(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Terms</title></head><body>
<nav>Home | Pricing</nav>
<main><h1>Terms of Service</h1>
<p>The company shall indemnify against all claims.</p>
<p>All disputes go to binding arbitration.</p></main>
</body></html>`))
	}))
	defer server.Close()

	svc := newTestService(t)
	report, err := svc.Analyze(context.Background(), Request{URL: server.URL + "/terms"})
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/terms", report.Source)
	assert.Contains(t, report.Result.MatchedCategories, "indemnification")
	assert.Contains(t, report.Result.MatchedCategories, "arbitration")
}

func TestService_Analyze_URLFetchFailure(t *testing.T) {
	noSleep(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestService(t)
	_, err := svc.Analyze(context.Background(), Request{URL: server.URL})
	require.Error(t, err)

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.False(t, errors.Is(err, model.ErrInvalidInput))
}
