package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

const contract = "The company shall indemnify against all claims. " +
	"All disputes go to binding arbitration. " +
	"Jurisdiction is exclusively in Delaware."

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Input.MaxDocumentBytes = 4096
	tax := taxonomy.Default()
	svc := pipeline.NewService(pipeline.NewAnalyzer(tax, *cfg), cfg)
	return New(svc, tax, cfg.Server, 1<<16, "test", nil)
}

type failingAnalyzer struct{ err error }

func (f failingAnalyzer) Analyze(ctx context.Context, req pipeline.Request) (*model.Report, error) {
	return nil, f.err
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/analyze", AnalyzeRequest{Text: contract, Simplify: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "request", report.Source)
	assert.InDelta(t, 4.27, report.Result.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, report.Result.RiskLevel)
	assert.Len(t, report.Result.ThreatChains, 1)
	assert.NotEmpty(t, report.Simplified)
	assert.True(t, report.Principles.NotLegalAdvice)
}

func TestHandleAnalyze_Language(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/analyze", AnalyzeRequest{Text: contract, Language: "es-MX"})
	require.Equal(t, http.StatusOK, w.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "es", report.Result.Language)
	assert.True(t, strings.HasPrefix(report.Result.Explanation, "Puntuación de riesgo"))
}

func TestHandleAnalyze_InvalidInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", `{"text": `},
		{"nul byte", AnalyzeRequest{Text: "a\x00b"}},
		{"text and url", AnalyzeRequest{Text: "x", URL: "https://example.com"}},
		{"relative url", AnalyzeRequest{URL: "/terms"}},
		{"document too large", AnalyzeRequest{Text: strings.Repeat("a", 5000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, srv.Handler(), "/v1/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, CodeInvalidInput, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandleAnalyze_BodyLimit(t *testing.T) {
	cfg := model.DefaultConfig()
	tax := taxonomy.Default()
	svc := pipeline.NewService(pipeline.NewAnalyzer(tax, *cfg), cfg)
	srv := New(svc, tax, cfg.Server, 64, "test", nil)

	w := postJSON(t, srv.Handler(), "/v1/analyze", AnalyzeRequest{Text: strings.Repeat("x", 200)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.InvalidInputError("bad"), http.StatusBadRequest, CodeInvalidInput},
		{fmt.Errorf("fetch: %w", pipeline.ErrRobotsDisallowed), http.StatusForbidden, CodeForbidden},
		{fmt.Errorf("fetch: %w", &pipeline.StatusError{Code: 404, Status: "404 Not Found"}), http.StatusBadGateway, CodeFetchFailed},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeFetchFailed},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		srv := New(failingAnalyzer{err: tt.err}, taxonomy.Default(), model.ServerConfig{}, 0, "test", nil)
		w := postJSON(t, srv.Handler(), "/v1/analyze", AnalyzeRequest{Text: "x"})

		assert.Equal(t, tt.status, w.Code, "error %v", tt.err)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Error)
	}
}

func TestHandleTaxonomy(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/taxonomy", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Source   string        `json:"source"`
		Taxonomy taxonomy.File `json:"taxonomy"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, taxonomy.BuiltinSource, resp.Source)
	assert.Equal(t, 1, resp.Taxonomy.Version)
	require.NotEmpty(t, resp.Taxonomy.Categories)
	assert.Equal(t, "indemnification", resp.Taxonomy.Categories[0].Name)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)

	// Generate at least one observation
	postJSON(t, srv.Handler(), "/v1/analyze", AnalyzeRequest{Text: contract})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "clausewise_analyze_requests_total")
	assert.Contains(t, body, "clausewise_analyze_duration_seconds")
	assert.Contains(t, body, `clausewise_risk_level_total{level="CRITICAL"}`)
}

func TestRun_GracefulShutdown(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = time.Second
	srv := New(failingAnalyzer{}, taxonomy.Default(), cfg.Server, 0, "test", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
