// Package server exposes the analysis service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

// Error codes returned in ErrorResponse.Error
const (
	CodeInvalidInput = "invalid_input"
	CodeFetchFailed  = "fetch_failed"
	CodeForbidden    = "robots_disallowed"
	CodeInternal     = "internal_error"
)

// Analyzer is the service behind POST /v1/analyze
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*model.Report, error)
}

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	Language string `json:"language"`
	Simplify bool   `json:"simplify"`
	AI       bool   `json:"ai"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Taxonomy string `json:"taxonomy"`
}

// Server is the HTTP API
type Server struct {
	service Analyzer
	tax     *taxonomy.Taxonomy
	config  model.ServerConfig
	maxBody int64
	version string
	logger  *zap.Logger
	router  *gin.Engine
}

// New creates the server and registers its routes. maxBody bounds request
// bodies (0 means no limit).
func New(service Analyzer, tax *taxonomy.Taxonomy, cfg model.ServerConfig, maxBody int64, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		tax:     tax,
		config:  cfg,
		maxBody: maxBody,
		version: version,
		logger:  logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/taxonomy", s.handleTaxonomy)

	s.router = router
	return s
}

// Handler returns the routed http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()
	defer func() { analyzeLatency.Observe(time.Since(start).Seconds()) }()

	if s.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		analyzeRequests.WithLabelValues(CodeInvalidInput).Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeInvalidInput, Message: err.Error()})
		return
	}

	report, err := s.service.Analyze(c.Request.Context(), pipeline.Request{
		Text:     req.Text,
		URL:      req.URL,
		Language: req.Language,
		Simplify: req.Simplify,
		AI:       req.AI,
	})
	if err != nil {
		status, code := classify(err)
		analyzeRequests.WithLabelValues(code).Inc()
		if status >= http.StatusInternalServerError {
			s.logger.Error("analyze failed", zap.Error(err))
		}
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	analyzeRequests.WithLabelValues("ok").Inc()
	observeReport(report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"source":   s.tax.Source(),
		"taxonomy": s.tax.File(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Taxonomy: s.tax.Source(),
	})
}

// classify maps a service error to an HTTP status and error code
func classify(err error) (int, string) {
	var statusErr *pipeline.StatusError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, pipeline.ErrRobotsDisallowed):
		return http.StatusForbidden, CodeForbidden
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, CodeFetchFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeFetchFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
