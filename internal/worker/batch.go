package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/validate"
)

// Analyzer defines the interface for analyzing one document
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*model.Report, error)
}

// AnalyzeJob represents the analysis of one file or URL
type AnalyzeJob struct {
	Index    int
	Input    string
	Template pipeline.Request
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute reads or fetches the input and analyzes it
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	result := &AnalyzeResult{Index: j.Index, Input: j.Input}

	req := j.Template
	req.Source = j.Input

	if validate.KindOf(j.Input) == model.InputURL {
		if j.Limiter != nil {
			if err := j.Limiter.Wait(ctx, j.Input); err != nil {
				result.Error = fmt.Errorf("rate limit: %w", err)
				return result
			}
		}
		req.URL = j.Input
	} else {
		data, err := os.ReadFile(j.Input)
		if err != nil {
			result.Error = fmt.Errorf("read %s: %w", j.Input, err)
			return result
		}
		req.Text = string(data)
	}

	report, err := j.Analyzer.Analyze(ctx, req)
	if err != nil {
		result.Error = err
		return result
	}
	result.Report = report
	return result
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index   int
	Input   string
	Report  *model.Report
	Skipped bool // Rejected by the preflight check, never analyzed
	Error   error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchOption customizes a BatchProcessor
type BatchOption func(*BatchProcessor)

// WithLimiter throttles URL inputs per host
func WithLimiter(l *Limiter) BatchOption {
	return func(b *BatchProcessor) { b.limiter = l }
}

// WithPreflight checks every input before analysis; inputs that fail the
// check are reported as skipped
func WithPreflight(c *validate.Checker) BatchOption {
	return func(b *BatchProcessor) { b.checker = c }
}

// WithTemplate sets the language, simplify and AI options of every request
func WithTemplate(req pipeline.Request) BatchOption {
	return func(b *BatchProcessor) { b.template = req }
}

// WithBatchLogger sets the batch logger
func WithBatchLogger(l *zap.Logger) BatchOption {
	return func(b *BatchProcessor) {
		if l != nil {
			b.logger = l
		}
	}
}

// BatchProcessor analyzes many documents concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	checker     *validate.Checker
	template    pipeline.Request
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ProcessInputs analyzes files and URLs concurrently. Results are in input order.
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*AnalyzeResult {
	if len(inputs) == 0 {
		return []*AnalyzeResult{}
	}

	out := make([]*AnalyzeResult, len(inputs))
	runnable := make([]Job, 0, len(inputs))

	var checks []model.InputCheck
	if b.checker != nil {
		checks = b.checker.Check(ctx, inputs)
	}

	for i, input := range inputs {
		if checks != nil && !checks[i].Accessible {
			out[i] = &AnalyzeResult{
				Index:   i,
				Input:   input,
				Skipped: true,
				Error:   fmt.Errorf("preflight: %s", describeCheck(checks[i])),
			}
			b.logger.Warn("skipping input", zap.String("input", input), zap.Error(out[i].Error))
			continue
		}
		runnable = append(runnable, &AnalyzeJob{
			Index:    i,
			Input:    input,
			Template: b.template,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
		})
	}

	pool := NewPoolContext(ctx, b.concurrency)
	defer pool.Shutdown()

	for _, r := range pool.Process(runnable) {
		if res, ok := r.(*AnalyzeResult); ok {
			out[res.Index] = res
		}
	}

	// Jobs dropped by cancellation never produced a result
	for i, input := range inputs {
		if out[i] == nil {
			out[i] = &AnalyzeResult{Index: i, Input: input, Error: ctx.Err()}
		}
	}

	return out
}

// ProcessFile reads inputs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// Summarize counts analyzed, failed and skipped results
func Summarize(results []*AnalyzeResult) (analyzed, failed, skipped int) {
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Error != nil:
			failed++
		default:
			analyzed++
		}
	}
	return analyzed, failed, skipped
}

// ByRisk returns the successful results ordered by descending risk score
func ByRisk(results []*AnalyzeResult) []*AnalyzeResult {
	var ok []*AnalyzeResult
	for _, r := range results {
		if r.Error == nil && r.Report != nil {
			ok = append(ok, r)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].Report.Result.RiskScore > ok[j].Report.Result.RiskScore
	})
	return ok
}

func describeCheck(c model.InputCheck) string {
	if c.Error != "" {
		return c.Error
	}
	if c.StatusCode != 0 {
		return fmt.Sprintf("status %d", c.StatusCode)
	}
	return "not accessible"
}

// ReadInputsFromFile reads file paths and URLs from a file (one per line)
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate inputs
		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
