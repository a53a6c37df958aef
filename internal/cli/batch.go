package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/validate"
	"github.com/ppiankov/clausewise/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	preflight    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many contracts listed in a file in parallel",
	Long: `Batch analyzes many contracts concurrently:
- Read file paths and URLs from an input file (one per line, # for comments)
- Optionally check every input is reachable before analyzing
- Analyze inputs in parallel with a configurable worker count
- URL inputs are rate limited per host
- Write a JSON and a Markdown report for each input

Example:
  clausewise batch contracts.txt
  clausewise batch contracts.txt --concurrency 10 --output-dir ./reports
  clausewise batch contracts.txt --preflight --lang es --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clausewise-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&preflight, "preflight", false, "check every input is reachable before analyzing")

	addCommonFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, err := setup(func(cfg *model.Config) {
		applyCommonFlags(cmd, cfg)
		if concurrency > 0 {
			cfg.Concurrency.Workers = concurrency
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	workers := a.cfg.Concurrency.Workers

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Clausewise Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if a.cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  AI provider:  %s/%s\n", a.cfg.LLM.Provider, a.cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := []worker.BatchOption{
		worker.WithLimiter(a.limiter),
		worker.WithBatchLogger(a.logger),
		worker.WithTemplate(pipeline.Request{
			Language: a.cfg.Output.Language,
			Simplify: simplify,
			AI:       a.cfg.LLM.Provider != "",
		}),
	}
	if preflight {
		opts = append(opts, worker.WithPreflight(
			validate.NewChecker(a.cfg.HTTP, a.cfg.HTTP.MaxBodyBytes, workers)))
	}
	processor := worker.NewBatchProcessor(a.service, workers, opts...)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing inputs with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(a.cfg.Output.IncludeFooter, false)
	written := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			mark := "✗"
			if result.Skipped {
				mark = "-"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", mark, result.Input, result.Error)
			continue
		}

		slug := uniqueSlug(sanitizeFilename(result.Input), written)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderReport(result.Report, jsonPath, mdPath, nil); err != nil {
			result.Error = err
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Input, err)
			continue
		}

		res := result.Report.Result
		fmt.Fprintf(os.Stderr, "✓ %s (risk: %.2f %s)\n", result.Input, res.RiskScore, res.RiskLevel)
	}

	analyzed, failed, skipped := worker.Summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Analyzed:  %d\n", analyzed)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", skipped)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	ranked := worker.ByRisk(results)
	if len(ranked) > 0 {
		fmt.Fprintf(os.Stderr, "  Highest risk:\n")
		for i, r := range ranked {
			if i == 5 {
				break
			}
			fmt.Fprintf(os.Stderr, "    %.2f %-8s %s\n", r.Report.Result.RiskScore, r.Report.Result.RiskLevel, r.Input)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if analyzed == 0 && len(results) > 0 {
		return fmt.Errorf("no input could be analyzed")
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"&", "_",
	"=", "_",
	" ", "-",
)

// sanitizeFilename turns a file path or URL into a safe report name
func sanitizeFilename(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	} else {
		s = filepath.Base(s)
		s = strings.TrimSuffix(s, filepath.Ext(s))
	}
	s = strings.Trim(filenameReplacer.Replace(s), "_.-")

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}

// uniqueSlug appends a counter when two inputs map to the same name
func uniqueSlug(slug string, seen map[string]int) string {
	n := seen[slug]
	seen[slug] = n + 1
	if n == 0 {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, n+1)
}
