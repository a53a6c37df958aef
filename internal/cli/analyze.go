package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
)

var (
	analyzeURL  string
	outJSON     string
	outMD       string
	outFormat   string
	language    string
	simplify    bool
	showAudio   bool
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	noColor     bool
	insecureTLS bool
	ignoreRobot bool
	llmProvider string
	llmModel    string
	httpProxy   string
	httpsProxy  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze one contract and report its risks",
	Long: `Analyze reads a contract from a file, stdin or a URL and:
- Splits it into clauses
- Matches clauses against the risk category taxonomy
- Scores overall risk from category severity, risk-word density,
  structure and ambiguity (every sub-score shows its formula)
- Links related risks into threat chains
- Recommends what to negotiate, per category

Example:
  clausewise analyze lease.txt
  cat nda.txt | clausewise analyze -
  clausewise analyze --url https://example.com/terms --md terms.md
  clausewise analyze lease.txt --lang es --simplify
  clausewise analyze lease.txt --llm gemini --model gemini-2.0-flash`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "fetch the contract from a URL instead of a file")
	analyzeCmd.Flags().BoolVar(&showAudio, "audio", false, "print the spoken-warning script")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().StringVar(&outFormat, "format", "summary", "stdout format: summary, json, markdown")
	analyzeCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored terminal output")

	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout (fetch and AI included)")

	addCommonFlags(analyzeCmd)
}

// addCommonFlags registers the flags shared by analyze and batch
func addCommonFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&language, "lang", "", "explanation language: en, hi, es (default from config)")
	flags.BoolVar(&simplify, "simplify", false, "include a plain-language rewrite of the contract")
	flags.BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	flags.BoolVar(&noCache, "no-cache", false, "disable the result cache")

	// HTTP flags
	flags.StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	flags.Int64Var(&maxBytes, "max-bytes", 0, "max response bytes to read (default from config)")
	flags.BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	flags.BoolVar(&ignoreRobot, "ignore-robots", false, "do not check robots.txt before fetching")
	flags.StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	flags.StringVar(&llmProvider, "llm", "", "ask an AI provider for a second opinion (openai, anthropic, ollama, gemini)")
	flags.StringVar(&llmModel, "model", "", "AI model name (provider default if empty)")
}

// applyCommonFlags copies the flags shared by analyze and batch onto cfg
func applyCommonFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if language != "" {
		cfg.Output.Language = language
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if maxBytes > 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if ignoreRobot {
		cfg.HTTP.RespectRobots = false
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if noColor {
		cfg.Output.Color = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeURL != "" && len(args) > 0 {
		return fmt.Errorf("give either a file or --url, not both")
	}
	if analyzeURL == "" && len(args) == 0 {
		return fmt.Errorf("nothing to analyze: give a file, '-' for stdin, or --url")
	}

	a, err := setup(func(cfg *model.Config) {
		applyCommonFlags(cmd, cfg)
		if cmd.Flags().Changed("timeout") {
			cfg.HTTP.Timeout = timeout
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req := pipeline.Request{
		URL:      analyzeURL,
		Language: a.cfg.Output.Language,
		Simplify: simplify,
		AI:       a.cfg.LLM.Provider != "",
	}
	if analyzeURL == "" {
		text, source, err := readDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		req.Text = text
		req.Source = source
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", describeInput(req, args))
		fmt.Fprintf(os.Stderr, "Taxonomy: %s (%d categories)\n", a.tax.Source(), len(a.tax.Categories()))
		fmt.Fprintf(os.Stderr, "Cache: %v\n", a.cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	report, err := a.service.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		res := report.Result
		fmt.Fprintf(os.Stderr, "✓ Segmented %d clauses (%s)\n", len(res.Clauses), res.Structure.Mode)
		fmt.Fprintf(os.Stderr, "✓ Matched %d categories\n", len(res.MatchedCategories))
		fmt.Fprintf(os.Stderr, "✓ Found %d threat chains\n", len(res.ThreatChains))
		if report.AI != nil && report.AI.Merged {
			fmt.Fprintf(os.Stderr, "✓ Merged AI assessment from %s/%s\n", report.AI.Provider, report.AI.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(a.cfg.Output.IncludeFooter, a.cfg.Output.Color)
	var progress io.Writer
	if verbose {
		progress = os.Stderr
	}
	if err := renderer.RenderReport(report, outJSON, outMD, progress); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch outFormat {
	case "json":
		err = renderer.WriteJSON(out, report)
	case "markdown", "md":
		err = renderer.WriteMarkdown(out, report)
	case "summary", "":
		renderer.RenderSummary(out, report)
	default:
		return fmt.Errorf("unknown format %q (want summary, json or markdown)", outFormat)
	}
	if err != nil {
		return err
	}

	if showAudio {
		_, _ = fmt.Fprintln(out, report.Audio)
	}
	return nil
}

// readDocument reads a contract from a file or, for "-", from stdin
func readDocument(path string, stdin io.Reader) (text, source string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), path, nil
}

func describeInput(req pipeline.Request, args []string) string {
	if req.URL != "" {
		return req.URL
	}
	return args[0]
}
