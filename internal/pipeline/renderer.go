package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/threat"
)

const footer = "_Generated by clausewise. This report is an automated risk signal, not legal advice._"

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
	color         bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter, color bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		color:         color,
	}
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, report)
	})
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteMarkdown(w, report)
	})
}

// RenderReport writes the JSON and Markdown outputs that have a path set.
// Progress lines go to progress when it is not nil.
func (r *Renderer) RenderReport(report *model.Report, jsonPath, mdPath string, progress io.Writer) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if progress != nil {
			_, _ = fmt.Fprintf(progress, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if progress != nil {
			_, _ = fmt.Fprintf(progress, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	return nil
}

// WriteMarkdown writes a human-readable Markdown report
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) error {
	res := report.Result
	var b strings.Builder

	b.WriteString("# Contract Risk Report\n\n")
	fmt.Fprintf(&b, "**Source:** %s  \n", report.Source)
	fmt.Fprintf(&b, "**Analyzed:** %s  \n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Risk score:** %.2f / 10  \n", res.RiskScore)
	fmt.Fprintf(&b, "**Risk level:** %s\n\n", res.RiskLevel)

	b.WriteString("## Explanation\n\n")
	b.WriteString(res.Explanation)
	b.WriteString("\n\n")

	b.WriteString("## Score Breakdown\n\n")
	b.WriteString("| Component | Score | Weight |\n|---|---|---|\n")
	s := res.Score
	fmt.Fprintf(&b, "| Category severity | %.2f | %.2f |\n", s.Category, s.Weights.Category)
	fmt.Fprintf(&b, "| Lexical density | %.2f | %.2f |\n", s.Lexical, s.Weights.Lexical)
	fmt.Fprintf(&b, "| Structural | %.2f | %.2f |\n", s.Structural, s.Weights.Structural)
	fmt.Fprintf(&b, "| Ambiguity | %.2f | %.2f |\n", s.Ambiguity, s.Weights.Ambiguity)
	fmt.Fprintf(&b, "| **Total** | **%.2f** | |\n\n", s.Total)

	if len(s.Signals) > 0 {
		b.WriteString("### Signals\n\n")
		for _, sig := range s.Signals {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", sig.Type, sig.Severity, sig.Description)
		}
		b.WriteString("\n")
	}

	if len(res.MatchedCategories) > 0 {
		b.WriteString("## Matched Categories\n\n")
		b.WriteString("| Category | Tier | Severity | Clauses |\n|---|---|---|---|\n")
		for _, ev := range sortedEvidence(res.MatchedCategories) {
			fmt.Fprintf(&b, "| %s | %s | %.1f | %s |\n", ev.DisplayName, ev.Tier, ev.Severity, clauseList(ev.Occurrences))
		}
		b.WriteString("\n")
	}

	if len(res.Threats) > 0 {
		b.WriteString("## Threats\n\n")
		for _, t := range res.Threats {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	if len(res.ThreatChains) > 0 {
		b.WriteString("## Threat Chains\n\n")
		for _, c := range res.ThreatChains {
			fmt.Fprintf(&b, "- %s, risk %s\n", threat.Describe(c), c.Risk)
		}
		b.WriteString("\n")
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range res.Recommendations {
			fmt.Fprintf(&b, "- **[%s] %s:** %s (clauses %s)\n", rec.Priority, rec.Category, rec.Recommendation, joinInts(rec.Clauses))
		}
		b.WriteString("\n")
	}

	if ai := report.AI; ai != nil {
		b.WriteString("## AI Assessment\n\n")
		if ai.Enabled {
			fmt.Fprintf(&b, "**Provider:** %s (%s)  \n", ai.Provider, ai.Model)
			fmt.Fprintf(&b, "**Provider score:** %.2f  \n", ai.Partial.RiskScore)
			fmt.Fprintf(&b, "**Merged:** %t\n\n", ai.Merged)
		}
		for _, warn := range ai.Warnings {
			fmt.Fprintf(&b, "> %s\n", warn)
		}
		b.WriteString("\n")
	}

	if report.PII.Detected {
		b.WriteString("## Personal Data\n\n")
		fmt.Fprintf(&b, "%d item(s) of personal data found", report.PII.Total)
		if report.PII.Scrubbed {
			b.WriteString(" and redacted before analysis")
		}
		b.WriteString(".\n\n")
	}

	if report.Simplified != "" {
		b.WriteString("## Plain Language\n\n")
		b.WriteString(report.Simplified)
		b.WriteString("\n\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(footer)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a short styled summary for the terminal
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result
	lr := lipgloss.NewRenderer(w)

	title := lr.NewStyle().Bold(true)
	dim := lr.NewStyle().Faint(true)
	level := lr.NewStyle().Bold(true).Foreground(levelColor(res.RiskLevel))

	style := func(s lipgloss.Style, text string) string {
		if !r.color {
			return text
		}
		return s.Render(text)
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", style(title, "Contract risk: "+report.Source))
	_, _ = fmt.Fprintf(w, "  Score: %.2f / 10  Level: %s\n", res.RiskScore, style(level, string(res.RiskLevel)))
	_, _ = fmt.Fprintf(w, "  Clauses: %d  Categories: %d  Chains: %d\n",
		len(res.Clauses), len(res.MatchedCategories), len(res.ThreatChains))

	for _, t := range res.Threats {
		_, _ = fmt.Fprintf(w, "  • %s\n", t)
	}

	if report.AI != nil && report.AI.Merged {
		_, _ = fmt.Fprintf(w, "  %s\n", style(dim, fmt.Sprintf("AI assessment from %s merged", report.AI.Provider)))
	}
	if report.Cached {
		_, _ = fmt.Fprintf(w, "  %s\n", style(dim, "(cached result)"))
	}
	_, _ = fmt.Fprintln(w)
}

func levelColor(l model.RiskLevel) lipgloss.Color {
	switch l {
	case model.RiskCritical:
		return lipgloss.Color("9")
	case model.RiskHigh:
		return lipgloss.Color("208")
	case model.RiskMedium:
		return lipgloss.Color("11")
	default:
		return lipgloss.Color("10")
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// sortedEvidence orders matched categories by severity, then name
func sortedEvidence(m map[string]model.CategoryEvidence) []model.CategoryEvidence {
	out := make([]model.CategoryEvidence, 0, len(m))
	for _, ev := range m {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func clauseList(occ []model.Evidence) string {
	idx := make([]int, 0, len(occ))
	for _, o := range occ {
		idx = append(idx, o.ClauseIndex)
	}
	return joinInts(idx)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
