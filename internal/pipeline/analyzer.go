package pipeline

import (
	"fmt"
	"math"

	"github.com/ppiankov/clausewise/internal/explain"
	"github.com/ppiankov/clausewise/internal/extract"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/score"
	"github.com/ppiankov/clausewise/internal/taxonomy"
	"github.com/ppiankov/clausewise/internal/threat"
)

// Analyzer runs the deterministic analysis core: segment, match, score,
// infer threats, recommend and explain. It holds only immutable state and is
// safe for concurrent use.
type Analyzer struct {
	tax         *taxonomy.Taxonomy
	segmenter   *extract.Segmenter
	matcher     *extract.Matcher
	scorer      *score.Scorer
	engine      *threat.Engine
	recommender *explain.Recommender
	formatter   *explain.Formatter
	scoring     model.ScoringConfig
	chains      model.ChainConfig
}

// NewAnalyzer builds the analysis core over a taxonomy and validated config
func NewAnalyzer(tax *taxonomy.Taxonomy, cfg model.Config) *Analyzer {
	return &Analyzer{
		tax:         tax,
		segmenter:   extract.NewSegmenter(tax),
		matcher:     extract.NewMatcher(tax),
		scorer:      score.NewScorer(cfg.Scoring, tax),
		engine:      threat.NewEngine(tax, cfg.Chains),
		recommender: explain.NewRecommender(tax, cfg.Chains.MaxRecommendRefs),
		formatter:   explain.NewFormatter(),
		scoring:     cfg.Scoring,
		chains:      cfg.Chains,
	}
}

// Taxonomy returns the category table the analyzer was built with
func (a *Analyzer) Taxonomy() *taxonomy.Taxonomy {
	return a.tax
}

// Analyze produces the full analysis of text. It never fails: empty text
// gives zero clauses, zero matches and the baseline score.
func (a *Analyzer) Analyze(text, lang string) *model.AnalysisResult {
	seg := a.segmenter.SegmentDocument(text)
	matches := a.matcher.Match(seg.Clauses)
	components := a.scorer.Score(seg.Clauses, matches)
	analysis := a.engine.Infer(matches)

	level := components.Level
	if a.scoring.EscalateOnThreatSeverity {
		level = model.MaxLevel(components.Level, analysis.Severity.Overall)
		if level != components.Level {
			components.Signals = append(components.Signals, model.Signal{
				Type:        model.SignalThreatEscalation,
				Severity:    model.SeverityWarning,
				Description: fmt.Sprintf("Risk level raised from %s to %s by aggregate threat severity", components.Level, level),
				Data: map[string]interface{}{
					"score_level":     string(components.Level),
					"threat_severity": string(analysis.Severity.Overall),
					"severity_score":  analysis.Severity.Score,
					"formula":         "max(level_for(total), threat_severity)",
				},
			})
		}
	}

	result := &model.AnalysisResult{
		RiskScore:         components.Total,
		RiskLevel:         level,
		MatchedCategories: a.matcher.Evidence(seg.Clauses, matches, a.chains.PreviewRunes),
		Threats:           threat.Consequences(analysis.Threats),
		ThreatChains:      analysis.Chains,
		Recommendations:   a.recommender.Recommend(matches),
		Language:          string(explain.Resolve(lang)),
		Score:             components,
		Threat:            analysis,
		Clauses:           seg.Clauses,
		ClauseScores:      a.scorer.ScoreClauses(seg.Clauses, matches),
		Structure:         seg.Summary(),
	}
	result.Explanation = a.formatter.Explain(result, result.Language)

	return result
}

// Merge combines the core result with an external provider's partial
// result: the higher score wins and threats are unioned, core threats
// first. The level never drops below the core level. A neutral partial
// leaves the result unchanged. core is not modified.
func (a *Analyzer) Merge(core *model.AnalysisResult, partial model.PartialResult) *model.AnalysisResult {
	merged := *core
	merged.Threats = append([]string(nil), core.Threats...)
	if partial.IsNeutral() {
		return &merged
	}

	partialScore := math.Round(math.Max(0, math.Min(10, partial.RiskScore))*100) / 100
	if partialScore > merged.RiskScore {
		merged.RiskScore = partialScore
	}

	seen := make(map[string]bool, len(merged.Threats))
	for _, t := range merged.Threats {
		seen[t] = true
	}
	for _, t := range partial.Threats {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged.Threats = append(merged.Threats, t)
	}

	scoreLevel := score.LevelFor(merged.RiskScore, a.scoring.Thresholds)
	merged.RiskLevel = model.MaxLevel(core.RiskLevel, scoreLevel)
	if scoreLevel == merged.RiskLevel {
		merged.Score.Signals = withoutSignal(core.Score.Signals, model.SignalThreatEscalation)
	}
	merged.Explanation = a.formatter.Explain(&merged, merged.Language)
	return &merged
}

func withoutSignal(signals []model.Signal, t model.SignalType) []model.Signal {
	out := make([]model.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.Type != t {
			out = append(out, sig)
		}
	}
	return out
}
