// Package score computes the composite 0-10 risk score of a document from
// four independent sub-scores and maps scores to risk levels.
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
	"github.com/ppiankov/clausewise/internal/util"
)

const maxScore = 10.0

// Scorer calculates the document risk score and generates signals
type Scorer struct {
	cfg        model.ScoringConfig
	indicators []string
	ambiguity  []string
}

// NewScorer creates a scorer with the given constants and the taxonomy's
// risk-indicator and ambiguity phrase lists
func NewScorer(cfg model.ScoringConfig, tax *taxonomy.Taxonomy) *Scorer {
	return &Scorer{
		cfg:        cfg,
		indicators: tax.RiskIndicators(),
		ambiguity:  tax.AmbiguityPhrases(),
	}
}

// Score calculates the document score components and diagnostic signals
func (s *Scorer) Score(clauses []model.Clause, matches model.MatchSet) model.ScoreComponents {
	var signals []model.Signal

	// 1. Category severity
	category, categorySignal := s.categoryScore(matches.Matches)
	signals = append(signals, categorySignal)

	// 2. Lexical density
	lexical, lexicalSignal := s.lexicalScore(clauses)
	signals = append(signals, lexicalSignal)

	// 3. Structure
	structural, structuralSignal := s.structuralScore(clauses)
	signals = append(signals, structuralSignal)

	// 4. Ambiguity
	ambiguity, ambiguitySignal := s.ambiguityScore(clauses)
	signals = append(signals, ambiguitySignal)

	total := s.combine(category, structural, lexical, ambiguity)

	return model.ScoreComponents{
		Category:   round2(category),
		Lexical:    round2(lexical),
		Structural: round2(structural),
		Ambiguity:  round2(ambiguity),
		Weights:    s.cfg.Weights,
		Total:      total,
		Level:      LevelFor(total, s.cfg.Thresholds),
		Signals:    signals,
	}
}

// ScoreClause applies the same four sub-scores to a single clause.
// matches are the matches of that clause.
func (s *Scorer) ScoreClause(clause model.Clause, matches []model.Match) model.ClauseScore {
	single := []model.Clause{clause}

	category, _ := s.categoryScore(matches)
	lexical, _ := s.lexicalScore(single)
	structural, _ := s.structuralScore(single)
	ambiguity, _ := s.ambiguityScore(single)
	total := s.combine(category, structural, lexical, ambiguity)

	var categories []string
	for _, m := range matches {
		categories = append(categories, m.Category)
	}

	return model.ClauseScore{
		ClauseIndex: clause.Index,
		Score:       total,
		WordCount:   clause.WordCount,
		Complexity:  complexityLabel(total),
		Categories:  categories,
	}
}

// ScoreClauses scores every clause with its own matches
func (s *Scorer) ScoreClauses(clauses []model.Clause, matches model.MatchSet) []model.ClauseScore {
	out := make([]model.ClauseScore, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, s.ScoreClause(c, matches.ForClause(c.Index)))
	}
	return out
}

// Level maps a score to a risk level with the configured thresholds
func (s *Scorer) Level(score float64) model.RiskLevel {
	return LevelFor(score, s.cfg.Thresholds)
}

// LevelFor maps a score to a risk level. It is a monotonic step function:
// score >= Critical is CRITICAL, >= High is HIGH, >= Medium is MEDIUM.
func LevelFor(score float64, t model.Thresholds) model.RiskLevel {
	switch {
	case score >= t.Critical:
		return model.RiskCritical
	case score >= t.High:
		return model.RiskHigh
	case score >= t.Medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func (s *Scorer) combine(category, structural, lexical, ambiguity float64) float64 {
	w := s.cfg.Weights
	total := category*w.Category + structural*w.Structural + lexical*w.Lexical + ambiguity*w.Ambiguity
	return round2(clamp(total))
}

// categoryScore is the mean severity over all matches (not clauses)
func (s *Scorer) categoryScore(matches []model.Match) (float64, model.Signal) {
	if len(matches) == 0 {
		return s.cfg.BaselineCategoryScore, model.Signal{
			Type:        model.SignalCategorySeverity,
			Severity:    model.SeverityInfo,
			Description: "No risk categories matched; using baseline",
			Data: map[string]interface{}{
				"matches":  0,
				"baseline": s.cfg.BaselineCategoryScore,
				"formula":  "baseline when no matches",
			},
		}
	}

	total := 0.0
	for _, m := range matches {
		total += m.Severity
	}
	score := clamp(total / float64(len(matches)))

	return score, model.Signal{
		Type:        model.SignalCategorySeverity,
		Severity:    s.severityFor(score),
		Description: fmt.Sprintf("%d category matches, mean severity %.2f", len(matches), score),
		Data: map[string]interface{}{
			"matches":        len(matches),
			"total_severity": total,
			"score":          round2(score),
			"formula":        "min(sum(match_severity) / match_count, 10)",
		},
	}
}

// lexicalScore is the share of clauses carrying a risk indicator, scaled
func (s *Scorer) lexicalScore(clauses []model.Clause) (float64, model.Signal) {
	if len(clauses) == 0 {
		return 0, model.Signal{
			Type:        model.SignalLexicalDensity,
			Severity:    model.SeverityInfo,
			Description: "No clauses to analyze",
			Data:        map[string]interface{}{"clauses": 0},
		}
	}

	flagged := 0
	for _, c := range clauses {
		lower := strings.ToLower(c.Text)
		for _, indicator := range s.indicators {
			if strings.Contains(lower, indicator) {
				flagged++
				break
			}
		}
	}

	density := float64(flagged) / float64(len(clauses))
	score := clamp(density * s.cfg.LexicalMultiplier)

	return score, model.Signal{
		Type:        model.SignalLexicalDensity,
		Severity:    s.severityFor(score),
		Description: fmt.Sprintf("%d of %d clauses contain risk indicators", flagged, len(clauses)),
		Data: map[string]interface{}{
			"clauses":    len(clauses),
			"flagged":    flagged,
			"density":    round2(density),
			"multiplier": s.cfg.LexicalMultiplier,
			"score":      round2(score),
			"formula":    "min(flagged_clauses / clause_count * multiplier, 10)",
		},
	}
}

// structuralScore combines the complex-clause ratio and normalized length
func (s *Scorer) structuralScore(clauses []model.Clause) (float64, model.Signal) {
	if len(clauses) == 0 {
		return 0, model.Signal{
			Type:        model.SignalStructure,
			Severity:    model.SeverityInfo,
			Description: "No clauses to analyze",
			Data:        map[string]interface{}{"clauses": 0},
		}
	}

	words := 0
	complexCount := 0
	for _, c := range clauses {
		words += c.WordCount
		if s.isComplex(c) {
			complexCount++
		}
	}

	ratio := float64(complexCount) / float64(len(clauses))
	lengthFactor := math.Min(1.0, float64(words)/float64(s.cfg.LengthNormalizationWords))
	score := clamp((ratio*s.cfg.ComplexityWeight + lengthFactor*s.cfg.LengthWeight) * maxScore)

	return score, model.Signal{
		Type:        model.SignalStructure,
		Severity:    s.severityFor(score),
		Description: fmt.Sprintf("%d of %d clauses are complex, %d words total", complexCount, len(clauses), words),
		Data: map[string]interface{}{
			"clauses":         len(clauses),
			"complex_clauses": complexCount,
			"complex_ratio":   round2(ratio),
			"words":           words,
			"length_factor":   round2(lengthFactor),
			"score":           round2(score),
			"formula":         "(complex_ratio * complexity_weight + min(words / normalization, 1) * length_weight) * 10",
		},
	}
}

// ambiguityScore counts hedging phrase occurrences across all clauses
func (s *Scorer) ambiguityScore(clauses []model.Clause) (float64, model.Signal) {
	occurrences := 0
	found := make(map[string]int)
	for _, c := range clauses {
		lower := strings.ToLower(c.Text)
		for _, phrase := range s.ambiguity {
			if n := util.CountWords(lower, phrase); n > 0 {
				occurrences += n
				found[phrase] += n
			}
		}
	}

	score := clamp(float64(occurrences) * s.cfg.AmbiguityWeight)

	return score, model.Signal{
		Type:        model.SignalAmbiguity,
		Severity:    s.severityFor(score),
		Description: fmt.Sprintf("%d ambiguous phrase occurrences", occurrences),
		Data: map[string]interface{}{
			"occurrences": occurrences,
			"phrases":     found,
			"weight":      s.cfg.AmbiguityWeight,
			"score":       round2(score),
			"formula":     "min(occurrences * weight, 10)",
		},
	}
}

func (s *Scorer) isComplex(c model.Clause) bool {
	return strings.Contains(c.Text, ";") || c.WordCount > s.cfg.ComplexClauseWords
}

func (s *Scorer) severityFor(score float64) model.SignalSeverity {
	switch {
	case score >= s.cfg.Thresholds.High:
		return model.SeverityCritical
	case score >= s.cfg.Thresholds.Medium:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// complexityLabel buckets a clause score: high above 5, medium above 3
func complexityLabel(score float64) string {
	switch {
	case score > 5:
		return "high"
	case score > 3:
		return "medium"
	default:
		return "low"
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
