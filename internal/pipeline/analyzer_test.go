package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

const threeClauseContract = "The company shall indemnify against all claims. " +
	"All disputes go to binding arbitration. " +
	"Jurisdiction is exclusively in Delaware."

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	cfg := model.DefaultConfig()
	require.NoError(t, cfg.Validate())
	return NewAnalyzer(taxonomy.Default(), *cfg)
}

func TestAnalyze_ThreeClauseContract(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze(threeClauseContract, "en")

	require.Len(t, result.Clauses, 3)
	assert.Len(t, result.MatchedCategories, 3)
	for _, name := range []string{"indemnification", "arbitration", "jurisdiction"} {
		assert.Contains(t, result.MatchedCategories, name)
	}
	assert.Equal(t, []int{0}, occurrenceClauses(result.MatchedCategories["indemnification"]))
	assert.Equal(t, []int{1}, occurrenceClauses(result.MatchedCategories["arbitration"]))
	assert.Equal(t, []int{2}, occurrenceClauses(result.MatchedCategories["jurisdiction"]))

	assert.InDelta(t, 8.17, result.Score.Category, 0.001)
	assert.InDelta(t, 5.0, result.Score.Lexical, 0.001)
	assert.InDelta(t, 0.05, result.Score.Structural, 0.001)
	assert.InDelta(t, 0.0, result.Score.Ambiguity, 0.001)
	assert.InDelta(t, 4.27, result.RiskScore, 0.001)
	assert.Equal(t, model.RiskMedium, result.Score.Level)

	// Two HIGH-tier matches and one MEDIUM average 8 points: CRITICAL severity
	assert.Equal(t, model.RiskCritical, result.Threat.Severity.Overall)
	assert.Equal(t, model.RiskCritical, result.RiskLevel)
	last := result.Score.Signals[len(result.Score.Signals)-1]
	assert.Equal(t, model.SignalThreatEscalation, last.Type)

	assert.Equal(t, []string{
		"High financial liability risk",
		"Legal disputes may bypass courts",
		"May have to travel for legal proceedings",
	}, result.Threats)

	require.Len(t, result.ThreatChains, 1)
	chain := result.ThreatChains[0]
	assert.Equal(t, model.RelationshipSequential, chain.Relationship)
	assert.Equal(t, "legal_process", chain.Group)
	require.Len(t, chain.Steps, 2)
	assert.Equal(t, "arbitration", chain.Steps[0].Category)
	assert.Equal(t, 1, chain.Steps[0].ClauseIndex)
	assert.Equal(t, "jurisdiction", chain.Steps[1].Category)
	assert.Equal(t, 2, chain.Steps[1].ClauseIndex)

	assert.Len(t, result.Recommendations, 3)
	assert.Len(t, result.ClauseScores, 3)
	assert.Equal(t, "en", result.Language)
	assert.NotEmpty(t, result.Explanation)
	assert.Contains(t, result.Explanation, "CRITICAL")
	assert.Contains(t, result.Explanation, "Level raised by high-severity threats.")
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze("", "en")

	assert.Empty(t, result.Clauses)
	assert.Empty(t, result.MatchedCategories)
	assert.Empty(t, result.Threats)
	assert.Empty(t, result.ThreatChains)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, model.SegmentationEmpty, result.Structure.Mode)
	// Baseline category score only: 0.4 * 2.0
	assert.InDelta(t, 0.8, result.RiskScore, 0.001)
	assert.Equal(t, model.RiskLow, result.RiskLevel)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newTestAnalyzer(t)

	first, err := json.Marshal(a.Analyze(threeClauseContract, "es"))
	require.NoError(t, err)
	second, err := json.Marshal(a.Analyze(threeClauseContract, "es"))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestAnalyze_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze(threeClauseContract, "xx-unknown")
	assert.Equal(t, "en", result.Language)
}

func TestAnalyze_EscalationDisabled(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Scoring.EscalateOnThreatSeverity = false
	a := NewAnalyzer(taxonomy.Default(), *cfg)

	result := a.Analyze(threeClauseContract, "en")

	assert.Equal(t, model.RiskMedium, result.RiskLevel)
	for _, s := range result.Score.Signals {
		assert.NotEqual(t, model.SignalThreatEscalation, s.Type)
	}
}

func TestMerge_NeutralPartialLeavesResultUnchanged(t *testing.T) {
	a := newTestAnalyzer(t)
	core := a.Analyze(threeClauseContract, "en")

	merged := a.Merge(core, model.PartialResult{})

	assert.Equal(t, core.RiskScore, merged.RiskScore)
	assert.Equal(t, core.RiskLevel, merged.RiskLevel)
	assert.Equal(t, core.Threats, merged.Threats)
	assert.Equal(t, core.Explanation, merged.Explanation)
}

func TestMerge_TakesHigherScoreAndUnionsThreats(t *testing.T) {
	a := newTestAnalyzer(t)
	core := a.Analyze(threeClauseContract, "en")
	coreThreats := append([]string(nil), core.Threats...)

	merged := a.Merge(core, model.PartialResult{
		RiskScore: 9.126,
		Threats:   []string{"Legal disputes may bypass courts", "Unlimited liability", ""},
	})

	assert.InDelta(t, 9.13, merged.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, merged.RiskLevel)
	assert.Equal(t, append(coreThreats, "Unlimited liability"), merged.Threats)

	// The merged score alone reaches CRITICAL, so the escalation note goes
	assert.False(t, merged.Score.HasSignal(model.SignalThreatEscalation))
	assert.NotContains(t, merged.Explanation, "Level raised")

	// core is untouched
	assert.InDelta(t, 4.27, core.RiskScore, 0.001)
	assert.Equal(t, coreThreats, core.Threats)
}

func TestMerge_LowerScoreNeverLowersResult(t *testing.T) {
	a := newTestAnalyzer(t)
	core := a.Analyze(threeClauseContract, "en")

	merged := a.Merge(core, model.PartialResult{RiskScore: 1.5, Threats: []string{"Auto-renewal"}})

	assert.InDelta(t, core.RiskScore, merged.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, merged.RiskLevel)
	assert.Contains(t, merged.Threats, "Auto-renewal")
	assert.True(t, merged.Score.HasSignal(model.SignalThreatEscalation))
	assert.Contains(t, merged.Explanation, "Level raised by high-severity threats.")
}

func TestMerge_ClampsOutOfRangeScore(t *testing.T) {
	a := newTestAnalyzer(t)
	core := a.Analyze("Payment is due monthly.", "en")

	merged := a.Merge(core, model.PartialResult{RiskScore: 42})

	assert.InDelta(t, 10.0, merged.RiskScore, 0.001)
	assert.Equal(t, model.RiskCritical, merged.RiskLevel)
	assert.True(t, strings.HasPrefix(merged.Explanation, "Risk Score: 10.0/10 (CRITICAL)"))
}

func occurrenceClauses(ev model.CategoryEvidence) []int {
	out := make([]int, 0, len(ev.Occurrences))
	for _, o := range ev.Occurrences {
		out = append(out, o.ClauseIndex)
	}
	return out
}
