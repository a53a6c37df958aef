package model

import "time"

// RiskLevel is the qualitative classification of a risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders risk levels from LOW (0) to CRITICAL (3)
func (l RiskLevel) Rank() int {
	switch l {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// MaxLevel returns the more severe of two levels
func MaxLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	if a == "" {
		return RiskLow
	}
	return a
}

// ScoreComponents is the transparent breakdown of a document risk score
type ScoreComponents struct {
	Category   float64      `json:"category"`        // Mean severity of matched categories
	Lexical    float64      `json:"lexical_density"` // Share of clauses carrying a risk indicator
	Structural float64      `json:"structural"`      // Clause complexity and document length
	Ambiguity  float64      `json:"ambiguity"`       // Hedging phrase occurrences
	Weights    ScoreWeights `json:"weights"`         // Combination weights used
	Total      float64      `json:"total"`           // Weighted sum, clamped to [0,10], 2 decimals
	Level      RiskLevel    `json:"level"`           // LevelFor(Total)
	Signals    []Signal     `json:"signals"`         // Diagnostic signals with formulas
}

// HasSignal reports whether a signal of type t was emitted
func (s ScoreComponents) HasSignal(t SignalType) bool {
	for _, sig := range s.Signals {
		if sig.Type == t {
			return true
		}
	}
	return false
}

// ClauseScore is the per-clause drill-down score
type ClauseScore struct {
	ClauseIndex int      `json:"clause_index"`
	Score       float64  `json:"score"`
	WordCount   int      `json:"word_count"`
	Complexity  string   `json:"complexity"` // high, medium, low
	Categories  []string `json:"categories,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCategorySeverity SignalType = "category_severity" // Matched category weights
	SignalLexicalDensity   SignalType = "lexical_density"   // Risk indicator coverage
	SignalStructure        SignalType = "structure"         // Complex clauses and length
	SignalAmbiguity        SignalType = "ambiguity"         // Hedging language
	SignalThreatEscalation SignalType = "threat_escalation" // Level raised by threat severity
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// ChainRelationship tags how steps in a threat chain relate
type ChainRelationship string

const (
	RelationshipSequential  ChainRelationship = "sequential_escalation"
	RelationshipCompounding ChainRelationship = "compounding"
)

// RiskDelta is the qualitative effect of a chain on overall risk
type RiskDelta string

const (
	DeltaIncreased   RiskDelta = "increased"
	DeltaExponential RiskDelta = "exponential"
)

// ChainStep is one category occurrence inside a threat chain
type ChainStep struct {
	Step        int    `json:"step"`
	Category    string `json:"category"`
	ClauseIndex int    `json:"clause_index"`
	Tier        Tier   `json:"tier"`
}

// ThreatChain links two or more matched categories
type ThreatChain struct {
	Steps        []ChainStep       `json:"steps"`
	Relationship ChainRelationship `json:"relationship"`
	Risk         RiskDelta         `json:"risk"`
	Group        string            `json:"group,omitempty"`
	Description  string            `json:"description,omitempty"`
}

// Threat is one inferred threat for a matched category
type Threat struct {
	Category    string `json:"category"`
	Consequence string `json:"consequence"`
	Tier        Tier   `json:"tier"`
	Clauses     []int  `json:"clauses"`
}

// SeveritySummary is the aggregate threat severity classification
type SeveritySummary struct {
	Overall      RiskLevel    `json:"overall"`
	Score        float64      `json:"score"`
	Counts       map[Tier]int `json:"counts"`
	TotalThreats int          `json:"total_threats"`
}

// CategoryCount is the per-category histogram entry
type CategoryCount struct {
	Category   string       `json:"category"`
	Count      int          `json:"count"`
	Severities map[Tier]int `json:"severities"`
}

// GraphNode is a visualization node (one chain step)
type GraphNode struct {
	ID     int    `json:"id"`
	Label  string `json:"label"`
	Clause int    `json:"clause"`
	Type   string `json:"type"`
}

// GraphEdge is a visualization edge between consecutive chain steps
type GraphEdge struct {
	From  int               `json:"from"`
	To    int               `json:"to"`
	Label ChainRelationship `json:"label"`
	Risk  RiskDelta         `json:"risk"`
}

// ThreatGraph is chain data prepared for visualization
type ThreatGraph struct {
	Nodes       []GraphNode `json:"nodes"`
	Edges       []GraphEdge `json:"edges"`
	TotalChains int         `json:"total_chains"`
}

// ThreatAnalysis is the output of the threat-chain engine
type ThreatAnalysis struct {
	Threats    []Threat        `json:"threats"`
	Chains     []ThreatChain   `json:"chains"`
	Severity   SeveritySummary `json:"severity"`
	Categories []CategoryCount `json:"categories"`
	Graph      ThreatGraph     `json:"graph"`
}

// Priority is the urgency of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

// Recommendation is a mitigation for one matched category
type Recommendation struct {
	Category       string   `json:"category"`
	Recommendation string   `json:"recommendation"`
	Clauses        []int    `json:"clauses"`
	Priority       Priority `json:"priority"`
}

// AnalysisResult is the output of analyze(document, language)
type AnalysisResult struct {
	RiskScore         float64                     `json:"risk_score"`
	RiskLevel         RiskLevel                   `json:"risk_level"`
	MatchedCategories map[string]CategoryEvidence `json:"matched_categories"`
	Threats           []string                    `json:"threats"`
	ThreatChains      []ThreatChain               `json:"threat_chains"`
	Recommendations   []Recommendation            `json:"recommendations"`
	Explanation       string                      `json:"explanation"`
	Language          string                      `json:"language"`

	// Drill-down detail
	Score        ScoreComponents  `json:"score"`
	Threat       ThreatAnalysis   `json:"threat_analysis"`
	Clauses      []Clause         `json:"clauses"`
	ClauseScores []ClauseScore    `json:"clause_scores"`
	Structure    StructureSummary `json:"structure"`
}

// PartialResult is a comparably-shaped result from an external AI provider
type PartialResult struct {
	RiskScore   float64  `json:"risk_score"`
	Threats     []string `json:"threats"`
	Clauses     []string `json:"clauses"`
	Explanation string   `json:"explanation,omitempty"`
}

// IsNeutral reports whether the partial result carries no signal
func (p PartialResult) IsNeutral() bool {
	return p.RiskScore == 0 && len(p.Threats) == 0 && len(p.Clauses) == 0
}

// AIAssessment records the external provider's contribution.
// It is merged by max score and threat union, never replacing the core result.
type AIAssessment struct {
	Enabled  bool          `json:"enabled"`
	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
	Partial  PartialResult `json:"partial"`
	Merged   bool          `json:"merged"`
	Warnings []string      `json:"warnings,omitempty"`
}

// PIISummary reports how much PII was found before analysis (counts only)
type PIISummary struct {
	Detected bool           `json:"detected"`
	Counts   map[string]int `json:"counts,omitempty"`
	Total    int            `json:"total"`
	Scrubbed bool           `json:"scrubbed"`
}

// Report is the envelope around an AnalysisResult produced by the service
type Report struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"` // File path, URL, "stdin" or "request"
	AnalyzedAt time.Time       `json:"analyzed_at"`
	Result     *AnalysisResult `json:"result"`
	PII        PIISummary      `json:"pii"`
	AI         *AIAssessment   `json:"ai,omitempty"`
	Simplified string          `json:"simplified,omitempty"` // Plain-language preview
	Audio      string          `json:"audio_script,omitempty"`
	Cached     bool            `json:"cached"`
	Principles Principles      `json:"principles"`
}

// Principles documents the guarantees the analysis was produced under
type Principles struct {
	Deterministic  bool `json:"deterministic"`    // Same text and taxonomy give the same result
	Transparent    bool `json:"transparent"`      // Every sub-score carries its formula
	NotLegalAdvice bool `json:"not_legal_advice"` // Output is a risk signal, not legal advice
}

// DefaultPrinciples returns the standard principles
func DefaultPrinciples() Principles {
	return Principles{
		Deterministic:  true,
		Transparent:    true,
		NotLegalAdvice: true,
	}
}
