package model

// MatchConfidence is the confidence attached to every category match.
// Matching is exact substring matching, so it is a constant.
const MatchConfidence = 0.85

// Tier is a static risk tier attached to a category
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Points returns the aggregate-severity point value for the tier
func (t Tier) Points() int {
	switch t {
	case TierHigh:
		return 9
	case TierMedium:
		return 6
	default:
		return 3
	}
}

// Match associates a clause with a category and the trigger phrase found in it
type Match struct {
	ClauseIndex int     `json:"clause_index"`
	Category    string  `json:"category"`
	Phrase      string  `json:"phrase"`
	Severity    float64 `json:"severity"`
	Tier        Tier    `json:"tier"`
	Confidence  float64 `json:"confidence"`
}

// MatchSet holds every match of a document in document order
// (clause index ascending, then taxonomy category order)
type MatchSet struct {
	Matches []Match `json:"matches"`
}

// Len returns the number of matches
func (s MatchSet) Len() int {
	return len(s.Matches)
}

// ForClause returns the matches found in the given clause, in category order
func (s MatchSet) ForClause(index int) []Match {
	var out []Match
	for _, m := range s.Matches {
		if m.ClauseIndex == index {
			out = append(out, m)
		}
	}
	return out
}

// ClauseIndices returns the distinct clause indices that carry at least one match
func (s MatchSet) ClauseIndices() []int {
	var out []int
	last := -1
	for _, m := range s.Matches {
		if m.ClauseIndex != last {
			out = append(out, m.ClauseIndex)
			last = m.ClauseIndex
		}
	}
	return out
}

// Categories returns distinct category names in order of first appearance
func (s MatchSet) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.Matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out
}

// ByCategory groups matches by category name
func (s MatchSet) ByCategory() map[string][]Match {
	out := make(map[string][]Match)
	for _, m := range s.Matches {
		out[m.Category] = append(out[m.Category], m)
	}
	return out
}

// Evidence is one occurrence of a category in a clause
type Evidence struct {
	ClauseIndex int    `json:"clause_index"`
	Phrase      string `json:"phrase"`
	Preview     string `json:"preview"`
}

// CategoryEvidence collects all evidence for one matched category
type CategoryEvidence struct {
	Category    string     `json:"category"`
	DisplayName string     `json:"display_name"`
	Severity    float64    `json:"severity"`
	Tier        Tier       `json:"tier"`
	Confidence  float64    `json:"confidence"`
	Occurrences []Evidence `json:"occurrences"`
}
