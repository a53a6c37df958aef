package extract

import (
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

// Matcher matches clauses against the taxonomy's risk categories
type Matcher struct {
	categories []taxonomy.Category
}

// NewMatcher creates a matcher over the taxonomy's categories
func NewMatcher(tax *taxonomy.Taxonomy) *Matcher {
	return &Matcher{categories: tax.Categories()}
}

// MatchClause returns the categories found in one clause, in taxonomy order.
// Per category only the first trigger found (in trigger order) is recorded.
func (m *Matcher) MatchClause(clause model.Clause) []model.Match {
	lower := strings.ToLower(clause.Text)

	var matches []model.Match
	for _, c := range m.categories {
		for _, trigger := range c.Triggers {
			if strings.Contains(lower, trigger) {
				matches = append(matches, model.Match{
					ClauseIndex: clause.Index,
					Category:    c.Name,
					Phrase:      trigger,
					Severity:    c.Severity,
					Tier:        c.Tier,
					Confidence:  model.MatchConfidence,
				})
				break
			}
		}
	}
	return matches
}

// Match matches every clause, preserving document order
func (m *Matcher) Match(clauses []model.Clause) model.MatchSet {
	var set model.MatchSet
	for _, clause := range clauses {
		set.Matches = append(set.Matches, m.MatchClause(clause)...)
	}
	return set
}

// Evidence builds the category -> evidence mapping for a match set.
// Previews are cut to previewRunes runes.
func (m *Matcher) Evidence(clauses []model.Clause, set model.MatchSet, previewRunes int) map[string]model.CategoryEvidence {
	out := make(map[string]model.CategoryEvidence)
	for _, match := range set.Matches {
		ev, ok := out[match.Category]
		if !ok {
			ev = model.CategoryEvidence{
				Category:    match.Category,
				DisplayName: m.displayName(match.Category),
				Severity:    match.Severity,
				Tier:        match.Tier,
				Confidence:  match.Confidence,
			}
		}

		preview := ""
		if match.ClauseIndex >= 0 && match.ClauseIndex < len(clauses) {
			preview = Preview(clauses[match.ClauseIndex].Text, previewRunes)
		}
		ev.Occurrences = append(ev.Occurrences, model.Evidence{
			ClauseIndex: match.ClauseIndex,
			Phrase:      match.Phrase,
			Preview:     preview,
		})
		out[match.Category] = ev
	}
	return out
}

func (m *Matcher) displayName(name string) string {
	for _, c := range m.categories {
		if c.Name == name {
			return c.DisplayName
		}
	}
	return name
}

// Preview truncates text to at most n runes, appending "..." when cut
func Preview(text string, n int) string {
	if n <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
