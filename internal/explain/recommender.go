package explain

import (
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

// Recommender maps matched categories to mitigation recommendations
type Recommender struct {
	tax     *taxonomy.Taxonomy
	maxRefs int
}

// NewRecommender creates a recommender listing at most maxRefs clause
// indices per recommendation
func NewRecommender(tax *taxonomy.Taxonomy, maxRefs int) *Recommender {
	return &Recommender{tax: tax, maxRefs: maxRefs}
}

// Recommend emits one recommendation per distinct matched category, in
// order of first appearance, with the first clauses where it was found
func (r *Recommender) Recommend(matches model.MatchSet) []model.Recommendation {
	byCategory := matches.ByCategory()

	out := make([]model.Recommendation, 0, len(byCategory))
	for _, name := range matches.Categories() {
		c, ok := r.tax.Category(name)
		if !ok {
			continue
		}

		rec := model.Recommendation{
			Category:       name,
			Recommendation: c.Recommendation,
			Clauses:        []int{},
			Priority:       c.Priority,
		}
		for _, m := range byCategory[name] {
			if len(rec.Clauses) == r.maxRefs {
				break
			}
			rec.Clauses = append(rec.Clauses, m.ClauseIndex)
		}
		out = append(out, rec)
	}
	return out
}
