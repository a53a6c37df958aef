// Package threat infers threats, threat chains and aggregate threat severity
// from category matches.
package threat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
)

// Engine builds the threat analysis of a document
type Engine struct {
	tax *taxonomy.Taxonomy
	cfg model.ChainConfig
}

// NewEngine creates a threat-chain engine
func NewEngine(tax *taxonomy.Taxonomy, cfg model.ChainConfig) *Engine {
	return &Engine{tax: tax, cfg: cfg}
}

// Infer derives threats, chains, severity, categorisation and the
// visualization graph from matches. Matches must be in document order.
func (e *Engine) Infer(matches model.MatchSet) model.ThreatAnalysis {
	chains := e.chains(matches)

	return model.ThreatAnalysis{
		Threats:    e.threats(matches),
		Chains:     chains,
		Severity:   Severity(matches),
		Categories: e.categorise(matches),
		Graph:      e.graph(chains),
	}
}

// Consequences returns the consequence text of every threat, in order
func Consequences(threats []model.Threat) []string {
	out := make([]string, 0, len(threats))
	for _, t := range threats {
		out = append(out, t.Consequence)
	}
	return out
}

// threats lists one threat per distinct category in order of first appearance
func (e *Engine) threats(matches model.MatchSet) []model.Threat {
	byCategory := matches.ByCategory()

	var out []model.Threat
	for _, name := range matches.Categories() {
		c, _ := e.tax.Category(name)
		t := model.Threat{
			Category:    name,
			Consequence: c.Consequence,
			Tier:        c.Tier,
		}
		for _, m := range byCategory[name] {
			t.Clauses = append(t.Clauses, m.ClauseIndex)
		}
		out = append(out, t)
	}
	return out
}

// clauseMatches groups matches by clause, keeping document order
type clauseMatches struct {
	index   int
	matches []model.Match
}

func groupByClause(matches model.MatchSet) []clauseMatches {
	var out []clauseMatches
	for _, m := range matches.Matches {
		if n := len(out); n > 0 && out[n-1].index == m.ClauseIndex {
			out[n-1].matches = append(out[n-1].matches, m)
			continue
		}
		out = append(out, clauseMatches{index: m.ClauseIndex, matches: []model.Match{m}})
	}
	return out
}

// chains finds sequential chains between adjacent matched clauses, then
// compounding chains inside clauses with two or more categories, and caps
// the result.
func (e *Engine) chains(matches model.MatchSet) []model.ThreatChain {
	groups := groupByClause(matches)

	var sequential []model.ThreatChain
	for i := 0; i+1 < len(groups); i++ {
		if chain, ok := e.sequentialChain(groups[i], groups[i+1]); ok {
			sequential = append(sequential, chain)
		}
	}

	var compounding []model.ThreatChain
	for _, g := range groups {
		if len(g.matches) < 2 {
			continue
		}
		chain := model.ThreatChain{
			Relationship: model.RelationshipCompounding,
			Risk:         model.DeltaExponential,
			Description:  fmt.Sprintf("%d risk categories in clause %d amplify each other", len(g.matches), g.index),
		}
		for j, m := range g.matches {
			chain.Steps = append(chain.Steps, model.ChainStep{
				Step:        j + 1,
				Category:    m.Category,
				ClauseIndex: g.index,
				Tier:        m.Tier,
			})
		}
		compounding = append(compounding, chain)
	}

	return capChains(sequential, compounding, e.cfg.MaxChains)
}

// sequentialChain links the first related category pair (taxonomy order)
// of two adjacent matched clauses
func (e *Engine) sequentialChain(cur, next clauseMatches) (model.ThreatChain, bool) {
	for _, a := range cur.matches {
		for _, b := range next.matches {
			group := e.tax.SharedGroup(a.Category, b.Category)
			if group == "" {
				continue
			}
			return model.ThreatChain{
				Steps: []model.ChainStep{
					{Step: 1, Category: a.Category, ClauseIndex: cur.index, Tier: a.Tier},
					{Step: 2, Category: b.Category, ClauseIndex: next.index, Tier: b.Tier},
				},
				Relationship: model.RelationshipSequential,
				Risk:         model.DeltaIncreased,
				Group:        group,
				Description: fmt.Sprintf("%s in clause %d escalates %s in clause %d",
					a.Category, cur.index, b.Category, next.index),
			}, true
		}
	}
	return model.ThreatChain{}, false
}

// capChains keeps at most limit chains. Compounding chains outrank sequential
// ones and earlier chains outrank later ones; survivors keep discovery order
// (sequential first, then compounding).
func capChains(sequential, compounding []model.ThreatChain, limit int) []model.ThreatChain {
	if limit <= 0 || len(sequential)+len(compounding) <= limit {
		return append(sequential, compounding...)
	}

	keepCompounding := len(compounding)
	if keepCompounding > limit {
		keepCompounding = limit
	}
	keepSequential := limit - keepCompounding
	if keepSequential > len(sequential) {
		keepSequential = len(sequential)
	}

	out := make([]model.ThreatChain, 0, limit)
	out = append(out, sequential[:keepSequential]...)
	return append(out, compounding[:keepCompounding]...)
}

// Severity classifies the aggregate threat severity of the matches:
// tier points HIGH=9, MEDIUM=6, LOW=3 averaged over all matches.
func Severity(matches model.MatchSet) model.SeveritySummary {
	counts := map[model.Tier]int{model.TierHigh: 0, model.TierMedium: 0, model.TierLow: 0}
	total := 0
	for _, m := range matches.Matches {
		counts[m.Tier]++
		total += m.Tier.Points()
	}

	n := matches.Len()
	summary := model.SeveritySummary{Overall: model.RiskLow, Counts: counts, TotalThreats: n}
	if n == 0 {
		return summary
	}

	avg := float64(total) / float64(n)
	summary.Score = math.Round(avg*100) / 100

	switch {
	case avg >= 7.5 || counts[model.TierHigh] >= 3:
		summary.Overall = model.RiskCritical
	case avg >= 6 || counts[model.TierHigh] >= 1:
		summary.Overall = model.RiskHigh
	case avg >= 4 || counts[model.TierMedium] >= 2:
		summary.Overall = model.RiskMedium
	}
	return summary
}

// categorise counts matches per category, most frequent first, ties in
// taxonomy order
func (e *Engine) categorise(matches model.MatchSet) []model.CategoryCount {
	byCategory := matches.ByCategory()

	out := make([]model.CategoryCount, 0, len(byCategory))
	for name, ms := range byCategory {
		cc := model.CategoryCount{Category: name, Count: len(ms), Severities: map[model.Tier]int{}}
		for _, m := range ms {
			cc.Severities[m.Tier]++
		}
		out = append(out, cc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return e.tax.Order(out[i].Category) < e.tax.Order(out[j].Category)
	})
	return out
}

// graph lays chains out as nodes (one per step) and edges between
// consecutive steps of the same chain, capped for display. An edge is kept
// only when both of its nodes are.
func (e *Engine) graph(chains []model.ThreatChain) model.ThreatGraph {
	g := model.ThreatGraph{
		Nodes:       []model.GraphNode{},
		Edges:       []model.GraphEdge{},
		TotalChains: len(chains),
	}

	id := 0
	for _, chain := range chains {
		for i, step := range chain.Steps {
			id++
			if len(g.Nodes) < e.cfg.MaxGraphNodes {
				g.Nodes = append(g.Nodes, model.GraphNode{
					ID:     id,
					Label:  step.Category,
					Clause: step.ClauseIndex,
					Type:   "threat",
				})
			}
			if i > 0 && id <= len(g.Nodes) && len(g.Edges) < e.cfg.MaxGraphEdges {
				g.Edges = append(g.Edges, model.GraphEdge{
					From:  id - 1,
					To:    id,
					Label: chain.Relationship,
					Risk:  chain.Risk,
				})
			}
		}
	}
	return g
}

// Describe renders a chain as "a -> b (relationship)"
func Describe(chain model.ThreatChain) string {
	names := make([]string, 0, len(chain.Steps))
	for _, s := range chain.Steps {
		names = append(names, s.Category)
	}
	return fmt.Sprintf("%s (%s)", strings.Join(names, " -> "), chain.Relationship)
}
