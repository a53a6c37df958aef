// Package taxonomy holds the process-wide legal-risk reference data: risk
// categories with their trigger phrases, related-category groups, clause
// markers, risk indicators and ambiguity phrases.
//
// A Taxonomy is built once at startup (from a YAML file or the embedded
// default) and is read-only afterwards, so it is safe for concurrent use.
package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/clausewise/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// BuiltinSource names the embedded taxonomy
const BuiltinSource = "builtin"

// Category is a compiled, read-only risk category
type Category struct {
	Name           string
	DisplayName    string
	Triggers       []string // lower-cased, in match order
	Severity       float64
	Tier           model.Tier
	Priority       model.Priority
	Consequence    string
	Recommendation string
	Related        []string // other categories sharing a group, taxonomy order
}

// Group is a named set of related categories
type Group struct {
	Name    string
	Members []string
}

// Taxonomy is the immutable reference data used by every pipeline stage
type Taxonomy struct {
	source           string
	file             File
	categories       []Category
	index            map[string]int
	groups           []Group
	memberOf         map[string][]string // category -> group names
	clauseMarkers    []string
	riskIndicators   []string
	ambiguityPhrases []string
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded taxonomy. The embedded file is validated by
// tests, so a failure here is a build defect.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML, BuiltinSource)
		if err != nil {
			panic(fmt.Sprintf("built-in taxonomy is invalid: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Load reads a taxonomy from path. An empty path returns the built-in
// taxonomy. Every failure is a *model.ConfigurationError.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ConfigurationError{Source: path, Err: fmt.Errorf("read taxonomy: %w", err)}
	}
	return Parse(data, path)
}

// Parse decodes and validates a taxonomy document
func Parse(data []byte, source string) (*Taxonomy, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &model.ConfigurationError{Source: source, Err: fmt.Errorf("decode taxonomy: %w", err)}
	}

	if err := fileValidate.Struct(f); err != nil {
		return nil, &model.ConfigurationError{Source: source, Err: describeValidation(err)}
	}

	t, err := compile(f)
	if err != nil {
		return nil, &model.ConfigurationError{Source: source, Err: err}
	}
	t.source = source
	return t, nil
}

func compile(f File) (*Taxonomy, error) {
	t := &Taxonomy{
		file:     f,
		index:    make(map[string]int, len(f.Categories)),
		memberOf: make(map[string][]string),
	}

	for i, spec := range f.Categories {
		if _, dup := t.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", spec.Name)
		}
		t.index[spec.Name] = i
		t.categories = append(t.categories, Category{
			Name:           spec.Name,
			DisplayName:    spec.DisplayName,
			Triggers:       lowerAll(spec.Triggers),
			Severity:       spec.Severity,
			Tier:           model.Tier(spec.Tier),
			Priority:       model.Priority(spec.Priority),
			Consequence:    spec.Consequence,
			Recommendation: spec.Recommendation,
		})
	}

	seenGroups := make(map[string]bool)
	for _, g := range f.Groups {
		if seenGroups[g.Name] {
			return nil, fmt.Errorf("duplicate group %q", g.Name)
		}
		seenGroups[g.Name] = true
		for _, m := range g.Members {
			if _, ok := t.index[m]; !ok {
				return nil, fmt.Errorf("group %q references unknown category %q", g.Name, m)
			}
			t.memberOf[m] = append(t.memberOf[m], g.Name)
		}
		t.groups = append(t.groups, Group{Name: g.Name, Members: append([]string(nil), g.Members...)})
	}

	// Related sets in taxonomy order
	for i := range t.categories {
		name := t.categories[i].Name
		for _, other := range t.categories {
			if other.Name != name && t.sharedGroup(name, other.Name) != "" {
				t.categories[i].Related = append(t.categories[i].Related, other.Name)
			}
		}
	}

	t.clauseMarkers = lowerAll(f.ClauseMarkers)
	t.riskIndicators = lowerAll(f.RiskIndicators)
	t.ambiguityPhrases = lowerAll(f.AmbiguityPhrases)
	return t, nil
}

// Source returns where the taxonomy was loaded from
func (t *Taxonomy) Source() string { return t.source }

// Version returns the taxonomy file version
func (t *Taxonomy) Version() int { return t.file.Version }

// File returns a copy of the taxonomy as written, for display
func (t *Taxonomy) File() File { return t.file }

// Categories returns all categories in match order
func (t *Taxonomy) Categories() []Category {
	return append([]Category(nil), t.categories...)
}

// Category looks up a category by name
func (t *Taxonomy) Category(name string) (Category, bool) {
	i, ok := t.index[name]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}

// Order returns the match-order position of a category, or -1
func (t *Taxonomy) Order(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Related returns the categories that share a group with name
func (t *Taxonomy) Related(name string) []string {
	c, ok := t.Category(name)
	if !ok {
		return nil
	}
	return append([]string(nil), c.Related...)
}

// Groups returns the related-category groups
func (t *Taxonomy) Groups() []Group {
	return append([]Group(nil), t.groups...)
}

// SharedGroup returns the first group (in file order) containing both
// categories, or "" when they are unrelated. A category is related to
// itself through any group it belongs to.
func (t *Taxonomy) SharedGroup(a, b string) string {
	return t.sharedGroup(a, b)
}

func (t *Taxonomy) sharedGroup(a, b string) string {
	for _, ga := range t.memberOf[a] {
		for _, gb := range t.memberOf[b] {
			if ga == gb {
				return ga
			}
		}
	}
	return ""
}

// ClauseMarkers returns the lower-cased clause-marker phrases
func (t *Taxonomy) ClauseMarkers() []string { return append([]string(nil), t.clauseMarkers...) }

// RiskIndicators returns the lower-cased lexical risk indicators
func (t *Taxonomy) RiskIndicators() []string { return append([]string(nil), t.riskIndicators...) }

// AmbiguityPhrases returns the lower-cased hedging phrases
func (t *Taxonomy) AmbiguityPhrases() []string { return append([]string(nil), t.ambiguityPhrases...) }

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid taxonomy: %s", strings.Join(msgs, "; "))
}
