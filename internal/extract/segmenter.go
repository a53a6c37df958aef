package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/taxonomy"
	"github.com/ppiankov/clausewise/internal/util"
)

// sectionPatterns identify a line that starts a new section
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(section|article|clause)\s+\d+`), // Section 1, ARTICLE 2
	regexp.MustCompile(`^\d+(\.\d+)*\.\s+[A-Z]`),              // 1. TERMS, 2.1. Fees
	regexp.MustCompile(`^[A-Z][A-Z0-9 &/,'()-]*:`),            // GOVERNING LAW:
	regexp.MustCompile(`^[A-Z][A-Z0-9 &/,'()-]{2,}$`),         // DEFINITIONS
}

// Segmentation is the result of segmenting one document
type Segmentation struct {
	Clauses  []model.Clause
	Sections int
	Mode     model.SegmentationMode
}

// Summary returns the structure summary of the segmentation
func (s Segmentation) Summary() model.StructureSummary {
	return model.Summarize(s.Clauses, s.Sections, s.Mode)
}

// Segmenter splits document text into clauses
type Segmenter struct {
	markers []string
}

// NewSegmenter creates a segmenter using the taxonomy's clause markers
func NewSegmenter(tax *taxonomy.Taxonomy) *Segmenter {
	return &Segmenter{markers: tax.ClauseMarkers()}
}

// Segment splits text into clauses in document order. It never fails:
// empty input yields no clauses.
func (s *Segmenter) Segment(text string) []model.Clause {
	return s.SegmentDocument(text).Clauses
}

// SegmentDocument segments text and reports how it was split
func (s *Segmenter) SegmentDocument(text string) Segmentation {
	cleaned := Clean(text)
	if cleaned == "" {
		return Segmentation{Mode: model.SegmentationEmpty}
	}

	sections := splitSections(cleaned)
	if len(sections) > 1 {
		var clauses []model.Clause
		for i, section := range sections {
			for _, text := range s.splitClauses(section) {
				clauses = append(clauses, s.newClause(len(clauses), i+1, text))
			}
		}
		return Segmentation{Clauses: clauses, Sections: len(sections), Mode: model.SegmentationStructural}
	}

	var clauses []model.Clause
	for _, sentence := range splitSentences(strings.ReplaceAll(cleaned, "\n", " ")) {
		clauses = append(clauses, s.newClause(len(clauses), 0, sentence))
	}
	return Segmentation{Clauses: clauses, Sections: 1, Mode: model.SegmentationSentence}
}

func (s *Segmenter) newClause(index, section int, text string) model.Clause {
	return model.Clause{
		Index:     index,
		Text:      text,
		Section:   section,
		WordCount: len(strings.Fields(text)),
		Length:    utf8.RuneCountInString(text),
		Marker:    util.FirstWord(strings.ToLower(text), s.markers),
	}
}

// splitSections groups lines into sections. A boundary line starts a new
// section; the lines of a section are joined with a single space.
func splitSections(text string) []string {
	var sections []string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if isSectionBoundary(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, " "))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, " "))
	}
	return sections
}

func isSectionBoundary(line string) bool {
	for _, p := range sectionPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// splitClauses splits a section into clauses: a sentence carrying a clause
// marker starts a new clause, other sentences extend the current one.
func (s *Segmenter) splitClauses(section string) []string {
	var clauses []string
	var current []string

	for _, sentence := range splitSentences(section) {
		starts := util.FirstWord(strings.ToLower(sentence), s.markers) != ""
		if starts && len(current) > 0 {
			clauses = append(clauses, strings.Join(current, " "))
			current = nil
		}
		current = append(current, sentence)
	}
	if len(current) > 0 {
		clauses = append(clauses, strings.Join(current, " "))
	}
	return clauses
}

// splitSentences splits on runs of '.', '!' or '?' followed by whitespace or
// the end of text. Terminators stay with their sentence; empty results are
// dropped and list enumerators ("1.", "2.1.") stay with the text they number.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i
		for j+1 < len(text) && isTerminator(text[j+1]) {
			j++
		}
		if j+1 == len(text) || isSpace(text[j+1]) {
			sentence := strings.TrimSpace(text[start : j+1])
			if sentence != "" && !isEnumerator(sentence) {
				sentences = append(sentences, sentence)
				start = j + 1
			}
		}
		i = j
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isEnumerator(s string) bool {
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
			return false
		}
	}
	return true
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}
