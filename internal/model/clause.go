package model

// Clause is an ordered, 0-indexed span of cleaned document text
type Clause struct {
	Index     int    `json:"index"`            // Position in document order (0-based)
	Text      string `json:"text"`             // Clause text after markup stripping
	Section   int    `json:"section"`          // Section the clause came from (0 when unsectioned)
	WordCount int    `json:"word_count"`       // Whitespace-delimited word count
	Length    int    `json:"length"`           // Length in runes
	Marker    string `json:"marker,omitempty"` // Clause marker that opened this clause, if any
}

// SegmentationMode records which segmentation path produced the clauses
type SegmentationMode string

const (
	SegmentationEmpty      SegmentationMode = "empty"      // No text after cleaning
	SegmentationStructural SegmentationMode = "structural" // Sections found, split by clause markers
	SegmentationSentence   SegmentationMode = "sentence"   // Fallback flat sentence split
)

// StructureSummary describes the shape of a segmented document
type StructureSummary struct {
	TotalClauses   int              `json:"total_clauses"`
	Sections       int              `json:"sections"`
	AvgClauseWords float64          `json:"avg_clause_words"`
	MarkerClauses  int              `json:"marker_clauses"`
	Mode           SegmentationMode `json:"segmentation_mode"`
}

// Summarize builds a StructureSummary for the given clauses
func Summarize(clauses []Clause, sections int, mode SegmentationMode) StructureSummary {
	s := StructureSummary{
		TotalClauses: len(clauses),
		Sections:     sections,
		Mode:         mode,
	}
	if len(clauses) == 0 {
		return s
	}

	words := 0
	for _, c := range clauses {
		words += c.WordCount
		if c.Marker != "" {
			s.MarkerClauses++
		}
	}
	s.AvgClauseWords = float64(words) / float64(len(clauses))
	return s
}
