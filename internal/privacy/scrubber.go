// Package privacy redacts personal data from contract text before analysis
package privacy

import (
	"regexp"

	"github.com/ppiankov/clausewise/internal/model"
)

// Kind is a category of personal data
type Kind string

const (
	KindEmail      Kind = "email"
	KindCreditCard Kind = "credit_card"
	KindSSN        Kind = "ssn"
	KindPhone      Kind = "phone"
	KindAddress    Kind = "address"
)

type rule struct {
	kind        Kind
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; card and SSN numbers are redacted before the looser
// phone pattern sees them
var rules = []rule{
	{KindEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL_REDACTED]"},
	{KindCreditCard, regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), "[CARD_REDACTED]"},
	{KindSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN_REDACTED]"},
	{KindPhone, regexp.MustCompile(`(?:\+\d{1,3}[-. ]?)?(?:\(\d{3}\)|\b\d{3})[-. ]?\d{3}[-. ]?\d{4}\b`), "[PHONE_REDACTED]"},
	{KindAddress, regexp.MustCompile(`(?i)\b\d{1,5}\s+(?:[a-z0-9.'-]+\s+){1,3}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl|terrace|parkway|pkwy)\b\.?`), "[ADDRESS_REDACTED]"},
}

// Scrubber replaces personal data with typed placeholders
type Scrubber struct {
	enabled bool
}

// NewScrubber creates a scrubber. A disabled scrubber returns text unchanged
// but still reports what it found.
func NewScrubber(enabled bool) *Scrubber {
	return &Scrubber{enabled: enabled}
}

// Scrub returns text with personal data redacted
func (s *Scrubber) Scrub(text string) string {
	out, _ := s.Process(text)
	return out
}

// Process redacts text and reports counts per kind of personal data
func (s *Scrubber) Process(text string) (string, model.PIISummary) {
	summary := model.PIISummary{Counts: map[string]int{}, Scrubbed: s.enabled}

	work := text
	for _, r := range rules {
		n := len(r.pattern.FindAllStringIndex(work, -1))
		if n == 0 {
			continue
		}
		summary.Counts[string(r.kind)] = n
		summary.Total += n
		// Detection also redacts internally so later rules do not recount
		work = r.pattern.ReplaceAllLiteralString(work, r.placeholder)
	}
	summary.Detected = summary.Total > 0

	if !s.enabled {
		return text, summary
	}
	return work, summary
}

// Detect reports personal data found in text without changing it
func Detect(text string) model.PIISummary {
	_, summary := NewScrubber(false).Process(text)
	return summary
}
