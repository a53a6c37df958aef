package explain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SimplifyMaxRunes bounds the simplified preview
const SimplifyMaxRunes = 500

type jargonTerm struct {
	pattern *regexp.Regexp
	plain   string
}

// jargon maps legal terms to plain words. Multi-word terms come first.
var jargon = compileJargon([][2]string{
	{"agree to", "promise to"},
	{"hereinafter", "from now on"},
	{"notwithstanding", "even if"},
	{"indemnify", "pay for losses"},
	{"jurisdiction", "where to go to court"},
	{"arbitration", "private judge"},
	{"liability", "responsibility"},
	{"termination", "ending"},
	{"confidential", "secret"},
	{"obligation", "duty"},
	{"warrant", "guarantee"},
	{"shall", "must"},
})

func compileJargon(pairs [][2]string) []jargonTerm {
	out := make([]jargonTerm, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, jargonTerm{
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			plain:   p[1],
		})
	}
	return out
}

// Simplify replaces legal jargon with plain words and cuts the result to
// SimplifyMaxRunes runes. A capitalized term keeps its capital.
func Simplify(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	for _, term := range jargon {
		text = term.pattern.ReplaceAllStringFunc(text, func(found string) string {
			r, _ := utf8.DecodeRuneInString(found)
			if unicode.IsUpper(r) {
				return capitalize(term.plain)
			}
			return term.plain
		})
	}

	runes := []rune(text)
	if len(runes) > SimplifyMaxRunes {
		return string(runes[:SimplifyMaxRunes]) + "..."
	}
	return text
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
