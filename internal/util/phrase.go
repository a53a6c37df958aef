package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsWord reports whether phrase occurs in text as a whole word or
// word sequence. Both arguments must already be lower-cased.
func ContainsWord(text, phrase string) bool {
	return indexWord(text, phrase, 0) >= 0
}

// CountWords counts non-overlapping whole-word occurrences of phrase in text.
// Both arguments must already be lower-cased.
func CountWords(text, phrase string) int {
	if phrase == "" {
		return 0
	}
	n := 0
	for from := 0; ; {
		i := indexWord(text, phrase, from)
		if i < 0 {
			return n
		}
		n++
		from = i + len(phrase)
	}
}

// FirstWord returns the first phrase (in list order) that occurs in text as
// a whole word, or "".
func FirstWord(text string, phrases []string) string {
	for _, p := range phrases {
		if ContainsWord(text, p) {
			return p
		}
	}
	return ""
}

func indexWord(text, phrase string, from int) int {
	if phrase == "" {
		return -1
	}
	for from <= len(text)-len(phrase) {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		from = start + 1
	}
	return -1
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
