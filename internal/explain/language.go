// Package explain turns an analysis into presentation text: mitigation
// recommendations, a short localized explanation, a spoken audio script and
// a plain-language simplification of the contract.
package explain

import (
	"golang.org/x/text/language"
)

// Language is a supported output language
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Spanish Language = "es"
)

var (
	supported = []Language{English, Hindi, Spanish}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Hindi, language.Spanish})
)

// Supported lists the output languages, default first
func Supported() []Language {
	return append([]Language(nil), supported...)
}

// Resolve maps a BCP 47 tag ("es-MX", "hi", "en-GB") to a supported
// language. Unknown or malformed tags resolve to English.
func Resolve(tag string) Language {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, index, confidence := matcher.Match(t)
	if confidence == language.No {
		return English
	}
	return supported[index]
}
