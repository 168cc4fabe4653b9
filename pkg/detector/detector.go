// Package detector classifies arbitrary clipboard or selection text.
package detector

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// hostPattern requires at least one dot-separated label pair or localhost,
// so bare words like "hello" never pass as hosts.
var hostPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(:\d+)?$|^localhost(:\d+)?$`)

// IsURL reports whether text has the shape of an absolute http(s) URL.
// Pure and total: no network access, never an error.
func IsURL(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n\r") {
		return false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return hostPattern.MatchString(parsed.Host)
}

// Candidate languages for description hints. Kept small: lingua loads one
// model per language and embed descriptions are short.
var hintLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Japanese,
	lingua.Chinese,
}

var (
	languageDetector     lingua.LanguageDetector
	languageDetectorOnce sync.Once
)

// DetectLanguage returns a lowercase ISO 639-1 code for the dominant
// language of text, or "" when text is too short or ambiguous.
func DetectLanguage(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 10 {
		return ""
	}

	languageDetectorOnce.Do(func() {
		languageDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(hintLanguages...).
			WithMinimumRelativeDistance(0.25).
			Build()
	})

	language, ok := languageDetector.DetectLanguageOf(trimmed)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
