package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Helper transforms a string value.
type Helper func(string) string

// helpers is the closed helper set. It is never mutated.
var helpers = map[string]Helper{
	"uppercase":  Uppercase,
	"lowercase":  Lowercase,
	"kebabCase":  KebabCase,
	"camelCase":  CamelCase,
	"pascalCase": PascalCase,
}

// IsHelper reports whether name is a known helper.
func IsHelper(name string) bool {
	_, ok := helpers[name]
	return ok
}

// HelperNames lists the helper names in a stable order.
func HelperNames() []string {
	return []string{"uppercase", "lowercase", "kebabCase", "camelCase", "pascalCase"}
}

// Uppercase upper-cases s. Casers are stateful, so each call builds its own.
func Uppercase(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Lowercase lower-cases s.
func Lowercase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// KebabCase turns "Open settings modal" or "openSettingsModal" into "open-settings-modal".
func KebabCase(s string) string {
	words := splitWords(s)
	lower := cases.Lower(language.Und)
	for i, w := range words {
		words[i] = lower.String(w)
	}
	return strings.Join(words, "-")
}

// CamelCase turns "open settings modal" into "openSettingsModal".
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(lower.String(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// PascalCase turns "open settings modal" into "OpenSettingsModal".
func PascalCase(s string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// splitWords splits on any non letter/digit rune and on lower-to-upper transitions.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	var prev rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) && len(cur) > 0:
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
