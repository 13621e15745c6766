package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// headDelims splits a label before its first place-name delimiter:
// "CITY, COUNTRY", "CITY (CC)", "CITY / COUNTRY", "CITY-COUNTRY", "CITY - COUNTRY".
var headDelims = regexp.MustCompile(`[,/()\-]| - `)

// upper upper-cases s with Unicode-aware rules. A Caser is stateful, so a
// fresh one is built per call.
func upper(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// normalize upper-cases s and treats hyphens as spaces.
func normalize(s string) string {
	return strings.ReplaceAll(upper(s), "-", " ")
}

// head returns the text of an upper-cased label before its first delimiter.
func head(labelUpper string) string {
	return strings.TrimSpace(headDelims.Split(labelUpper, 2)[0])
}

// commaParts splits s on commas and trims every part.
func commaParts(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// words splits s into runs of letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// runePrefix returns the first n runes of s, or s when shorter.
func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
