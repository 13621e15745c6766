package resolver

import (
	"strings"
	"unicode/utf8"
)

// stopTokens are leading words too generic to search on alone.
var stopTokens = map[string]bool{
	"LE": true, "LA": true, "DE": true, "DI": true, "DA": true, "DEL": true,
	"DES": true, "DU": true, "DO": true, "DOS": true, "DAS": true, "ST": true,
	"STE": true, "SAINT": true, "SAN": true, "SANTA": true, "EL": true,
	"AL": true, "THE": true, "OF": true,
}

// Query is a parsed destination place name such as "MUENSTER, NW, GERMANY".
// All fields except Raw are upper-cased.
type Query struct {
	Raw     string `json:"raw"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

// ParseQuery splits raw on commas. The last part is the country when there
// are at least two parts; the middle part is the region only when there are
// exactly three.
func ParseQuery(raw string) Query {
	q := Query{Raw: raw}
	parts := commaParts(raw)
	q.City = upper(parts[0])
	if len(parts) >= 2 {
		q.Country = upper(parts[len(parts)-1])
	}
	if len(parts) == 3 {
		q.Region = upper(parts[1])
	}
	return q
}

// NormalizedCity is the city with hyphens replaced by spaces.
func (q Query) NormalizedCity() string {
	return strings.ReplaceAll(q.City, "-", " ")
}

// CityTokens are the whitespace-separated tokens of the normalized city.
func (q Query) CityTokens() []string {
	return strings.Fields(q.NormalizedCity())
}

// firstToken is the leading city token used for loose matching.
func (q Query) firstToken() string {
	toks := q.CityTokens()
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

// SearchPrefix picks the text to type into the autocomplete field. Longer
// prefixes avoid matching unrelated longer names (VALENCE vs VALENCAY);
// shorter ones tolerate spelling and hyphenation differences.
func SearchPrefix(q Query) string {
	if strings.Contains(q.City, "-") {
		return strings.TrimSpace(strings.SplitN(q.City, "-", 2)[0])
	}

	toks := q.CityTokens()
	switch len(toks) {
	case 0:
		return ""
	case 1:
		return q.City
	}

	prefix := toks[0]
	if stopTokens[toks[0]] || utf8.RuneCountInString(toks[0]) < 3 {
		prefix = strings.Join(toks[:2], " ")
	}
	if utf8.RuneCountInString(strings.ReplaceAll(prefix, " ", "")) < 6 && len(toks) >= 3 {
		prefix = strings.Join(toks[:3], " ")
	}
	return prefix
}
