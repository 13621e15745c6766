package resolver

import (
	"strings"
	"unicode/utf8"
)

// Base scores, one per matching tier.
const (
	ScoreDoubledCity      = 1100
	ScoreExact            = 1000
	ScoreNormalizedPrefix = 900
	ScoreTokensInOrder    = 800
	ScoreTokensAnyOrder   = 600
	ScoreFirstToken       = 400
	ScoreWeak             = 200
)

// Adjustments applied on top of a positive base score.
const (
	BonusCountry   = 50
	BonusRegion    = 300
	PenaltyRegion  = -500
	BonusPlainCity = 10
)

// MinConfidence is the lowest score selected without a low-confidence flag.
const MinConfidence = ScoreTokensInOrder

// label is a candidate string pre-split for scoring.
type label struct {
	raw        string
	upper      string
	normalized string
	head       string
	parts      []string
	words      []string
}

func newLabel(s string) label {
	u := upper(s)
	n := strings.ReplaceAll(u, "-", " ")
	return label{
		raw:        s,
		upper:      u,
		normalized: n,
		head:       head(u),
		parts:      commaParts(u),
		words:      words(n),
	}
}

// rule is one matching tier. Rules are evaluated top to bottom and the
// first match sets the base score. A final rule's score is returned as is.
type rule struct {
	name  string
	score int
	final bool
	match func(q Query, l label) bool
}

var rules = []rule{
	{
		// Portals render "PARIS, PARIS, FRANCE" when the region name equals the city.
		name:  "doubled_city",
		score: ScoreDoubledCity,
		final: true,
		match: func(q Query, l label) bool {
			return len(l.parts) >= 3 &&
				l.parts[0] == l.parts[1] &&
				l.parts[0] == q.City &&
				strings.Contains(l.upper, q.Country)
		},
	},
	{
		name:  "exact_head",
		score: ScoreExact,
		match: func(q Query, l label) bool {
			return l.head == q.City
		},
	},
	{
		name:  "normalized_prefix",
		score: ScoreNormalizedPrefix,
		match: func(q Query, l label) bool {
			city := q.NormalizedCity()
			for _, sep := range []string{",", " -", " /"} {
				if strings.HasPrefix(l.normalized, city+sep) {
					return true
				}
			}
			return false
		},
	},
	{
		// The whole normalized city, contiguous, anywhere in the label.
		name:  "tokens_in_order",
		score: ScoreTokensInOrder,
		match: func(q Query, l label) bool {
			return strings.Contains(l.normalized, strings.Join(q.CityTokens(), " "))
		},
	},
	{
		name:  "tokens_any_order",
		score: ScoreTokensAnyOrder,
		match: func(q Query, l label) bool {
			for _, tok := range q.CityTokens() {
				if !strings.Contains(l.normalized, tok) {
					return false
				}
			}
			return true
		},
	},
	{
		name:  "first_token",
		score: ScoreFirstToken,
		match: func(q Query, l label) bool {
			first := q.firstToken()
			for _, w := range l.words {
				if w == first {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "first_token_prefix",
		score: ScoreWeak,
		match: func(q Query, l label) bool {
			return strings.Contains(l.normalized, runePrefix(q.firstToken(), 4))
		},
	},
}

// Adjustment is a bonus or penalty added to a base score.
type Adjustment struct {
	Name  string `json:"name"`
	Delta int    `json:"delta"`
}

// ScoreBreakdown explains how a label was scored.
type ScoreBreakdown struct {
	Label       string       `json:"label"`
	Rule        string       `json:"rule,omitempty"`
	Base        int          `json:"base"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	Total       int          `json:"total"`
}

// Score returns the match score of label for q.
func Score(q Query, lbl string) int {
	return Explain(q, lbl).Total
}

// Explain scores label for q and reports the matching rule and every
// adjustment applied.
func Explain(q Query, lbl string) ScoreBreakdown {
	b := ScoreBreakdown{Label: lbl}
	if len(q.CityTokens()) == 0 {
		return b
	}

	l := newLabel(lbl)
	for _, r := range rules {
		if !r.match(q, l) {
			continue
		}
		b.Rule = r.name
		b.Base = r.score
		b.Total = r.score
		if r.final {
			return b
		}
		break
	}
	if b.Base <= 0 {
		return b
	}

	add := func(name string, delta int) {
		b.Adjustments = append(b.Adjustments, Adjustment{Name: name, Delta: delta})
		b.Total += delta
	}

	if q.Country != "" && strings.Contains(l.upper, q.Country) {
		add("country", BonusCountry)
	}

	switch {
	case q.Region != "" && len(l.parts) >= 3:
		middle := l.parts[1]
		if middle == q.Region {
			add("region_match", BonusRegion)
		} else if utf8.RuneCountInString(middle) <= 3 {
			add("region_mismatch", PenaltyRegion)
		}
	case q.Region == "" && len(l.parts) == 2:
		add("plain_city", BonusPlainCity)
	}

	return b
}
