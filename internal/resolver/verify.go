package resolver

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// Verification is the post-selection check of a committed label.
type Verification struct {
	CityMatch    bool    `json:"city_match"`
	RegionMatch  bool    `json:"region_match"`
	CountryMatch bool    `json:"country_match"`
	Similarity   float64 `json:"similarity"`
}

// OK reports whether every check passed.
func (v Verification) OK() bool {
	return v.CityMatch && v.RegionMatch && v.CountryMatch
}

// Verify checks that the selected label names the queried place. Multi-token
// and hyphenated cities only need their first token present, which tolerates
// spelling variants such as ALLGAEU vs ALLGAU.
func Verify(q Query, selected string) Verification {
	l := newLabel(selected)

	cityMatch := strings.Contains(l.upper, q.City) || strings.Contains(l.normalized, q.NormalizedCity())
	if !cityMatch && len(q.CityTokens()) > 1 {
		cityMatch = strings.Contains(l.normalized, q.firstToken())
	}

	v := Verification{
		CityMatch:    cityMatch,
		RegionMatch:  q.Region == "" || strings.Contains(l.upper, q.Region),
		CountryMatch: q.Country == "" || strings.Contains(l.upper, q.Country),
		Similarity:   matchr.JaroWinkler(q.NormalizedCity(), strings.ReplaceAll(l.head, "-", " "), false),
	}
	return v
}

// Diagnose describes a failed verification for the audit log.
func (v Verification) Diagnose(q Query, selected string) string {
	if v.OK() {
		return ""
	}
	var failed []string
	if !v.CityMatch {
		failed = append(failed, "city")
	}
	if !v.RegionMatch {
		failed = append(failed, fmt.Sprintf("region (expected %s)", q.Region))
	}
	if !v.CountryMatch {
		failed = append(failed, fmt.Sprintf("country (expected %s)", q.Country))
	}
	return fmt.Sprintf("destination mismatch: expected %q, selected %q; %s did not match; city similarity %.2f",
		q.Raw, selected, strings.Join(failed, ", "), v.Similarity)
}
