package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want Query
	}{
		{"MUENSTER, NW, GERMANY", Query{Raw: "MUENSTER, NW, GERMANY", City: "MUENSTER", Region: "NW", Country: "GERMANY"}},
		{"Paris, France", Query{Raw: "Paris, France", City: "PARIS", Country: "FRANCE"}},
		{"Lyon", Query{Raw: "Lyon", City: "LYON"}},
		{"a, b, c, d", Query{Raw: "a, b, c, d", City: "A", Country: "D"}},
		{"  münchen ,de", Query{Raw: "  münchen ,de", City: "MÜNCHEN", Country: "DE"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.raw))
		})
	}
}

func TestParseQuery_CountryPresentForMultiPart(t *testing.T) {
	for _, raw := range []string{"A, B", "A, B, C", "A, B, C, D, E"} {
		assert.NotEmpty(t, ParseQuery(raw).Country, raw)
	}
}

func TestQuery_CityTokens(t *testing.T) {
	q := ParseQuery("GARMISCH-PARTENKIRCHEN, GERMANY")
	assert.Equal(t, "GARMISCH PARTENKIRCHEN", q.NormalizedCity())
	assert.Equal(t, []string{"GARMISCH", "PARTENKIRCHEN"}, q.CityTokens())
	assert.Equal(t, "GARMISCH", q.firstToken())

	assert.Empty(t, ParseQuery("").CityTokens())
	assert.Empty(t, ParseQuery("").firstToken())
}

func TestSearchPrefix(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"GARMISCH-PARTENKIRCHEN, GERMANY", "GARMISCH"},
		{"VALENCE, FRANCE", "VALENCE"},
		{"FRANKFURT AM MAIN, GERMANY", "FRANKFURT"},
		{"SAINT ETIENNE, FRANCE", "SAINT ETIENNE"},
		{"LE HAVRE, FRANCE", "LE HAVRE"},
		{"LA ROCHE SUR YON, FRANCE", "LA ROCHE"},
		{"ST DIE DES VOSGES, FRANCE", "ST DIE DES"},
		{"BAD TOLZ, GERMANY", "BAD"},
		{"BAD BAD ISCHL", "BAD BAD ISCHL"},
		{"xi an, china", "XI AN"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchPrefix(ParseQuery(tt.raw)))
		})
	}
}
