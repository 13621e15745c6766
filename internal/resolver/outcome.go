package resolver

// OutcomeKind classifies the result of one resolution.
type OutcomeKind string

const (
	KindSelected             OutcomeKind = "selected"
	KindSelectedWithMismatch OutcomeKind = "selected_with_mismatch"
	KindNoRatesAvailable     OutcomeKind = "no_rates_available"
	KindWrongCountryRejected OutcomeKind = "wrong_country_rejected"
	KindNoReadableOptions    OutcomeKind = "no_readable_options"
)

// Committed reports whether a candidate was selected on the portal.
func (k OutcomeKind) Committed() bool {
	return k == KindSelected || k == KindSelectedWithMismatch
}

// Outcome is the single result produced for one destination query.
// Candidate and Score are set for the two selected kinds and for
// KindWrongCountryRejected, where they name the rejected best match.
type Outcome struct {
	Kind          OutcomeKind `json:"kind"`
	Query         Query       `json:"query"`
	Prefix        string      `json:"prefix"`
	Candidate     string      `json:"candidate,omitempty"`
	Score         int         `json:"score"`
	LowConfidence bool        `json:"low_confidence,omitempty"`
	Warning       string      `json:"warning,omitempty"`
	Unavailable   []string    `json:"unavailable,omitempty"`
	Considered    int         `json:"considered"`
}
