package resolver

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrNotReady is returned by a CandidateSource when no candidate list
// materialized before its deadline.
var ErrNotReady = eris.New("resolver: candidates not ready")

// ErrSelection marks a failure to commit the chosen candidate. The source's
// own error stays in the chain.
var ErrSelection = eris.New("resolver: selection failed")

// unavailableMarker is how portals flag destinations without rates.
const unavailableMarker = "(no rates available)"

// Candidate is one autocomplete option as rendered by the portal.
type Candidate struct {
	Label       string `json:"label"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// IsUnavailable reports whether the candidate is flagged or labelled as
// having no rates.
func (c Candidate) IsUnavailable() bool {
	return c.Unavailable || strings.Contains(strings.ToLower(c.Label), unavailableMarker)
}

// CandidateSource exposes the autocomplete options for a typed prefix and
// commits a selection. The resolver does not know how labels are obtained.
type CandidateSource interface {
	// ListCandidates types prefix and returns the rendered options in order.
	ListCandidates(ctx context.Context, prefix string) ([]Candidate, error)
	// Select commits the option with the given label.
	Select(ctx context.Context, label string) error
}

// StaticSource serves a fixed candidate snapshot. It records the prefixes it
// was asked for and the label selected.
type StaticSource struct {
	Candidates []Candidate
	ListErr    error
	SelectErr  error

	mu       sync.Mutex
	prefixes []string
	selected string
}

// NewStaticSource creates a StaticSource over candidates.
func NewStaticSource(candidates ...Candidate) *StaticSource {
	return &StaticSource{Candidates: candidates}
}

// ListCandidates returns the snapshot regardless of prefix.
func (s *StaticSource) ListCandidates(ctx context.Context, prefix string) ([]Candidate, error) {
	s.mu.Lock()
	s.prefixes = append(s.prefixes, prefix)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "static source: list")
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	return out, nil
}

// Select records label.
func (s *StaticSource) Select(_ context.Context, label string) error {
	if s.SelectErr != nil {
		return s.SelectErr
	}
	s.mu.Lock()
	s.selected = label
	s.mu.Unlock()
	return nil
}

// Prefixes returns the prefixes requested so far.
func (s *StaticSource) Prefixes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prefixes...)
}

// Selected returns the last selected label.
func (s *StaticSource) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ReadCandidates reads one candidate label per line. Blank lines and lines
// starting with '#' are skipped.
func ReadCandidates(r io.Reader) ([]Candidate, error) {
	var out []Candidate
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c := Candidate{Label: line}
		c.Unavailable = c.IsUnavailable()
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "resolver: read candidates")
	}
	return out, nil
}
