package resolver

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options tunes a Resolver. Zero values fall back to the defaults.
type Options struct {
	MinConfidence    int
	MaxCandidates    int
	CandidateTimeout time.Duration
}

const (
	defaultMaxCandidates    = 20
	defaultCandidateTimeout = 4 * time.Second
)

// Resolver picks the best autocomplete candidate for a destination query.
type Resolver struct {
	opts Options
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = MinConfidence
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	if opts.CandidateTimeout <= 0 {
		opts.CandidateTimeout = defaultCandidateTimeout
	}
	return &Resolver{opts: opts}
}

type scored struct {
	Candidate
	score int
}

// Resolve runs one resolution of raw against src. Errors are returned only
// for boundary failures; every other result is an Outcome.
func (r *Resolver) Resolve(ctx context.Context, raw string, src CandidateSource) (Outcome, error) {
	q := ParseQuery(raw)
	out := Outcome{Query: q, Prefix: SearchPrefix(q)}
	log := zap.L().With(zap.String("destination", raw), zap.String("prefix", out.Prefix))

	if out.Prefix == "" {
		out.Kind = KindNoReadableOptions
		return out, nil
	}

	cands, err := r.list(ctx, src, out.Prefix)
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, ErrNotReady) || errors.Is(err, context.DeadlineExceeded)) {
			log.Debug("resolver: candidates not ready", zap.Error(err))
			out.Kind = KindNoReadableOptions
			return out, nil
		}
		return out, eris.Wrapf(err, "resolver: list candidates for %q", raw)
	}

	var eligible, unavailable []Candidate
	for _, c := range readable(cands, r.opts.MaxCandidates) {
		if c.IsUnavailable() {
			unavailable = append(unavailable, c)
			out.Unavailable = append(out.Unavailable, c.Label)
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		out.Kind = KindNoReadableOptions
		if len(unavailable) > 0 {
			out.Kind = KindNoRatesAvailable
		}
		return out, nil
	}

	considered := eligible
	if q.Country != "" {
		withCountry := filterCountry(eligible, q.Country)
		switch {
		case len(withCountry) > 0:
			considered = withCountry
		case len(filterCountry(unavailable, q.Country)) > 0:
			out.Kind = KindNoRatesAvailable
			return out, nil
		default:
			out.Considered = len(eligible)
			best, ok := pickBest(q, eligible)
			if !ok {
				out.Kind = KindNoReadableOptions
				return out, nil
			}
			out.Kind = KindWrongCountryRejected
			out.Candidate = best.Label
			out.Score = best.score
			out.Warning = "best match " + quote(best.Label) + " is not in " + q.Country
			log.Info("resolver: rejected candidate outside requested country",
				zap.String("candidate", best.Label), zap.Int("score", best.score))
			return out, nil
		}
	}
	out.Considered = len(considered)

	best, ok := pickBest(q, considered)
	if !ok {
		out.Kind = KindNoReadableOptions
		return out, nil
	}
	log.Debug("resolver: best candidate", zap.Any("breakdown", Explain(q, best.Label)))

	if err := src.Select(ctx, best.Label); err != nil {
		return out, eris.Wrapf(errors.Join(ErrSelection, err), "resolver: select %q", best.Label)
	}

	out.Candidate = best.Label
	out.Score = best.score
	out.LowConfidence = best.score < r.opts.MinConfidence

	v := Verify(q, best.Label)
	if v.OK() {
		out.Kind = KindSelected
		return out, nil
	}
	out.Kind = KindSelectedWithMismatch
	out.Warning = v.Diagnose(q, best.Label)
	log.Warn("resolver: selected candidate failed verification", zap.String("detail", out.Warning))
	return out, nil
}

func (r *Resolver) list(ctx context.Context, src CandidateSource, prefix string) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.CandidateTimeout)
	defer cancel()
	cands, err := src.ListCandidates(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, ErrNotReady
	}
	return cands, nil
}

// readable drops blank and single-character labels and caps the list.
func readable(cands []Candidate, limit int) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		c.Label = strings.TrimSpace(c.Label)
		if utf8.RuneCountInString(c.Label) <= 1 {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

func filterCountry(cands []Candidate, country string) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if strings.Contains(upper(c.Label), country) {
			out = append(out, c)
		}
	}
	return out
}

// pickBest returns the first candidate with the strictly highest positive
// score. A lone candidate is best even when it scores zero.
func pickBest(q Query, cands []Candidate) (scored, bool) {
	var best scored
	found := false
	for _, c := range cands {
		s := Score(q, c.Label)
		if s > 0 && (!found || s > best.score) {
			best = scored{Candidate: c, score: s}
			found = true
		}
	}
	if !found && len(cands) == 1 {
		return scored{Candidate: cands[0]}, true
	}
	return best, found
}

func quote(s string) string {
	return `"` + s + `"`
}
