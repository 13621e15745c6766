package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(ls ...string) []Candidate {
	out := make([]Candidate, len(ls))
	for i, l := range ls {
		out[i] = Candidate{Label: l}
	}
	return out
}

func resolve(t *testing.T, raw string, src *StaticSource) Outcome {
	t.Helper()
	out, err := New(Options{}).Resolve(context.Background(), raw, src)
	require.NoError(t, err)
	return out
}

func TestResolve_Selected(t *testing.T) {
	src := NewStaticSource(labels("MUENSTER, BB, GERMANY", "MUENSTER, NW, GERMANY", "MUNSTER, IRELAND")...)

	out := resolve(t, "MUENSTER, NW, GERMANY", src)

	assert.Equal(t, KindSelected, out.Kind)
	assert.Equal(t, "MUENSTER, NW, GERMANY", out.Candidate)
	assert.Equal(t, 1350, out.Score)
	assert.False(t, out.LowConfidence)
	assert.Equal(t, 2, out.Considered)
	assert.Equal(t, "MUENSTER, NW, GERMANY", src.Selected())
	assert.Equal(t, []string{"MUENSTER"}, src.Prefixes())
	assert.True(t, out.Kind.Committed())
}

func TestResolve_AllUnavailable(t *testing.T) {
	src := NewStaticSource(
		Candidate{Label: "PARIS, FRANCE (No rates available)"},
		Candidate{Label: "PARIS, TX, USA", Unavailable: true},
	)

	out := resolve(t, "PARIS, FRANCE", src)

	assert.Equal(t, KindNoRatesAvailable, out.Kind)
	assert.Len(t, out.Unavailable, 2)
	assert.Empty(t, src.Selected())
	assert.False(t, out.Kind.Committed())
}

func TestResolve_WrongCountryRejected(t *testing.T) {
	src := NewStaticSource(labels("ATHENS, AL, USA", "ATHENS, GA, USA")...)

	out := resolve(t, "ATHENS, GREECE", src)

	assert.Equal(t, KindWrongCountryRejected, out.Kind)
	assert.Equal(t, "ATHENS, AL, USA", out.Candidate)
	assert.Contains(t, out.Warning, "GREECE")
	assert.Empty(t, src.Selected())
}

func TestResolve_CountryOnlyOnUnavailable(t *testing.T) {
	src := NewStaticSource(labels("ATHENS, GREECE (No rates available)", "ATHENS, AL, USA")...)

	out := resolve(t, "ATHENS, GREECE", src)

	assert.Equal(t, KindNoRatesAvailable, out.Kind)
	assert.Empty(t, src.Selected())
}

func TestResolve_NeverWrongCountryWhenCountryPresent(t *testing.T) {
	sets := [][]string{
		{"ATHENS, AL, USA", "ATHENS, GREECE"},
		{"ATHENS, GREECE", "ATHENS, GA, USA"},
		{"ATHINAI, GREECE", "ATHENS, AL, USA", "ATHENS, GA, USA"},
		{"PIRAEUS, GREECE", "ATHENS, OH, USA"},
	}
	for _, set := range sets {
		out := resolve(t, "ATHENS, GREECE", NewStaticSource(labels(set...)...))
		assert.NotEqual(t, KindWrongCountryRejected, out.Kind, set)
		assert.Contains(t, out.Candidate, "GREECE", set)
	}
}

func TestResolve_ExactBeatsWeakInAnyOrder(t *testing.T) {
	for _, set := range [][]string{
		{"PARIGNY, FRANCE", "PARIS, FRANCE"},
		{"PARIS, FRANCE", "PARIGNY, FRANCE"},
	} {
		out := resolve(t, "PARIS, FRANCE", NewStaticSource(labels(set...)...))
		assert.Equal(t, "PARIS, FRANCE", out.Candidate)
	}
}

func TestResolve_TieBreakFirstInOrder(t *testing.T) {
	out := resolve(t, "SPRINGFIELD", NewStaticSource(labels("SPRINGFIELD (IL)", "SPRINGFIELD (MO)")...))
	assert.Equal(t, "SPRINGFIELD (IL)", out.Candidate)

	out = resolve(t, "SPRINGFIELD", NewStaticSource(labels("SPRINGFIELD (MO)", "SPRINGFIELD (IL)")...))
	assert.Equal(t, "SPRINGFIELD (MO)", out.Candidate)
}

func TestResolve_LowConfidence(t *testing.T) {
	src := NewStaticSource(labels("BAD WORISHOFEN, GERMANY")...)

	out := resolve(t, "BAD TOLZ, GERMANY", src)

	assert.Equal(t, KindSelected, out.Kind)
	assert.True(t, out.LowConfidence)
	assert.Equal(t, 460, out.Score)
	assert.Equal(t, "BAD WORISHOFEN, GERMANY", src.Selected())
}

func TestResolve_SelectedWithMismatch(t *testing.T) {
	src := NewStaticSource(labels("MUENSTER, GERMANY")...)

	out := resolve(t, "MUENSTER, NW, GERMANY", src)

	assert.Equal(t, KindSelectedWithMismatch, out.Kind)
	assert.Equal(t, "MUENSTER, GERMANY", out.Candidate)
	assert.Contains(t, out.Warning, "region")
	assert.Equal(t, "MUENSTER, GERMANY", src.Selected())
}

func TestResolve_SingleZeroScoreCandidate(t *testing.T) {
	out := resolve(t, "LYON", NewStaticSource(labels("MARSEILLE")...))
	assert.Equal(t, KindSelectedWithMismatch, out.Kind)
	assert.Equal(t, "MARSEILLE", out.Candidate)
	assert.Equal(t, 0, out.Score)
	assert.True(t, out.LowConfidence)

	out = resolve(t, "LYON", NewStaticSource(labels("MARSEILLE", "NICE")...))
	assert.Equal(t, KindNoReadableOptions, out.Kind)
	assert.Empty(t, out.Candidate)
}

func TestResolve_DropsUnreadableLabels(t *testing.T) {
	out := resolve(t, "LYON", NewStaticSource(labels("", " ", "X", "LYON (FRLYS)")...))
	assert.Equal(t, KindSelected, out.Kind)
	assert.Equal(t, 1, out.Considered)
}

func TestResolve_MaxCandidates(t *testing.T) {
	src := NewStaticSource(labels("LYON, FRANCE", "PARIS, FRANCE")...)

	out, err := New(Options{MaxCandidates: 1}).Resolve(context.Background(), "PARIS, FRANCE", src)
	require.NoError(t, err)

	assert.Equal(t, "LYON, FRANCE", out.Candidate)
	assert.Equal(t, KindSelectedWithMismatch, out.Kind)
}

func TestResolve_NoReadableOptions(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		out := resolve(t, "LYON", NewStaticSource())
		assert.Equal(t, KindNoReadableOptions, out.Kind)
	})

	t.Run("not ready", func(t *testing.T) {
		src := NewStaticSource(labels("LYON")...)
		src.ListErr = ErrNotReady
		out := resolve(t, "LYON", src)
		assert.Equal(t, KindNoReadableOptions, out.Kind)
	})

	t.Run("empty query", func(t *testing.T) {
		src := NewStaticSource(labels("LYON")...)
		out := resolve(t, " ", src)
		assert.Equal(t, KindNoReadableOptions, out.Kind)
		assert.Empty(t, src.Prefixes())
	})
}

type blockingSource struct{}

func (blockingSource) ListCandidates(ctx context.Context, _ string) ([]Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingSource) Select(context.Context, string) error { return nil }

func TestResolve_CandidateTimeout(t *testing.T) {
	r := New(Options{CandidateTimeout: 10 * time.Millisecond})

	out, err := r.Resolve(context.Background(), "LYON", blockingSource{})

	require.NoError(t, err)
	assert.Equal(t, KindNoReadableOptions, out.Kind)
}

func TestResolve_BoundaryFailures(t *testing.T) {
	t.Run("list error propagates", func(t *testing.T) {
		boom := errors.New("portal down")
		src := NewStaticSource()
		src.ListErr = boom

		_, err := New(Options{}).Resolve(context.Background(), "LYON", src)

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("select error", func(t *testing.T) {
		detached := errors.New("element detached")
		src := NewStaticSource(labels("LYON (FRLYS)")...)
		src.SelectErr = detached

		_, err := New(Options{}).Resolve(context.Background(), "LYON", src)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSelection)
		assert.ErrorIs(t, err, detached)
		assert.Contains(t, err.Error(), "element detached")
	})

	t.Run("caller cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(Options{}).Resolve(ctx, "LYON", NewStaticSource(labels("LYON")...))

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew_Defaults(t *testing.T) {
	r := New(Options{})
	assert.Equal(t, MinConfidence, r.opts.MinConfidence)
	assert.Equal(t, 20, r.opts.MaxCandidates)
	assert.Equal(t, 4*time.Second, r.opts.CandidateTimeout)
}
