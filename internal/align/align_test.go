package align_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deltatree/deltatree/internal/align"
)

func scoreStrings(a, b []string) func(i, j int) int {
	return func(i, j int) int {
		if a[i] == b[j] {
			return align.ScoreExact
		}
		return align.ScoreNone
	}
}

func TestSequences(t *testing.T) {
	for _, tc := range []struct {
		name   string
		base   []string
		target []string
		want   []align.Pair
	}{
		{
			"identical",
			[]string{"a", "b", "c"},
			[]string{"a", "b", "c"},
			[]align.Pair{{0, 0}, {1, 1}, {2, 2}},
		},
		{
			"middle change",
			[]string{"a", "b", "c"},
			[]string{"a", "x", "c"},
			[]align.Pair{{0, 0}, {2, 2}},
		},
		{
			"insertion",
			[]string{"a", "c"},
			[]string{"a", "b", "c"},
			[]align.Pair{{0, 0}, {1, 2}},
		},
		{
			"deletion",
			[]string{"a", "b", "c"},
			[]string{"a", "c"},
			[]align.Pair{{0, 0}, {2, 1}},
		},
		{
			"disjoint",
			[]string{"a", "b"},
			[]string{"x", "y"},
			nil,
		},
		{
			// A swap cannot keep both matches. The traceback consumes base
			// elements before target elements, so the later base element wins.
			"crossing kept in order",
			[]string{"a", "b"},
			[]string{"b", "a"},
			[]align.Pair{{1, 0}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pairs, err := align.Sequences(context.Background(), len(tc.base), len(tc.target), scoreStrings(tc.base, tc.target))
			require.NoError(t, err)
			require.Equal(t, tc.want, pairs)
		})
	}
}

func TestSequencesPrefersExactOverSimilar(t *testing.T) {
	// Base "b" matches target 0 exactly and target 1 only loosely; the
	// exact match must win even though the loose one comes later.
	score := func(i, j int) int {
		if j == 0 {
			return align.ScoreExact
		}
		return align.ScoreSimilar
	}
	pairs, err := align.Sequences(context.Background(), 1, 2, score)
	require.NoError(t, err)
	require.Equal(t, []align.Pair{{0, 0}}, pairs)
}

func TestSequencesLeftmostOnTies(t *testing.T) {
	base := []string{"x", "x", "x"}
	target := []string{"x"}

	pairs, err := align.Sequences(context.Background(), len(base), len(target), scoreStrings(base, target))
	require.NoError(t, err)
	require.Equal(t, []align.Pair{{0, 0}}, pairs)
}

func TestSequencesEmpty(t *testing.T) {
	pairs, err := align.Sequences(context.Background(), 0, 5, nil)
	require.NoError(t, err)
	require.Nil(t, pairs)

	pairs, err = align.Sequences(context.Background(), 5, 0, nil)
	require.NoError(t, err)
	require.Nil(t, pairs)
}

func TestSequencesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := align.Sequences(ctx, 10, 10, func(i, j int) int { return align.ScoreNone })
	require.ErrorIs(t, err, context.Canceled)
}
