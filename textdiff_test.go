package deltatree

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestDiffTextRoundtrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		a    string
		b    string
	}{
		{"identical", "same\n", "same\n"},
		{"char edit", "kitten", "sitting"},
		{"line edit", "print(1)\nprint(2)\n", "print(1)\nprint(3)\n"},
		{"append lines", "one\n", "one\ntwo\nthree\n"},
		{"drop everything", "gone", ""},
		{"from empty", "", "fresh\n"},
		{"unicode", "héllo wörld", "hello world"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			edits := diffText(tc.a, tc.b)
			got, err := applyTextEdits(nil, tc.a, edits)
			require.NoError(t, err)
			require.Equal(t, tc.b, got)
		})
	}
}

func TestDiffTextLineGranularity(t *testing.T) {
	a := "alpha\nbeta\ngamma\n"
	b := "alpha\nBETA\ngamma\n"

	edits := diffText(a, b)

	var fromBase, toTarget, kept strings.Builder
	for _, e := range edits {
		switch e.Kind {
		case EditKeep:
			fromBase.WriteString(e.Text)
			toTarget.WriteString(e.Text)
			kept.WriteString(e.Text)
		case EditDelete:
			fromBase.WriteString(e.Text)
		case EditInsert:
			toTarget.WriteString(e.Text)
		}
	}
	require.Equal(t, a, fromBase.String())
	require.Equal(t, b, toTarget.String())

	// Line-first diffing carries the untouched lines through intact; the
	// surrounding span boundaries may shift but never eat into them.
	require.Contains(t, kept.String(), "alpha\n")
	require.Contains(t, kept.String(), "gamma\n")
	require.NotContains(t, kept.String(), "beta")
	require.NotContains(t, kept.String(), "BETA")
}

func TestApplyTextEditsVerifiesSpans(t *testing.T) {
	edits := []TextEdit{
		{EditDelete, "hello"},
		{EditInsert, "goodbye"},
	}

	_, err := applyTextEdits(nil, "hello", edits)
	require.NoError(t, err)

	_, err = applyTextEdits(nil, "other", edits)
	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)

	// A script that does not consume the whole base is stale too.
	_, err = applyTextEdits(nil, "hello there", edits)
	require.ErrorAs(t, err, &applyErr)
}

func TestClipKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "short", clip("short"))

	long := strings.Repeat("€", 20)
	clipped := clip(long)
	require.True(t, utf8.ValidString(clipped))
	require.Less(t, len(clipped), len(long))
	require.True(t, strings.HasSuffix(clipped, "…"))
}

func TestTextSimilarity(t *testing.T) {
	require.Equal(t, 1.0, textSimilarity("abc", "abc"))
	require.Equal(t, 0.0, textSimilarity("", "abc"))
	require.Equal(t, 0.0, textSimilarity("a", "z"))

	require.InDelta(t, 0.5, textSimilarity("abcdef", "abcxyz"), 0.01)
	require.Greater(t, textSimilarity("print(1)\nprint(2)\n", "print(1)\nprint(3)\n"), 0.8)
}
