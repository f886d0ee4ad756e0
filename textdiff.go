package deltatree

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditKind classifies one span of a text edit script.
type EditKind uint8

const (
	// EditKeep copies a span of the base text unchanged.
	EditKeep EditKind = iota
	// EditDelete drops a span of the base text.
	EditDelete
	// EditInsert adds new text at the current position.
	EditInsert
)

func (k EditKind) String() string {
	switch k {
	case EditKeep:
		return "keep"
	case EditDelete:
		return "delete"
	case EditInsert:
		return "insert"
	}
	return fmt.Sprintf("edit(%d)", uint8(k))
}

// TextEdit is a single span of a text edit script. Keep and delete spans
// carry the base text they consume, which lets the applier verify the
// script against the exact base it was computed from.
type TextEdit struct {
	Kind EditKind
	Text string
}

// diffText produces a minimal edit script from a to b. When both sides are
// multi-line the diff is computed line-first, which keeps scripts readable
// for source-style text; otherwise it is character-based.
func diffText(a, b string) []TextEdit {
	dmp := diffmatchpatch.New()
	checklines := strings.Contains(a, "\n") && strings.Contains(b, "\n")
	diffs := dmp.DiffMain(a, b, checklines)

	edits := make([]TextEdit, 0, len(diffs))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			edits = append(edits, TextEdit{EditKeep, d.Text})
		case diffmatchpatch.DiffDelete:
			edits = append(edits, TextEdit{EditDelete, d.Text})
		case diffmatchpatch.DiffInsert:
			edits = append(edits, TextEdit{EditInsert, d.Text})
		}
	}
	return edits
}

// applyTextEdits replays an edit script against base, verifying every keep
// and delete span along the way.
func applyTextEdits(path Path, base string, edits []TextEdit) (string, error) {
	var out strings.Builder
	rest := base
	for _, e := range edits {
		switch e.Kind {
		case EditKeep, EditDelete:
			if !strings.HasPrefix(rest, e.Text) {
				return "", applyErrorf(path, fmt.Sprintf("text %s span %q", e.Kind, clip(e.Text)), "%q", clip(rest))
			}
			rest = rest[len(e.Text):]
			if e.Kind == EditKeep {
				out.WriteString(e.Text)
			}
		case EditInsert:
			out.WriteString(e.Text)
		default:
			return "", applyErrorf(path, "known edit kind", "%s", e.Kind)
		}
	}
	if rest != "" {
		return "", applyErrorf(path, "edit script covering the whole text", "%q left over", clip(rest))
	}
	return out.String(), nil
}

func clip(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the clipped message stays valid UTF-8.
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

// textSimilarity returns a normalized similarity in [0,1] based on the
// Levenshtein distance of the character diff.
func textSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	return 1 - float64(dist)/float64(longest)
}
