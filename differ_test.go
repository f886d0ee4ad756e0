package deltatree_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deltatree/deltatree"
)

func TestDiffMinimalSequenceEdit(t *testing.T) {
	base := mustParse(t, `["a", "b", "c"]`)
	target := mustParse(t, `["a", "x", "c"]`)

	patch := mustDiff(t, base, target)
	require.Equal(t, deltatree.Patch{
		deltatree.OpPatchIndex{Index: 1, Patch: deltatree.Patch{
			deltatree.OpReplace{Old: deltatree.Text("b"), New: deltatree.Text("x")},
		}},
	}, patch)
}

func TestDiffMappingOpOrder(t *testing.T) {
	base := mustParse(t, `{"a": 1, "c": 3, "d": 4}`)
	target := mustParse(t, `{"a": 2, "d": 4, "e": 5}`)

	patch := mustDiff(t, base, target)
	require.Equal(t, deltatree.Patch{
		deltatree.OpPatchKey{Key: "a", Patch: deltatree.Patch{
			deltatree.OpReplace{Old: deltatree.Number(1), New: deltatree.Number(2)},
		}},
		deltatree.OpRemoveKey{Key: "c"},
		deltatree.OpAddKey{Key: "e", Value: deltatree.Number(5)},
	}, patch)
}

func TestDiffKindChangeIsReplace(t *testing.T) {
	base := mustParse(t, `[1, 2]`)
	target := mustParse(t, `{"a": 1}`)

	patch := mustDiff(t, base, target)
	require.Len(t, patch, 1)
	require.IsType(t, deltatree.OpReplace{}, patch[0])
}

func TestDiffTextEditScript(t *testing.T) {
	base := deltatree.Text("line one\nline two\nline three\n")
	target := deltatree.Text("line one\nline 2\nline three\n")

	patch := mustDiff(t, base, target)
	require.Len(t, patch, 1)
	require.IsType(t, deltatree.OpEditText{}, patch[0])
}

func TestDiffDissimilarTextIsReplace(t *testing.T) {
	base := deltatree.Text("alpha")
	target := deltatree.Text("zzzzz")

	patch := mustDiff(t, base, target)
	require.Equal(t, deltatree.Patch{
		deltatree.OpReplace{Old: base, New: target},
	}, patch)
}

func TestDiffInsertAtFront(t *testing.T) {
	base := mustParse(t, `["a", "b"]`)
	target := mustParse(t, `["x", "a", "b"]`)

	patch := mustDiff(t, base, target)
	require.Equal(t, deltatree.Patch{
		deltatree.OpInsert{Index: 0, Value: deltatree.Text("x")},
	}, patch)
}

func TestDiffLeftmostAlignment(t *testing.T) {
	// Two equally good alignments exist; the differ must settle on the
	// earliest base match so repeated runs agree.
	base := mustParse(t, `["x", "x"]`)
	target := mustParse(t, `["x"]`)

	patch := mustDiff(t, base, target)
	require.Equal(t, deltatree.Patch{
		deltatree.OpDelete{Index: 1},
	}, patch)
}

func TestDiffDeterminism(t *testing.T) {
	base := mustParse(t, `{"cells": [{"source": "print(1)\n"}, {"source": "print(2)\n"}]}`)
	target := mustParse(t, `{"cells": [{"source": "print(0)\n"}, {"source": "print(2)\nprint(3)\n"}]}`)

	first := mustDiff(t, base, target)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, mustDiff(t, base, target))
	}
}

func TestDiffSimilarityThresholdOption(t *testing.T) {
	base := deltatree.Text("abcdef")
	target := deltatree.Text("abcxyz")

	// At the permissive threshold the texts still pair up as an edit
	// script; at a strict one the same pair becomes a replace.
	patch, err := deltatree.DefaultOptions.WithSimilarityThreshold(0.3).Diff(context.Background(), base, target)
	require.NoError(t, err)
	require.IsType(t, deltatree.OpEditText{}, patch[0])

	patch, err = deltatree.DefaultOptions.WithSimilarityThreshold(0.9).Diff(context.Background(), base, target)
	require.NoError(t, err)
	require.IsType(t, deltatree.OpReplace{}, patch[0])
}

func TestDiffCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := mustParse(t, `["a", "b", "c"]`)
	target := mustParse(t, `["d", "e", "f"]`)

	_, err := deltatree.Diff(ctx, base, target)
	var cancelled *deltatree.CancelledError
	require.ErrorAs(t, err, &cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiffNilDocument(t *testing.T) {
	doc := mustParse(t, `{}`)

	var schemaErr *deltatree.SchemaMismatchError
	_, err := deltatree.Diff(context.Background(), nil, doc)
	require.ErrorAs(t, err, &schemaErr)

	_, err = deltatree.Diff(context.Background(), doc, nil)
	require.ErrorAs(t, err, &schemaErr)
}

func TestDiffSafeForConcurrentUse(t *testing.T) {
	base := mustParse(t, `{"cells": ["a", "b", "c"]}`)
	target := mustParse(t, `{"cells": ["a", "x", "c", "d"]}`)
	want := mustDiff(t, base, target)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			patch, err := deltatree.Diff(context.Background(), base, target)
			if err == nil && !reflect.DeepEqual(want, patch) {
				err = errors.New("concurrent diff disagrees")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
}
