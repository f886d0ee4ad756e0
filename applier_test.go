package deltatree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deltatree/deltatree"
)

func requireApplyError(t *testing.T, doc *deltatree.Node, patch deltatree.Patch, wantPath string) {
	t.Helper()
	_, err := deltatree.Apply(doc, patch)
	var applyErr *deltatree.ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, wantPath, applyErr.Path.String())
}

func TestApplyStaleReplace(t *testing.T) {
	doc := mustParse(t, `{"a": "changed"}`)
	patch := deltatree.Patch{
		deltatree.OpPatchKey{Key: "a", Patch: deltatree.Patch{
			deltatree.OpReplace{Old: deltatree.Text("original"), New: deltatree.Text("new")},
		}},
	}
	requireApplyError(t, doc, patch, "a")
}

func TestApplyMissingKey(t *testing.T) {
	doc := mustParse(t, `{"a": 1}`)
	requireApplyError(t, doc, deltatree.Patch{deltatree.OpRemoveKey{Key: "b"}}, "$")
	requireApplyError(t, doc, deltatree.Patch{deltatree.OpPatchKey{Key: "b"}}, "$")
}

func TestApplyAddExistingKey(t *testing.T) {
	doc := mustParse(t, `{"a": 1}`)
	patch := deltatree.Patch{deltatree.OpAddKey{Key: "a", Value: deltatree.Number(2)}}
	requireApplyError(t, doc, patch, "$")
}

func TestApplyDuplicateKeyOp(t *testing.T) {
	doc := mustParse(t, `{"a": 1}`)
	patch := deltatree.Patch{
		deltatree.OpRemoveKey{Key: "a"},
		deltatree.OpAddKey{Key: "a", Value: deltatree.Number(2)},
	}
	requireApplyError(t, doc, patch, "$")
}

func TestApplySequenceBounds(t *testing.T) {
	doc := mustParse(t, `["a", "b"]`)

	requireApplyError(t, doc, deltatree.Patch{deltatree.OpDelete{Index: 2}}, "$")
	requireApplyError(t, doc, deltatree.Patch{deltatree.OpInsert{Index: 3, Value: deltatree.Null()}}, "$")
	requireApplyError(t, doc, deltatree.Patch{deltatree.OpPatchIndex{Index: -1}}, "$")
}

func TestApplyOutOfOrderSequenceOps(t *testing.T) {
	doc := mustParse(t, `["a", "b", "c"]`)
	patch := deltatree.Patch{
		deltatree.OpDelete{Index: 2},
		deltatree.OpDelete{Index: 0},
	}
	requireApplyError(t, doc, patch, "$")

	// Two ops addressing the same element are rejected the same way.
	patch = deltatree.Patch{
		deltatree.OpDelete{Index: 1},
		deltatree.OpDelete{Index: 1},
	}
	requireApplyError(t, doc, patch, "$")
}

func TestApplyMixedOpFamilies(t *testing.T) {
	doc := mustParse(t, `["a"]`)
	patch := deltatree.Patch{
		deltatree.OpDelete{Index: 0},
		deltatree.OpRemoveKey{Key: "a"},
	}
	requireApplyError(t, doc, patch, "$")
}

func TestApplyWrongContainerKind(t *testing.T) {
	doc := mustParse(t, `{"a": [1]}`)
	patch := deltatree.Patch{
		deltatree.OpPatchKey{Key: "a", Patch: deltatree.Patch{
			deltatree.OpRemoveKey{Key: "x"},
		}},
	}
	requireApplyError(t, doc, patch, "a")
}

func TestApplyTextEditMismatch(t *testing.T) {
	doc := mustParse(t, `{"source": "goodbye\n"}`)
	patch := deltatree.Patch{
		deltatree.OpPatchKey{Key: "source", Patch: deltatree.Patch{
			deltatree.OpEditText{Edits: []deltatree.TextEdit{
				{Kind: deltatree.EditDelete, Text: "hello\n"},
				{Kind: deltatree.EditInsert, Text: "hi\n"},
			}},
		}},
	}
	requireApplyError(t, doc, patch, "source")
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := mustParse(t, `{"cells": ["a", "b"], "meta": {"v": 4}}`)
	snapshot := doc.Clone()

	patch := mustDiff(t, doc, mustParse(t, `{"cells": ["a", "x", "y"], "meta": {"v": 5}}`))
	_, err := deltatree.Apply(doc, patch)
	require.NoError(t, err)
	require.True(t, snapshot.Equal(doc))
}

func TestApplySharesUntouchedSubtrees(t *testing.T) {
	doc := mustParse(t, `{"meta": {"v": 4}, "cells": ["a"]}`)
	patch := deltatree.Patch{
		deltatree.OpPatchKey{Key: "cells", Patch: deltatree.Patch{
			deltatree.OpInsert{Index: 1, Value: deltatree.Text("b")},
		}},
	}

	result, err := deltatree.Apply(doc, patch)
	require.NoError(t, err)

	metaPath := deltatree.Path{deltatree.KeyStep("meta")}
	before, err := doc.Lookup(metaPath)
	require.NoError(t, err)
	after, err := result.Lookup(metaPath)
	require.NoError(t, err)
	require.Same(t, before, after)
}

func TestApplyNilDocument(t *testing.T) {
	var schemaErr *deltatree.SchemaMismatchError
	_, err := deltatree.Apply(nil, nil)
	require.ErrorAs(t, err, &schemaErr)
}
