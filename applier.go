package deltatree

import "fmt"

// Apply applies a patch to a document, producing a new document. The
// input is never mutated; unaffected substructure is shared between the
// two versions.
//
// The patch is only valid against the exact base it was diffed from.
// Every op is validated against the current subtree before being applied,
// and a mismatch fails with ApplyError without producing a partial result.
func Apply(doc *Node, patch Patch) (*Node, error) {
	if doc == nil {
		return nil, &SchemaMismatchError{Detail: "nil document"}
	}
	return applyPatch(doc, patch, nil)
}

type patchShape uint8

const (
	shapeLeaf patchShape = iota
	shapeMapping
	shapeSequence
)

// shapeOf classifies a patch by its op family. A patch mixing mapping,
// sequence and leaf ops cannot have come from the differ.
func shapeOf(patch Patch, path Path) (patchShape, error) {
	var shape patchShape
	for i, op := range patch {
		var s patchShape
		switch op.(type) {
		case OpAddKey, OpRemoveKey, OpPatchKey:
			s = shapeMapping
		case OpInsert, OpDelete, OpPatchIndex:
			s = shapeSequence
		case OpReplace, OpEditText:
			s = shapeLeaf
		default:
			return 0, applyErrorf(path, "known op kind", "%T", op)
		}
		if i == 0 {
			shape = s
		} else if s != shape {
			return 0, applyErrorf(path, "ops from a single family", "mixed mapping/sequence/leaf ops")
		}
	}
	return shape, nil
}

func applyPatch(node *Node, patch Patch, path Path) (*Node, error) {
	if len(patch) == 0 {
		return node, nil
	}
	shape, err := shapeOf(patch, path)
	if err != nil {
		return nil, err
	}
	switch shape {
	case shapeMapping:
		return applyMapping(node, patch, path)
	case shapeSequence:
		return applySequence(node, patch, path)
	default:
		return applyLeaf(node, patch, path)
	}
}

func applyLeaf(node *Node, patch Patch, path Path) (*Node, error) {
	cur := node
	for _, op := range patch {
		switch op := op.(type) {
		case OpReplace:
			if !op.Old.Equal(cur) {
				return nil, applyErrorf(path, op.Old.String(), "%s", cur)
			}
			cur = op.New
		case OpEditText:
			if cur.kind != KindText {
				return nil, applyErrorf(path, "text leaf", "%s", cur.kind)
			}
			text, err := applyTextEdits(path, cur.textV, op.Edits)
			if err != nil {
				return nil, err
			}
			cur = Text(text)
		}
	}
	return cur, nil
}

func applyMapping(node *Node, patch Patch, path Path) (*Node, error) {
	if node.kind != KindMapping {
		return nil, applyErrorf(path, "mapping", "%s", node.kind)
	}

	fields := make(map[string]*Node, len(node.fields))
	for k, v := range node.fields {
		fields[k] = v
	}
	removed := make(map[string]bool)
	var added []string
	touched := make(map[string]bool, len(patch))

	for _, op := range patch {
		switch op := op.(type) {
		case OpAddKey:
			if _, ok := node.fields[op.Key]; ok {
				return nil, applyErrorf(path, fmt.Sprintf("key %q absent", op.Key), "already present")
			}
			if touched[op.Key] {
				return nil, applyErrorf(path, fmt.Sprintf("single op for key %q", op.Key), "duplicate op")
			}
			touched[op.Key] = true
			fields[op.Key] = op.Value
			added = append(added, op.Key)
		case OpRemoveKey:
			if _, ok := node.fields[op.Key]; !ok {
				return nil, applyErrorf(path, fmt.Sprintf("key %q present", op.Key), "missing")
			}
			if touched[op.Key] {
				return nil, applyErrorf(path, fmt.Sprintf("single op for key %q", op.Key), "duplicate op")
			}
			touched[op.Key] = true
			delete(fields, op.Key)
			removed[op.Key] = true
		case OpPatchKey:
			child, ok := node.fields[op.Key]
			if !ok {
				return nil, applyErrorf(path, fmt.Sprintf("key %q present", op.Key), "missing")
			}
			if touched[op.Key] {
				return nil, applyErrorf(path, fmt.Sprintf("single op for key %q", op.Key), "duplicate op")
			}
			touched[op.Key] = true
			patched, err := applyPatch(child, op.Patch, path.With(KeyStep(op.Key)))
			if err != nil {
				return nil, err
			}
			fields[op.Key] = patched
		}
	}

	keys := make([]string, 0, len(fields))
	for _, k := range node.keys {
		if !removed[k] {
			keys = append(keys, k)
		}
	}
	keys = append(keys, added...)
	return newMapping(keys, fields), nil
}

func applySequence(node *Node, patch Patch, path Path) (*Node, error) {
	if node.kind != KindSequence {
		return nil, applyErrorf(path, "sequence", "%s", node.kind)
	}

	out := make([]*Node, 0, len(node.elems))
	next := 0
	copyTo := func(i int) {
		out = append(out, node.elems[next:i]...)
		next = i
	}

	for _, op := range patch {
		switch op := op.(type) {
		case OpInsert:
			if op.Index < next || op.Index > len(node.elems) {
				return nil, applyErrorf(path, fmt.Sprintf("insert index in [%d,%d]", next, len(node.elems)), "%d", op.Index)
			}
			copyTo(op.Index)
			out = append(out, op.Value)
		case OpDelete:
			if op.Index < next || op.Index >= len(node.elems) {
				return nil, applyErrorf(path, fmt.Sprintf("delete index in [%d,%d)", next, len(node.elems)), "%d", op.Index)
			}
			copyTo(op.Index)
			next = op.Index + 1
		case OpPatchIndex:
			if op.Index < next || op.Index >= len(node.elems) {
				return nil, applyErrorf(path, fmt.Sprintf("patch index in [%d,%d)", next, len(node.elems)), "%d", op.Index)
			}
			copyTo(op.Index)
			child, err := applyPatch(node.elems[op.Index], op.Patch, path.With(IndexStep(op.Index)))
			if err != nil {
				return nil, err
			}
			out = append(out, child)
			next = op.Index + 1
		}
	}
	out = append(out, node.elems[next:]...)
	return &Node{kind: KindSequence, elems: out}, nil
}
