package deltatree

//go-sumtype:decl Op

// Op is a single structural edit. Mapping ops address a key, sequence ops
// address an index in the base sequence, and leaf ops rewrite the value in
// place. New op kinds must be handled exhaustively by the differ, the
// applier and the merger.
type Op interface {
	isOp()
}

// Patch is an ordered sequence of ops transforming one document into
// another. Sequence ops are ordered by base index, with insertions at an
// index preceding the delete or patch of the element at that index.
type Patch []Op

// Mapping ops

// OpAddKey introduces a key that is absent from the base mapping.
type OpAddKey struct {
	Key   string
	Value *Node
}

// OpRemoveKey removes a key that is present in the base mapping.
type OpRemoveKey struct {
	Key string
}

// OpPatchKey applies a nested patch to the value under a key.
type OpPatchKey struct {
	Key   string
	Patch Patch
}

// Sequence ops

// OpInsert inserts a value before the base element at Index. Index may
// equal the base length to append.
type OpInsert struct {
	Index int
	Value *Node
}

// OpDelete removes the base element at Index.
type OpDelete struct {
	Index int
}

// OpPatchIndex applies a nested patch to the base element at Index.
type OpPatchIndex struct {
	Index int
	Patch Patch
}

// Leaf ops

// OpReplace replaces the whole value. Old must match the base exactly;
// this doubles as the whole-value replacement emitted when node kinds
// differ.
type OpReplace struct {
	Old *Node
	New *Node
}

// OpEditText rewrites a text leaf with an edit script of keep, delete and
// insert spans.
type OpEditText struct {
	Edits []TextEdit
}

func (OpAddKey) isOp()     {}
func (OpRemoveKey) isOp()  {}
func (OpPatchKey) isOp()   {}
func (OpInsert) isOp()     {}
func (OpDelete) isOp()     {}
func (OpPatchIndex) isOp() {}
func (OpReplace) isOp()    {}
func (OpEditText) isOp()   {}

// opEqual reports structural equality of two ops. The merger uses it to
// de-duplicate identical edits made by both sides.
func opEqual(a, b Op) bool {
	switch a := a.(type) {
	case OpAddKey:
		b, ok := b.(OpAddKey)
		return ok && a.Key == b.Key && a.Value.Equal(b.Value)
	case OpRemoveKey:
		b, ok := b.(OpRemoveKey)
		return ok && a.Key == b.Key
	case OpPatchKey:
		b, ok := b.(OpPatchKey)
		return ok && a.Key == b.Key && patchEqual(a.Patch, b.Patch)
	case OpInsert:
		b, ok := b.(OpInsert)
		return ok && a.Index == b.Index && a.Value.Equal(b.Value)
	case OpDelete:
		b, ok := b.(OpDelete)
		return ok && a.Index == b.Index
	case OpPatchIndex:
		b, ok := b.(OpPatchIndex)
		return ok && a.Index == b.Index && patchEqual(a.Patch, b.Patch)
	case OpReplace:
		b, ok := b.(OpReplace)
		return ok && a.Old.Equal(b.Old) && a.New.Equal(b.New)
	case OpEditText:
		b, ok := b.(OpEditText)
		if !ok || len(a.Edits) != len(b.Edits) {
			return false
		}
		for i, e := range a.Edits {
			if e != b.Edits[i] {
				return false
			}
		}
		return true
	}
	return false
}

func patchEqual(a, b Patch) bool {
	if len(a) != len(b) {
		return false
	}
	for i, op := range a {
		if !opEqual(op, b[i]) {
			return false
		}
	}
	return true
}
