package deltatree

import "fmt"

// Resolution is the state of a conflict after the external resolver has
// looked at it.
type Resolution uint8

const (
	Unresolved Resolution = iota
	ResolvedLocal
	ResolvedRemote
	ResolvedCustom
)

func (r Resolution) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case ResolvedLocal:
		return "local"
	case ResolvedRemote:
		return "remote"
	case ResolvedCustom:
		return "custom"
	}
	return fmt.Sprintf("resolution(%d)", uint8(r))
}

// Conflict records a location where the local and remote patches diverge
// incompatibly. The merged document keeps the base value at Path until the
// conflict is resolved. Conflicts are created by Merge and mutated only by
// the resolver deciding them; feed decided conflicts back through
// ResolveMerge.
type Conflict struct {
	Path       Path
	LocalOp    Op
	RemoteOp   Op
	Resolution Resolution
	Custom     *Node
}

// ResolveLocal decides the conflict in favor of the local op.
func (c *Conflict) ResolveLocal() {
	c.Resolution = ResolvedLocal
	c.Custom = nil
}

// ResolveRemote decides the conflict in favor of the remote op.
func (c *Conflict) ResolveRemote() {
	c.Resolution = ResolvedRemote
	c.Custom = nil
}

// ResolveCustom decides the conflict with a caller-supplied value placed
// at the conflict path.
func (c *Conflict) ResolveCustom(value *Node) {
	c.Resolution = ResolvedCustom
	c.Custom = value
}

// Merge three-way-combines a base document with two patches computed
// against it. Locations touched by one side apply cleanly; identical edits
// are de-duplicated; incompatible edits become Conflicts attached to the
// narrowest divergent path, with the merged document keeping the base
// value there. A non-empty conflict list is not an error.
//
// Merge fails with ApplyError if either patch is inconsistent with base
// itself; divergence between the patches never is a failure.
func Merge(base *Node, local, remote Patch) (*Node, []Conflict, error) {
	return mergeWith(base, local, remote, nil)
}

// ResolveMerge re-runs a merge, consuming resolution decisions recorded on
// the conflicts of a previous Merge of the same inputs. Conflicts still
// unresolved are reported again; an empty conflict list means the merge is
// final.
func ResolveMerge(base *Node, local, remote Patch, decided []Conflict) (*Node, []Conflict, error) {
	return mergeWith(base, local, remote, decided)
}

func mergeWith(base *Node, local, remote Patch, decisions []Conflict) (*Node, []Conflict, error) {
	if base == nil {
		return nil, nil, &SchemaMismatchError{Detail: "nil document"}
	}
	// Both patches must fit the base on their own before any combining.
	if _, err := applyPatch(base, local, nil); err != nil {
		return nil, nil, err
	}
	if _, err := applyPatch(base, remote, nil); err != nil {
		return nil, nil, err
	}

	m := merger{decisions: decisions}
	patch, err := m.merge(base, local, remote, nil)
	if err != nil {
		return nil, nil, err
	}
	doc, err := Apply(base, patch)
	if err != nil {
		return nil, nil, err
	}
	return doc, m.conflicts, nil
}

type merger struct {
	decisions []Conflict
	conflicts []Conflict
}

// decision finds the recorded decision for a conflict path. Paths are
// compared structurally; the rendered form is ambiguous when a mapping
// key contains a separator character.
func (m *merger) decision(path Path) *Conflict {
	for i := range m.decisions {
		if m.decisions[i].Path.Equal(path) {
			return &m.decisions[i]
		}
	}
	return nil
}

// settle either resolves a divergence through a recorded decision or
// records it as a conflict. It returns the op implementing the decision,
// or ok=false when the base value should be kept.
func (m *merger) settle(path Path, localOp, remoteOp Op, customOp func(*Node) Op) (Op, bool) {
	if d := m.decision(path); d != nil {
		switch d.Resolution {
		case ResolvedLocal:
			return localOp, true
		case ResolvedRemote:
			return remoteOp, true
		case ResolvedCustom:
			return customOp(d.Custom), true
		}
	}
	m.conflicts = append(m.conflicts, Conflict{Path: path, LocalOp: localOp, RemoteOp: remoteOp})
	return nil, false
}

func (m *merger) merge(base *Node, local, remote Patch, path Path) (Patch, error) {
	if len(local) == 0 {
		return remote, nil
	}
	if len(remote) == 0 {
		return local, nil
	}

	ls, err := shapeOf(local, path)
	if err != nil {
		return nil, err
	}
	rs, err := shapeOf(remote, path)
	if err != nil {
		return nil, err
	}

	if ls == rs {
		switch ls {
		case shapeMapping:
			return m.mergeMapping(base, local, remote, path)
		case shapeSequence:
			return m.mergeSequence(base, local, remote, path)
		}
	}

	// Leaf edits, or a whole-value replace racing a structural edit.
	if patchEqual(local, remote) {
		return local, nil
	}
	localOp, err := representative(base, local, path)
	if err != nil {
		return nil, err
	}
	remoteOp, err := representative(base, remote, path)
	if err != nil {
		return nil, err
	}
	if op, ok := m.settle(path, localOp, remoteOp, func(v *Node) Op {
		return OpReplace{Old: base, New: v}
	}); ok {
		return Patch{op}, nil
	}
	return nil, nil
}

// representative condenses a patch into one op describing its net effect,
// for conflict reporting and resolution replay.
func representative(base *Node, patch Patch, path Path) (Op, error) {
	if len(patch) == 1 {
		return patch[0], nil
	}
	result, err := applyPatch(base, patch, path)
	if err != nil {
		return nil, err
	}
	return OpReplace{Old: base, New: result}, nil
}

func (m *merger) mergeMapping(base *Node, local, remote Patch, path Path) (Patch, error) {
	localOps, localAdds, err := keyOps(local, base, path)
	if err != nil {
		return nil, err
	}
	remoteOps, remoteAdds, err := keyOps(remote, base, path)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(base.keys)+len(localAdds)+len(remoteAdds))
	order = append(order, base.keys...)
	order = append(order, localAdds...)
	for _, k := range remoteAdds {
		if _, ok := localOps[k]; !ok {
			order = append(order, k)
		}
	}

	var out Patch
	for _, key := range order {
		lo, lok := localOps[key]
		ro, rok := remoteOps[key]
		switch {
		case !lok && !rok:
		case lok && !rok:
			out = append(out, lo)
		case !lok && rok:
			out = append(out, ro)
		default:
			op, err := m.mergeKey(base, key, lo, ro, path)
			if err != nil {
				return nil, err
			}
			if op != nil {
				out = append(out, op)
			}
		}
	}
	return out, nil
}

func (m *merger) mergeKey(base *Node, key string, localOp, remoteOp Op, path Path) (Op, error) {
	if opEqual(localOp, remoteOp) {
		return localOp, nil
	}
	childPath := path.With(KeyStep(key))

	lp, lNested := localOp.(OpPatchKey)
	rp, rNested := remoteOp.(OpPatchKey)
	if lNested && rNested {
		sub, err := m.merge(base.fields[key], lp.Patch, rp.Patch, childPath)
		if err != nil {
			return nil, err
		}
		if len(sub) == 0 {
			return nil, nil
		}
		return OpPatchKey{Key: key, Patch: sub}, nil
	}

	custom := func(v *Node) Op {
		if child, ok := base.fields[key]; ok {
			return OpPatchKey{Key: key, Patch: Patch{OpReplace{Old: child, New: v}}}
		}
		return OpAddKey{Key: key, Value: v}
	}
	if op, ok := m.settle(childPath, localOp, remoteOp, custom); ok {
		return op, nil
	}
	return nil, nil
}

// keyOps indexes a mapping patch by key, validating each op against base.
func keyOps(patch Patch, base *Node, path Path) (map[string]Op, []string, error) {
	ops := make(map[string]Op, len(patch))
	var adds []string
	for _, op := range patch {
		var key string
		switch op := op.(type) {
		case OpAddKey:
			if _, ok := base.fields[op.Key]; ok {
				return nil, nil, applyErrorf(path, fmt.Sprintf("key %q absent", op.Key), "already present")
			}
			key = op.Key
			adds = append(adds, key)
		case OpRemoveKey:
			if _, ok := base.fields[op.Key]; !ok {
				return nil, nil, applyErrorf(path, fmt.Sprintf("key %q present", op.Key), "missing")
			}
			key = op.Key
		case OpPatchKey:
			if _, ok := base.fields[op.Key]; !ok {
				return nil, nil, applyErrorf(path, fmt.Sprintf("key %q present", op.Key), "missing")
			}
			key = op.Key
		}
		if _, dup := ops[key]; dup {
			return nil, nil, applyErrorf(path, fmt.Sprintf("single op for key %q", key), "duplicate op")
		}
		ops[key] = op
	}
	return ops, adds, nil
}

func (m *merger) mergeSequence(base *Node, local, remote Patch, path Path) (Patch, error) {
	localIns, localElem, err := seqOps(local, base, path)
	if err != nil {
		return nil, err
	}
	remoteIns, remoteElem, err := seqOps(remote, base, path)
	if err != nil {
		return nil, err
	}

	var out Patch
	n := len(base.elems)
	for i := 0; i <= n; i++ {
		li, ri := localIns[i], remoteIns[i]
		if len(li) > 0 && len(ri) > 0 && insertRunsEqual(li, ri) {
			// Both sides inserted the same run at the same gap.
			ri = nil
		}
		for _, v := range li {
			out = append(out, OpInsert{Index: i, Value: v})
		}
		// The local run goes first on concurrent inserts at one gap.
		for _, v := range ri {
			out = append(out, OpInsert{Index: i, Value: v})
		}
		if i == n {
			break
		}

		lo, lok := localElem[i]
		ro, rok := remoteElem[i]
		switch {
		case !lok && !rok:
		case lok && !rok:
			out = append(out, lo)
		case !lok && rok:
			out = append(out, ro)
		default:
			op, err := m.mergeElem(base, i, lo, ro, path)
			if err != nil {
				return nil, err
			}
			if op != nil {
				out = append(out, op)
			}
		}
	}
	return out, nil
}

func (m *merger) mergeElem(base *Node, i int, localOp, remoteOp Op, path Path) (Op, error) {
	if opEqual(localOp, remoteOp) {
		return localOp, nil
	}
	childPath := path.With(IndexStep(i))

	lp, lNested := localOp.(OpPatchIndex)
	rp, rNested := remoteOp.(OpPatchIndex)
	if lNested && rNested {
		sub, err := m.merge(base.elems[i], lp.Patch, rp.Patch, childPath)
		if err != nil {
			return nil, err
		}
		if len(sub) == 0 {
			return nil, nil
		}
		return OpPatchIndex{Index: i, Patch: sub}, nil
	}

	// A delete racing an edit of the same element is always a conflict.
	custom := func(v *Node) Op {
		return OpPatchIndex{Index: i, Patch: Patch{OpReplace{Old: base.elems[i], New: v}}}
	}
	if op, ok := m.settle(childPath, localOp, remoteOp, custom); ok {
		return op, nil
	}
	return nil, nil
}

// seqOps indexes a sequence patch by base position: insertion runs per gap
// and at most one delete-or-patch per element.
func seqOps(patch Patch, base *Node, path Path) (map[int][]*Node, map[int]Op, error) {
	inserts := make(map[int][]*Node)
	elems := make(map[int]Op)
	n := len(base.elems)
	for _, op := range patch {
		switch op := op.(type) {
		case OpInsert:
			if op.Index < 0 || op.Index > n {
				return nil, nil, applyErrorf(path, fmt.Sprintf("insert index in [0,%d]", n), "%d", op.Index)
			}
			inserts[op.Index] = append(inserts[op.Index], op.Value)
		case OpDelete:
			if op.Index < 0 || op.Index >= n {
				return nil, nil, applyErrorf(path, fmt.Sprintf("delete index in [0,%d)", n), "%d", op.Index)
			}
			if _, dup := elems[op.Index]; dup {
				return nil, nil, applyErrorf(path, fmt.Sprintf("single op for index %d", op.Index), "duplicate op")
			}
			elems[op.Index] = op
		case OpPatchIndex:
			if op.Index < 0 || op.Index >= n {
				return nil, nil, applyErrorf(path, fmt.Sprintf("patch index in [0,%d)", n), "%d", op.Index)
			}
			if _, dup := elems[op.Index]; dup {
				return nil, nil, applyErrorf(path, fmt.Sprintf("single op for index %d", op.Index), "duplicate op")
			}
			elems[op.Index] = op
		}
	}
	return inserts, elems, nil
}

func insertRunsEqual(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if !v.Equal(b[i]) {
			return false
		}
	}
	return true
}
