package deltatree

import (
	"context"
	"strconv"
	"strings"

	"github.com/deltatree/deltatree/internal/align"
)

// Diff computes a patch which can be applied to base to produce target.
//
// The result is deterministic for identical inputs and heuristically
// minimal: aligned-but-unequal sequence elements become nested patches
// rather than delete/insert pairs. Diffing identical documents yields an
// empty patch.
//
// This function uses the default options.
func Diff(ctx context.Context, base, target *Node) (Patch, error) {
	return DefaultOptions.Diff(ctx, base, target)
}

// Diff computes a patch which can be applied to base to produce target.
func (options Options) Diff(ctx context.Context, base, target *Node) (Patch, error) {
	if base == nil || target == nil {
		return nil, &SchemaMismatchError{Detail: "nil document"}
	}
	d := differ{
		options: options,
		simMemo: make(map[nodePair]float64),
	}
	return d.diff(ctx, base, target)
}

type nodePair struct {
	a, b *Node
}

// differ holds per-call state. The similarity memo is scoped to a single
// call and discarded afterward, keeping Diff pure and safe for concurrent
// use.
type differ struct {
	options Options
	simMemo map[nodePair]float64
}

func (d *differ) diff(ctx context.Context, a, b *Node) (Patch, error) {
	if a.Equal(b) {
		return nil, nil
	}
	if a.kind != b.kind {
		return Patch{OpReplace{Old: a, New: b}}, nil
	}
	switch a.kind {
	case KindMapping:
		return d.diffMapping(ctx, a, b)
	case KindSequence:
		return d.diffSequence(ctx, a, b)
	case KindText:
		// An edit script is only worth it for texts that still resemble
		// each other; below the threshold a whole-value replace reads
		// better and encodes smaller.
		if textSimilarity(a.textV, b.textV) >= d.options.similarityThreshold {
			return Patch{OpEditText{Edits: diffText(a.textV, b.textV)}}, nil
		}
		return Patch{OpReplace{Old: a, New: b}}, nil
	default:
		return Patch{OpReplace{Old: a, New: b}}, nil
	}
}

// diffMapping walks base keys in order, then target-only keys in order.
func (d *differ) diffMapping(ctx context.Context, a, b *Node) (Patch, error) {
	var patch Patch
	for _, key := range a.keys {
		av := a.fields[key]
		bv, ok := b.fields[key]
		if !ok {
			patch = append(patch, OpRemoveKey{Key: key})
			continue
		}
		if av.Equal(bv) {
			continue
		}
		sub, err := d.diff(ctx, av, bv)
		if err != nil {
			return nil, err
		}
		patch = append(patch, OpPatchKey{Key: key, Patch: sub})
	}
	for _, key := range b.keys {
		if _, ok := a.fields[key]; !ok {
			patch = append(patch, OpAddKey{Key: key, Value: b.fields[key]})
		}
	}
	return patch, nil
}

func (d *differ) diffSequence(ctx context.Context, a, b *Node) (Patch, error) {
	pairs, err := align.Sequences(ctx, len(a.elems), len(b.elems), func(i, j int) int {
		ae, be := a.elems[i], b.elems[j]
		if ae.Equal(be) {
			return align.ScoreExact
		}
		if ae.kind != be.kind {
			return align.ScoreNone
		}
		if d.similarity(ae, be) >= d.options.similarityThreshold {
			return align.ScoreSimilar
		}
		return align.ScoreNone
	})
	if err != nil {
		return nil, &CancelledError{Err: err}
	}

	var patch Patch
	i0, j0 := 0, 0
	// emit covers the gap before the next aligned pair. Unmatched base and
	// target elements are paired up positionally and emitted as nested
	// patches, so a one-for-one change never degrades to delete+insert.
	emit := func(i, j int) error {
		for i0 < i && j0 < j {
			sub, err := d.diff(ctx, a.elems[i0], b.elems[j0])
			if err != nil {
				return err
			}
			patch = append(patch, OpPatchIndex{Index: i0, Patch: sub})
			i0++
			j0++
		}
		for ; i0 < i; i0++ {
			patch = append(patch, OpDelete{Index: i0})
		}
		for ; j0 < j; j0++ {
			patch = append(patch, OpInsert{Index: i, Value: b.elems[j0]})
		}
		return nil
	}
	for _, pair := range pairs {
		if err := emit(pair.Base, pair.Target); err != nil {
			return nil, err
		}
		ae, be := a.elems[pair.Base], b.elems[pair.Target]
		if !ae.Equal(be) {
			sub, err := d.diff(ctx, ae, be)
			if err != nil {
				return nil, err
			}
			patch = append(patch, OpPatchIndex{Index: pair.Base, Patch: sub})
		}
		i0, j0 = pair.Base+1, pair.Target+1
	}
	if err := emit(len(a.elems), len(b.elems)); err != nil {
		return nil, err
	}
	return patch, nil
}

// similarity scores two same-kind nodes by the normalized text similarity
// of their scalar content. Memoized by node identity for the duration of
// one call; the O(n·m) alignment probes the same pairs repeatedly.
func (d *differ) similarity(a, b *Node) float64 {
	key := nodePair{a, b}
	if s, ok := d.simMemo[key]; ok {
		return s
	}
	s := textSimilarity(flattenScalars(a), flattenScalars(b))
	d.simMemo[key] = s
	return s
}

// flattenScalars renders every scalar in the subtree, with mapping keys,
// into one string used for similarity scoring. This generalizes source
// comparison of text-bearing elements to arbitrary nodes.
func flattenScalars(n *Node) string {
	var b strings.Builder
	flattenInto(&b, n)
	return b.String()
}

func flattenInto(b *strings.Builder, n *Node) {
	switch n.kind {
	case KindNull:
		b.WriteString("\x00")
	case KindBool:
		b.WriteString(strconv.FormatBool(n.boolV))
		b.WriteByte('\n')
	case KindNumber:
		b.WriteString(strconv.FormatFloat(n.numV, 'g', -1, 64))
		b.WriteByte('\n')
	case KindText:
		b.WriteString(n.textV)
		b.WriteByte('\n')
	case KindMapping:
		for _, key := range n.keys {
			b.WriteString(key)
			b.WriteByte('=')
			flattenInto(b, n.fields[key])
		}
	case KindSequence:
		for _, e := range n.elems {
			flattenInto(b, e)
		}
	}
}
