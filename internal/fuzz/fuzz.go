package fuzz

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/deltatree/deltatree"
)

func Fuzz(data []byte) int {
	dec := json.NewDecoder(bytes.NewReader(data))
	var left, right interface{}

	err := dec.Decode(&left)
	if err != nil {
		return -1
	}

	err = dec.Decode(&right)
	if err != nil {
		return -1
	}

	base, err := deltatree.FromValue(left)
	if err != nil {
		return -1
	}
	target, err := deltatree.FromValue(right)
	if err != nil {
		return -1
	}

	ctx := context.Background()

	up, err := deltatree.Diff(ctx, base, target)
	if err != nil {
		panic(err)
	}
	down, err := deltatree.Diff(ctx, target, base)
	if err != nil {
		panic(err)
	}

	constructedTarget, err := deltatree.Apply(base, up)
	if err != nil {
		panic(err)
	}
	if !target.Equal(constructedTarget) {
		panic("up patch is incorrect")
	}

	constructedBase, err := deltatree.Apply(target, down)
	if err != nil {
		panic(err)
	}
	if !base.Equal(constructedBase) {
		panic("down patch is incorrect")
	}

	// A self-merge of the same patch must be conflict-free and agree with
	// a plain apply.
	merged, conflicts, err := deltatree.Merge(base, up, up)
	if err != nil {
		panic(err)
	}
	if len(conflicts) > 0 {
		panic("self-merge reported conflicts")
	}
	if !target.Equal(merged) {
		panic("self-merge disagrees with apply")
	}

	return 0
}
