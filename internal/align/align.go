// Package align computes the correspondence between elements of two
// sequences for the differ. The alignment maximizes a weighted
// longest-common-subsequence score so that exact matches are preferred
// over merely similar ones, which in turn are preferred over a
// delete/insert pair.
package align

import "context"

// Scores returned by the caller's score function.
const (
	ScoreNone    = 0
	ScoreSimilar = 1
	ScoreExact   = 2
)

// Pair couples a base element with the target element it aligned to.
type Pair struct {
	Base   int
	Target int
}

const cancelCheckMask = 0xfff

// Sequences aligns n base elements with m target elements. score reports
// how well base element i matches target element j.
//
// The table is a flat O(n·m) arena rather than a recursive structure, and
// the context is checked inside the inner loop so pathological inputs can
// be aborted. The traceback is deterministic: it takes a match greedily
// whenever doing so preserves the optimal score, and otherwise consumes
// base elements before target elements, giving the diff a stable
// left-to-right bias.
func Sequences(ctx context.Context, n, m int, score func(i, j int) int) ([]Pair, error) {
	if n == 0 || m == 0 {
		return nil, nil
	}

	w := m + 1
	table := make([]int32, (n+1)*w)

	// Filled back-to-front so that the forward traceback naturally matches
	// earlier base elements to earlier target elements.
	steps := 0
	for i := n - 1; i >= 0; i-- {
		row := i * w
		next := row + w
		for j := m - 1; j >= 0; j-- {
			if steps&cancelCheckMask == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			steps++

			best := table[next+j]
			if v := table[row+j+1]; v > best {
				best = v
			}
			if s := score(i, j); s > 0 {
				if v := int32(s) + table[next+j+1]; v > best {
					best = v
				}
			}
			table[row+j] = best
		}
	}

	var pairs []Pair
	i, j := 0, 0
	for i < n && j < m {
		cur := table[i*w+j]
		if s := score(i, j); s > 0 && cur == int32(s)+table[(i+1)*w+j+1] {
			pairs = append(pairs, Pair{Base: i, Target: j})
			i++
			j++
			continue
		}
		if table[(i+1)*w+j] == cur {
			i++
		} else {
			j++
		}
	}
	return pairs, nil
}
