package deltatree

import (
	"strconv"
	"strings"
)

// Step addresses one level of a document tree: a mapping key or a
// sequence index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeyStep returns a step addressing a mapping key.
func KeyStep(key string) Step {
	return Step{Key: key}
}

// IndexStep returns a step addressing a sequence index.
func IndexStep(i int) Step {
	return Step{Index: i, IsIndex: true}
}

// Path locates a subtree relative to the document root.
type Path []Step

// With returns a new path extended by one step. The receiver is not
// modified and may keep being used.
func (p Path) With(step Step) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = step
	return out
}

// String renders the path in the form `cells[1].source`. The root path
// renders as `$`.
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, step := range p {
		if step.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(step.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(step.Key)
	}
	return b.String()
}

// Equal reports whether two paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i, step := range p {
		if step != other[i] {
			return false
		}
	}
	return true
}
