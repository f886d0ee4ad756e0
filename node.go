package deltatree

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is one element of a document tree: a mapping with ordered unique keys,
// an ordered sequence, or a scalar leaf. Nodes are immutable once constructed
// and may be shared freely between document versions. Mapping key order is
// preserved for deterministic iteration, but is not significant for equality.
type Node struct {
	kind   Kind
	boolV  bool
	numV   float64
	textV  string
	keys   []string
	fields map[string]*Node
	elems  []*Node
}

var nullNode = &Node{kind: KindNull}

// Null returns the null leaf.
func Null() *Node {
	return nullNode
}

// Bool returns a boolean leaf.
func Bool(v bool) *Node {
	return &Node{kind: KindBool, boolV: v}
}

// Number returns a numeric leaf.
func Number(v float64) *Node {
	return &Node{kind: KindNumber, numV: v}
}

// Text returns a text leaf.
func Text(v string) *Node {
	return &Node{kind: KindText, textV: v}
}

// Seq returns a sequence node holding the given elements.
func Seq(elems ...*Node) *Node {
	n := &Node{kind: KindSequence, elems: make([]*Node, len(elems))}
	copy(n.elems, elems)
	return n
}

// Field is a single key/value pair used to construct mappings.
type Field struct {
	Key   string
	Value *Node
}

// Map returns a mapping node holding the given fields in order.
// Keys must be unique.
func Map(fields ...Field) *Node {
	n := &Node{
		kind:   KindMapping,
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]*Node, len(fields)),
	}
	for _, f := range fields {
		if _, ok := n.fields[f.Key]; ok {
			panic(fmt.Sprintf("deltatree: duplicate mapping key %q", f.Key))
		}
		n.keys = append(n.keys, f.Key)
		n.fields[f.Key] = f.Value
	}
	return n
}

func newMapping(keys []string, fields map[string]*Node) *Node {
	return &Node{kind: KindMapping, keys: keys, fields: fields}
}

// Kind reports the variant of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsLeaf reports whether the node is a scalar leaf.
func (n *Node) IsLeaf() bool {
	return n.kind != KindMapping && n.kind != KindSequence
}

// BoolValue returns the boolean payload. Valid only for KindBool.
func (n *Node) BoolValue() bool {
	return n.boolV
}

// NumberValue returns the numeric payload. Valid only for KindNumber.
func (n *Node) NumberValue() float64 {
	return n.numV
}

// TextValue returns the text payload. Valid only for KindText.
func (n *Node) TextValue() string {
	return n.textV
}

// Len returns the number of keys of a mapping or elements of a sequence,
// and zero for leaves.
func (n *Node) Len() int {
	if n.kind == KindMapping {
		return len(n.keys)
	}
	return len(n.elems)
}

// Keys returns a copy of the mapping's keys in order.
func (n *Node) Keys() []string {
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

// Field returns the value stored under key in a mapping.
func (n *Node) Field(key string) (*Node, bool) {
	v, ok := n.fields[key]
	return v, ok
}

// Elem returns the i-th element of a sequence.
func (n *Node) Elem(i int) *Node {
	return n.elems[i]
}

// Equal reports structural equality. Mapping key order is ignored.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil || n.kind != other.kind {
		return false
	}
	switch n.kind {
	case KindNull:
		return true
	case KindBool:
		return n.boolV == other.boolV
	case KindNumber:
		return n.numV == other.numV || (math.IsNaN(n.numV) && math.IsNaN(other.numV))
	case KindText:
		return n.textV == other.textV
	case KindMapping:
		if len(n.keys) != len(other.keys) {
			return false
		}
		for key, v := range n.fields {
			ov, ok := other.fields[key]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(n.elems) != len(other.elems) {
			return false
		}
		for i, v := range n.elems {
			if !v.Equal(other.elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy sharing no structure with the receiver.
// Since nodes are immutable this is rarely needed; it exists for callers
// that hand documents across a trust boundary.
func (n *Node) Clone() *Node {
	switch n.kind {
	case KindMapping:
		keys := make([]string, len(n.keys))
		copy(keys, n.keys)
		fields := make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			fields[k] = v.Clone()
		}
		return newMapping(keys, fields)
	case KindSequence:
		elems := make([]*Node, len(n.elems))
		for i, v := range n.elems {
			elems[i] = v.Clone()
		}
		return &Node{kind: KindSequence, elems: elems}
	default:
		c := *n
		return &c
	}
}

// Lookup resolves a path from the node, failing if any step does not exist.
func (n *Node) Lookup(path Path) (*Node, error) {
	cur := n
	for i, step := range path {
		if step.IsIndex {
			if cur.kind != KindSequence {
				return nil, &ApplyError{Path: path[:i], Expected: "sequence", Found: cur.kind.String()}
			}
			if step.Index < 0 || step.Index >= len(cur.elems) {
				return nil, &ApplyError{Path: path[:i], Expected: fmt.Sprintf("index %d in range", step.Index), Found: fmt.Sprintf("length %d", len(cur.elems))}
			}
			cur = cur.elems[step.Index]
			continue
		}
		if cur.kind != KindMapping {
			return nil, &ApplyError{Path: path[:i], Expected: "mapping", Found: cur.kind.String()}
		}
		child, ok := cur.fields[step.Key]
		if !ok {
			return nil, &ApplyError{Path: path[:i], Expected: fmt.Sprintf("key %q", step.Key), Found: "missing"}
		}
		cur = child
	}
	return cur, nil
}

// Set returns a new document with the subtree at path replaced by value.
// Untouched substructure is shared with the receiver.
func (n *Node) Set(path Path, value *Node) (*Node, error) {
	if len(path) == 0 {
		return value, nil
	}
	step := path[0]
	if step.IsIndex {
		if n.kind != KindSequence {
			return nil, &ApplyError{Path: nil, Expected: "sequence", Found: n.kind.String()}
		}
		if step.Index < 0 || step.Index >= len(n.elems) {
			return nil, &ApplyError{Path: nil, Expected: fmt.Sprintf("index %d in range", step.Index), Found: fmt.Sprintf("length %d", len(n.elems))}
		}
		child, err := n.elems[step.Index].Set(path[1:], value)
		if err != nil {
			return nil, err
		}
		elems := make([]*Node, len(n.elems))
		copy(elems, n.elems)
		elems[step.Index] = child
		return &Node{kind: KindSequence, elems: elems}, nil
	}
	if n.kind != KindMapping {
		return nil, &ApplyError{Path: nil, Expected: "mapping", Found: n.kind.String()}
	}
	old, ok := n.fields[step.Key]
	if !ok {
		return nil, &ApplyError{Path: nil, Expected: fmt.Sprintf("key %q", step.Key), Found: "missing"}
	}
	child, err := old.Set(path[1:], value)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]*Node, len(n.fields))
	for k, v := range n.fields {
		fields[k] = v
	}
	fields[step.Key] = child
	return newMapping(n.keys, fields), nil
}

// FromValue converts a plain Go value (as produced by encoding/json or a
// compatible loader) into a document tree. Mapping keys are sorted so that
// conversion is deterministic regardless of map iteration order.
func FromValue(value interface{}) (*Node, error) {
	switch v := value.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case string:
		return Text(v), nil
	case []interface{}:
		elems := make([]*Node, len(v))
		for i, ev := range v {
			node, err := FromValue(ev)
			if err != nil {
				return nil, err
			}
			elems[i] = node
		}
		return &Node{kind: KindSequence, elems: elems}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]*Node, len(v))
		for _, k := range keys {
			node, err := FromValue(v[k])
			if err != nil {
				return nil, err
			}
			fields[k] = node
		}
		return newMapping(keys, fields), nil
	case map[interface{}]interface{}:
		// Some decoders (msgpack, yaml) produce interface{} keys.
		obj := make(map[string]interface{}, len(v))
		for k, kv := range v {
			s, ok := k.(string)
			if !ok {
				return nil, &SchemaMismatchError{Detail: fmt.Sprintf("unsupported mapping key type %T", k)}
			}
			obj[s] = kv
		}
		return FromValue(obj)
	default:
		return nil, &SchemaMismatchError{Detail: fmt.Sprintf("unsupported value type %T", value)}
	}
}

// Value converts the document tree back into plain Go values.
func (n *Node) Value() interface{} {
	switch n.kind {
	case KindNull:
		return nil
	case KindBool:
		return n.boolV
	case KindNumber:
		return n.numV
	case KindText:
		return n.textV
	case KindMapping:
		obj := make(map[string]interface{}, len(n.keys))
		for k, v := range n.fields {
			obj[k] = v.Value()
		}
		return obj
	case KindSequence:
		arr := make([]interface{}, len(n.elems))
		for i, v := range n.elems {
			arr[i] = v.Value()
		}
		return arr
	}
	return nil
}

// String renders a compact debug representation.
func (n *Node) String() string {
	var b strings.Builder
	n.debug(&b)
	return b.String()
}

func (n *Node) debug(b *strings.Builder) {
	switch n.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(n.boolV))
	case KindNumber:
		b.WriteString(strconv.FormatFloat(n.numV, 'g', -1, 64))
	case KindText:
		b.WriteString(strconv.Quote(n.textV))
	case KindMapping:
		b.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			n.fields[k].debug(b)
		}
		b.WriteByte('}')
	case KindSequence:
		b.WriteByte('[')
		for i, v := range n.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			v.debug(b)
		}
		b.WriteByte(']')
	}
}
