package ibis

import (
	"iter"
	"reflect"
)

// Node is an ordered collection of named values produced by the parser.
//
// Keyword nodes (NewNode) resolve keys through Canonical, so "Model Spec",
// "model_spec" and "MODEL SPEC" address the same entry, while the first
// spelling seen is kept for display. Dictionary nodes (NewDict) hold
// user-chosen names such as component, model or pin names and compare
// keys exactly.
//
// Values are one of: nil, string, float64, int, []any, *Node, Range,
// Triple[...], Ramp, CurveSet, *Matrix or []PathItem.
type Node struct {
	keys  []string
	vals  []any
	index map[string]int
	exact bool
}

// NewNode returns an empty node with canonical key lookup.
func NewNode() *Node {
	return &Node{index: make(map[string]int)}
}

// NewDict returns an empty node with exact key lookup.
func NewDict() *Node {
	return &Node{index: make(map[string]int), exact: true}
}

func (n *Node) lookupKey(key string) string {
	if n.exact {
		return key
	}
	return Canonical(key)
}

// Exact reports whether the node compares keys exactly.
func (n *Node) Exact() bool { return n != nil && n.exact }

// Len returns the number of entries.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Keys returns the display keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// All iterates over entries in insertion order.
func (n *Node) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if n == nil {
			return
		}
		for i, k := range n.keys {
			if !yield(k, n.vals[i]) {
				return
			}
		}
	}
}

// Has reports whether key is present, even if its value is nil.
func (n *Node) Has(key string) bool {
	if n == nil {
		return false
	}
	_, ok := n.index[n.lookupKey(key)]
	return ok
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	i, ok := n.index[n.lookupKey(key)]
	if !ok {
		return nil, false
	}
	return n.vals[i], true
}

// Value returns the value stored under key, or nil.
func (n *Node) Value(key string) any {
	v, _ := n.Get(key)
	return v
}

// Set stores v under key. An existing entry keeps its position and
// display key.
func (n *Node) Set(key string, v any) {
	lk := n.lookupKey(key)
	if i, ok := n.index[lk]; ok {
		n.vals[i] = v
		return
	}
	n.index[lk] = len(n.keys)
	n.keys = append(n.keys, key)
	n.vals = append(n.vals, v)
}

// Delete removes key and reports whether it was present.
func (n *Node) Delete(key string) bool {
	if n == nil {
		return false
	}
	lk := n.lookupKey(key)
	i, ok := n.index[lk]
	if !ok {
		return false
	}
	n.keys = append(n.keys[:i], n.keys[i+1:]...)
	n.vals = append(n.vals[:i], n.vals[i+1:]...)
	delete(n.index, lk)
	for k, j := range n.index {
		if j > i {
			n.index[k] = j - 1
		}
	}
	return true
}

// Clone returns a copy of n that shares its values.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		keys:  append([]string(nil), n.keys...),
		vals:  append([]any(nil), n.vals...),
		index: make(map[string]int, len(n.index)),
		exact: n.exact,
	}
	for k, i := range n.index {
		c.index[k] = i
	}
	return c
}

// Text returns the value under key if it is a string.
func (n *Node) Text(key string) (string, bool) {
	s, ok := n.Value(key).(string)
	return s, ok
}

// Float returns the value under key if it is a float64.
func (n *Node) Float(key string) (float64, bool) {
	f, ok := n.Value(key).(float64)
	return f, ok
}

// Int returns the value under key if it is an int.
func (n *Node) Int(key string) (int, bool) {
	i, ok := n.Value(key).(int)
	return i, ok
}

// Range returns the value under key if it is a Range.
func (n *Node) Range(key string) (Range, bool) {
	r, ok := n.Value(key).(Range)
	return r, ok
}

// Node returns the child node under key, or nil.
func (n *Node) Node(key string) *Node {
	c, _ := n.Value(key).(*Node)
	return c
}

// List returns the value under key if it is a list.
func (n *Node) List(key string) []any {
	l, _ := n.Value(key).([]any)
	return l
}

// Lookup follows a path of keys through nested nodes.
func (n *Node) Lookup(path ...string) (any, bool) {
	var cur any = n
	for _, key := range path {
		c, ok := cur.(*Node)
		if !ok || c == nil {
			return nil, false
		}
		if cur, ok = c.Get(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Equal reports whether two nodes hold the same entries. Dictionary
// nodes must also hold them in the same order; keyword nodes compare as
// sets, since keyword placement within a section carries no meaning.
// Keys are compared in lookup form.
func (n *Node) Equal(o *Node) bool {
	if n.Len() != o.Len() {
		return false
	}
	if n.Len() == 0 {
		return true
	}
	if n.exact != o.exact {
		return false
	}
	for i, k := range n.keys {
		if n.exact {
			if k != o.keys[i] || !valueEqual(n.vals[i], o.vals[i]) {
				return false
			}
			continue
		}
		j, ok := o.index[n.lookupKey(k)]
		if !ok || !valueEqual(n.vals[i], o.vals[j]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case *Node:
		bv, ok := b.(*Node)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Triple[any]:
		bv, ok := b.(Triple[any])
		if !ok || av.set != bv.set {
			return false
		}
		for i := range av.vals {
			if !valueEqual(av.vals[i], bv.vals[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
