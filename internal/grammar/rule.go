// Package grammar holds the declarative description of the IBIS file
// formats. A grammar is a tree of Rules built once per dialect and never
// mutated afterwards; all per-parse state lives in a Context and the
// Instances it allocates.
package grammar

import (
	"strings"

	"github.com/goibis/goibis/ibis"
)

// Rule is one node of a grammar tree. The set of implementations is
// closed: every variant lives in this package.
type Rule interface {
	// Spec returns the attributes shared by every variant.
	Spec() *Base
	// Match reports whether text opens an occurrence of the rule.
	Match(text string) bool
	// Open initialises a new occurrence from its opening line.
	Open(c *Context, in *Instance, text, comment string) error
	// Feed offers a continuation line. It returns false when the line
	// does not belong to the occurrence.
	Feed(c *Context, in *Instance, text, comment string) (bool, error)
	// Seal completes the occurrence's own value before it is merged.
	Seal(c *Context, in *Instance) error
	// Merge folds a sealed occurrence into cur, the value the parent
	// already holds under the rule's key. had is false when cur is the
	// initial value or a default.
	Merge(cur any, had bool, in *Instance) (any, error)

	rule()
}

// Hook runs after an occurrence has been merged into its parent.
// Validators use hooks to check and rewrite the parent's children.
type Hook func(c *Context, in *Instance) error

// Option configures the shared attributes of a rule.
type Option func(*Base)

// Required marks the rule as mandatory within its parent.
func Required() Option { return func(b *Base) { b.required = true } }

// Default pre-fills the parent with v when a parent occurrence opens.
// An explicit occurrence may override the default once.
func Default(v any) Option {
	return func(b *Base) {
		b.def = v
		b.hasDef = true
	}
}

// ListMerge makes repeated occurrences append to a list.
func ListMerge() Option {
	return func(b *Base) {
		b.listMerge = true
		b.init = func() any { return []any{} }
	}
}

// DataName stores the occurrence's own value among its children under
// name, for sections that have both data and keyword children.
func DataName(name string) Option { return func(b *Base) { b.dataName = name } }

// Labeled makes a section require a name after its keyword; occurrences
// are gathered into a dictionary keyed by that name.
func Labeled() Option {
	return func(b *Base) {
		b.labeled = true
		b.init = func() any { return ibis.NewDict() }
	}
}

// Base carries the attributes every rule has. Variants embed it.
type Base struct {
	key       string
	canon     string
	required  bool
	def       any
	hasDef    bool
	listMerge bool
	labeled   bool
	dataName  string
	init      func() any

	children []Rule
	brackets map[string]Rule
	params   []Rule
	hooks    []Hook
}

func newBase(key string, opts []Option) Base {
	b := Base{key: key, canon: ibis.Canonical(key)}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b *Base) Spec() *Base { return b }

// Key returns the keyword as written in the grammar.
func (b *Base) Key() string { return b.key }

// Canon returns the canonical form of the keyword.
func (b *Base) Canon() string { return b.canon }

// IsRequired reports whether the rule must occur within its parent.
func (b *Base) IsRequired() bool { return b.required }

// IsLabeled reports whether occurrences are named.
func (b *Base) IsLabeled() bool { return b.labeled }

// IsListMerge reports whether repeated occurrences append.
func (b *Base) IsListMerge() bool { return b.listMerge }

// DefaultValue returns the default, if any.
func (b *Base) DefaultValue() (any, bool) { return b.def, b.hasDef }

// DataKey returns the child name the occurrence's own data is stored
// under, or "".
func (b *Base) DataKey() string { return b.dataName }

// Children returns the child rules in declaration order.
func (b *Base) Children() []Rule { return b.children }

// Child returns the child rule whose key is canonically equal to key.
func (b *Base) Child(key string) Rule {
	ck := ibis.Canonical(key)
	for _, r := range b.children {
		if r.Spec().canon == ck {
			return r
		}
	}
	return nil
}

// Add appends child rules. Bracketed rules are looked up by keyword;
// parameters are tried in order.
func (b *Base) Add(rules ...Rule) {
	for _, r := range rules {
		b.children = append(b.children, r)
		switch r.(type) {
		case *Param:
			b.params = append(b.params, r)
			continue
		case *Group:
			continue
		}
		if b.brackets == nil {
			b.brackets = make(map[string]Rule)
		}
		b.brackets[r.Spec().canon] = r
	}
}

// OnFinish registers hooks run after each occurrence is merged.
func (b *Base) OnFinish(hooks ...Hook) {
	b.hooks = append(b.hooks, hooks...)
}

// Find returns the child rule that opens on text, or nil.
func (b *Base) Find(text string) Rule {
	if name, _, ok := splitBracket(text); ok {
		return b.brackets[ibis.Canonical(name)]
	}
	for _, p := range b.params {
		if p.Match(text) {
			return p
		}
	}
	return nil
}

func (b *Base) initial() any {
	if b.init == nil {
		return nil
	}
	return b.init()
}

func (b *Base) Match(string) bool { return false }

// Open fills the children's defaults and the initial value.
func (b *Base) Open(_ *Context, in *Instance, _, _ string) error {
	if !b.hasDef {
		in.Value = b.initial()
	}
	for _, ch := range b.children {
		cb := ch.Spec()
		if cb.hasDef {
			in.Children.Set(cb.key, cloneValue(cb.def))
			in.defaulted[cb.canon] = true
		}
	}
	return nil
}

// Feed accepts blank lines only.
func (b *Base) Feed(_ *Context, _ *Instance, text, _ string) (bool, error) {
	return text == "", nil
}

func (b *Base) Seal(*Context, *Instance) error { return nil }

// Merge appends for list rules and otherwise refuses a second
// occurrence.
func (b *Base) Merge(cur any, had bool, in *Instance) (any, error) {
	if b.listMerge {
		list, _ := cur.([]any)
		if vs, ok := in.Value.([]any); ok {
			return append(list, vs...), nil
		}
		return append(list, in.Value), nil
	}
	if had {
		return nil, ibis.NewError(ibis.ErrDuplicate, "'%s' already assigned", b.key)
	}
	return in.Value, nil
}

func (b *Base) rule() {}

func cloneValue(v any) any {
	if l, ok := v.([]any); ok {
		return append([]any(nil), l...)
	}
	return v
}

// splitBracket splits "[name] rest" into name and rest.
func splitBracket(text string) (name, rest string, ok bool) {
	if !strings.HasPrefix(text, "[") {
		return "", "", false
	}
	name, rest, _ = strings.Cut(text[1:], "]")
	return strings.TrimSpace(name), strings.TrimSpace(rest), true
}
