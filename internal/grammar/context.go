package grammar

import (
	"fmt"
	"log/slog"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/types"
)

// DefaultCommentChar starts a comment until [Comment Char] changes it.
const DefaultCommentChar = '|'

// Instance is one occurrence of a rule in the input. Instances live in
// the Context arena and refer to their parent by index.
type Instance struct {
	Rule     Rule
	ID       int
	Parent   int // -1 for the document root
	Line     int
	Label    string // text after the closing bracket
	Key      string // dictionary key chosen at seal time by keyed rules
	Corner   ibis.Corner
	Value    any
	Children *ibis.Node

	defaulted map[string]bool

	lines   []string // raw text for collecting rules
	columns []string // table header
	last    float64  // previous range-table index
	hasLast bool
	dir     int // locked range-table direction, 0 until known
	curves  [3]*ibis.Curve
}

// Context is the mutable state of one parse: the instance arena, the
// active comment character and the advisories raised so far.
type Context struct {
	types.Logger

	CommentChar byte
	commentSet  bool

	arena  []*Instance
	line   int
	source string
	config ibis.DiagnosticConfig
	diags  []ibis.Diagnostic
}

// NewContext returns a Context for one parse of source.
func NewContext(source string, cfg ibis.DiagnosticConfig, logger *slog.Logger) *Context {
	return &Context{
		Logger:      types.NewLogger(logger, "grammar"),
		CommentChar: DefaultCommentChar,
		source:      source,
		config:      cfg,
	}
}

// SetLine records the input line being processed.
func (c *Context) SetLine(n int) { c.line = n }

// Line returns the input line being processed.
func (c *Context) Line() int { return c.line }

// Diagnostics returns the advisories raised so far.
func (c *Context) Diagnostics() []ibis.Diagnostic { return c.diags }

// New allocates an instance of r under parent (-1 for none).
func (c *Context) New(r Rule, parent int) *Instance {
	in := &Instance{
		Rule:      r,
		ID:        len(c.arena),
		Parent:    parent,
		Line:      c.line,
		Children:  ibis.NewNode(),
		defaulted: make(map[string]bool),
	}
	c.arena = append(c.arena, in)
	return in
}

// Root returns the document root instance.
func (c *Context) Root() *Instance {
	if len(c.arena) == 0 {
		return nil
	}
	return c.arena[0]
}

// Parent returns the parent of in, or nil at the root.
func (c *Context) Parent(in *Instance) *Instance {
	if in == nil || in.Parent < 0 {
		return nil
	}
	return c.arena[in.Parent]
}

// Trail names the open keywords from the outermost down to in. Groups
// and comment char declarations are left out; params are named bare.
func (c *Context) Trail(in *Instance) []string {
	var trail []string
	for cur := in; cur != nil && cur.Parent >= 0; cur = c.Parent(cur) {
		var name string
		switch cur.Rule.(type) {
		case *Group, *CommentChar:
			continue
		case *Param:
			name = cur.Rule.Spec().key
		default:
			name = "[" + cur.Rule.Spec().key + "]"
		}
		if cur.Label != "" {
			name += " " + cur.Label
		}
		trail = append(trail, name)
	}
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail
}

// Enclosing returns the innermost instance at or above in that spans
// more than its opening line.
func (c *Context) Enclosing(in *Instance) *Instance {
	for cur := in; cur != nil; cur = c.Parent(cur) {
		switch cur.Rule.(type) {
		case *Keyword, *Param, *CommentChar:
		default:
			return cur
		}
	}
	return in
}

// Advise records an advisory at the current line. It returns an error
// when the configuration escalates the advisory to a failure.
func (c *Context) Advise(code string, sev ibis.Severity, format string, args ...any) error {
	if !c.config.ShouldReport(code) {
		return nil
	}
	sev = c.config.Effective(code, sev)
	d := ibis.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Source:   c.source,
		Line:     c.line,
	}
	c.Log(slog.LevelWarn, d.Message,
		slog.String("code", code),
		slog.String("severity", sev.String()),
		slog.Int("line", c.line))
	c.diags = append(c.diags, d)
	if c.config.ShouldFail(sev) {
		return &ibis.Error{Kind: ibis.KindSemantic, Line: c.line, Msg: code + ": " + d.Message, Err: ibis.ErrEscalated}
	}
	return nil
}

// SetCommentChar switches the comment character. It may change once
// per document.
func (c *Context) SetCommentChar(ch byte) error {
	if c.commentSet && ch != c.CommentChar {
		return ibis.NewError(ibis.ErrDuplicate, "comment character already changed to '%c'", c.CommentChar)
	}
	c.commentSet = true
	if ch == c.CommentChar {
		return nil
	}
	c.CommentChar = ch
	return c.Advise(types.DiagCommentChar, ibis.SeverityInfo, "comment character changed to '%c'", ch)
}

// Finish seals in, checks its required children and merges the result
// into its parent, then runs the rule's hooks.
func (c *Context) Finish(in *Instance) error {
	b := in.Rule.Spec()
	if err := in.Rule.Seal(c, in); err != nil {
		return err
	}
	if in.Value != nil && b.dataName != "" {
		in.Children.Set(b.dataName, in.Value)
	}
	for _, ch := range b.children {
		cb := ch.Spec()
		if cb.required && !in.Children.Has(cb.key) {
			return ibis.NewError(ibis.ErrMissingRequired, "'%s' is missing required '%s'", b.key, cb.key)
		}
	}
	if in.Children.Len() > 0 {
		in.Value = in.Children
	}
	if parent := c.Parent(in); parent != nil && in.Value != nil {
		if err := c.attach(parent, in); err != nil {
			return err
		}
	}
	if c.TraceEnabled() {
		c.Trace("finished", slog.String("keyword", b.key), slog.Int("line", in.Line))
	}
	for _, h := range b.hooks {
		if err := h(c, in); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) attach(parent, in *Instance) error {
	b := in.Rule.Spec()
	cur, had := parent.Children.Get(b.key)
	if !had || parent.defaulted[b.canon] {
		cur, had = b.initial(), false
	}
	v, err := in.Rule.Merge(cur, had, in)
	if err != nil {
		return err
	}
	parent.Children.Set(b.key, v)
	delete(parent.defaulted, b.canon)
	return nil
}
