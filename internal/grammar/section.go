package grammar

import (
	"slices"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

// Collector turns the continuation text gathered by a collecting section
// into its value.
type Collector func(c *Context, in *Instance, text string) (any, error)

// Tokens adapts a value.Parser into a Collector.
func Tokens(parse value.Parser) Collector {
	return func(_ *Context, _ *Instance, text string) (any, error) {
		return parse(text)
	}
}

// Section is a multi-line keyword that may hold child keywords such as
// [Model] or [Ramp]. A collecting section gathers its continuation lines
// and hands them to a Collector when it closes.
type Section struct {
	Bracket
	needsText bool
	collect   Collector
}

// NewSection returns a section rule.
func NewSection(key string, opts ...Option) *Section {
	b := newBase(key, opts)
	return &Section{Bracket: Bracket{b}, needsText: b.labeled}
}

// NewCollect returns a section whose continuation lines are parsed as
// one block by collect.
func NewCollect(key string, collect Collector, opts ...Option) *Section {
	s := NewSection(key, opts...)
	s.collect = collect
	return s
}

// Collects reports whether the section gathers raw text.
func (s *Section) Collects() bool { return s.collect != nil }

func (s *Section) Open(c *Context, in *Instance, text, comment string) error {
	if err := s.Bracket.Open(c, in, text, comment); err != nil {
		return err
	}
	switch {
	case s.needsText && in.Label == "":
		return ibis.NewError(ibis.ErrFormat, "expected text after '[%s]'", s.key)
	case !s.needsText && in.Label != "":
		return ibis.NewError(ibis.ErrFormat, "unexpected text after keyword, '%s'", in.Label)
	}
	in.Key = in.Label
	return nil
}

func (s *Section) Feed(c *Context, in *Instance, text, comment string) (bool, error) {
	if s.collect == nil {
		return s.Base.Feed(c, in, text, comment)
	}
	in.lines = append(in.lines, text)
	return true, nil
}

func (s *Section) Seal(c *Context, in *Instance) error {
	if s.collect == nil {
		return nil
	}
	v, err := s.collect(c, in, strings.Join(in.lines, "\n"))
	if err != nil {
		return err
	}
	in.Value = v
	return nil
}

// Merge inserts labeled occurrences under their name and otherwise
// applies the default policy.
func (s *Section) Merge(cur any, had bool, in *Instance) (any, error) {
	if !s.labeled {
		return s.Base.Merge(cur, had, in)
	}
	return insertUnique(s.key, cur, in.Key, in.Value)
}

func insertUnique(owner string, cur any, key string, v any) (any, error) {
	dict, ok := cur.(*ibis.Node)
	if !ok || dict == nil {
		dict = ibis.NewDict()
	}
	if dict.Has(key) {
		return nil, ibis.NewError(ibis.ErrDuplicate, "'%s' already contains '%s'", owner, key)
	}
	dict.Set(key, v)
	return dict, nil
}

// RowKeyFunc derives the dictionary key of a table row. It may rewrite
// the row.
type RowKeyFunc func(first string, row *ibis.Node) (string, error)

// Table is a section whose label names the columns and whose lines are
// rows keyed by their first token.
type Table struct {
	Section
	headers  []string
	optional []string
	cells    map[string]value.Token
	rowKey   RowKeyFunc
}

// NewTable returns a table rule. headers must all appear in the header
// line; optional columns may be omitted and read as nil.
func NewTable(key string, headers, optional []string, opts ...Option) *Table {
	t := &Table{
		Section:  Section{Bracket: Bracket{newBase(key, opts)}, needsText: true},
		headers:  lowerAll(headers),
		optional: lowerAll(optional),
		cells:    make(map[string]value.Token),
	}
	t.init = func() any { return ibis.NewDict() }
	return t
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

// Column sets the token parser for a column.
func (t *Table) Column(name string, tok value.Token) *Table {
	t.cells[strings.ToLower(name)] = tok
	return t
}

// KeyRows overrides how row keys are derived.
func (t *Table) KeyRows(f RowKeyFunc) *Table {
	t.rowKey = f
	return t
}

// Headers returns the required column names.
func (t *Table) Headers() []string { return t.headers }

// OptionalHeaders returns the optional column names.
func (t *Table) OptionalHeaders() []string { return t.optional }

// Typed reports whether the column has its own token parser.
func (t *Table) Typed(col string) bool {
	_, ok := t.cells[strings.ToLower(col)]
	return ok
}

func (t *Table) Open(c *Context, in *Instance, text, comment string) error {
	if err := t.Section.Open(c, in, text, comment); err != nil {
		return err
	}
	cols := strings.Fields(strings.ToLower(in.Label))
	for i, col := range cols {
		if slices.Contains(cols[:i], col) {
			return ibis.NewError(ibis.ErrDuplicate, "'%s' contains duplicates", in.Label)
		}
	}
	for _, h := range t.headers {
		if !slices.Contains(cols, h) {
			return ibis.NewError(ibis.ErrMissingRequired, "expected header names to contain '%s'", h)
		}
	}
	for _, col := range cols {
		if !slices.Contains(t.headers, col) && !slices.Contains(t.optional, col) {
			return ibis.NewError(ibis.ErrDisallowed, "unexpected header name, '%s'", col)
		}
	}
	for _, o := range t.optional {
		if !slices.Contains(cols, o) {
			cols = append(cols, o)
		}
	}
	in.columns = cols
	return nil
}

func (t *Table) Feed(_ *Context, in *Instance, text, _ string) (bool, error) {
	toks := strings.Fields(text)
	if len(toks) == 0 {
		return true, nil
	}
	cells := toks[1:]
	if len(cells) > len(in.columns) {
		return false, ibis.NewError(ibis.ErrFormat, "row '%s' has %d values, header names %d", toks[0], len(cells), len(in.columns))
	}
	parsed := make(map[string]any, len(cells))
	for i, cell := range cells {
		col := in.columns[i]
		if tok, ok := t.cells[col]; ok {
			v, err := tok(cell)
			if err != nil {
				return false, err
			}
			parsed[col] = v
		} else {
			parsed[col] = cell
		}
	}
	// Rows hold their columns in declaration order whatever the header
	// order was.
	row := ibis.NewNode()
	for _, h := range t.headers {
		v, ok := parsed[h]
		if !ok {
			return false, ibis.NewError(ibis.ErrMissingRequired, "required column '%s' missing", h)
		}
		row.Set(h, v)
	}
	for _, o := range t.optional {
		row.Set(o, parsed[o])
	}
	key := toks[0]
	if t.rowKey != nil {
		var err error
		if key, err = t.rowKey(key, row); err != nil {
			return false, err
		}
	}
	dict := in.Value.(*ibis.Node)
	if dict.Has(key) {
		return false, ibis.NewError(ibis.ErrDuplicate, "'%s' already contains '%s'", t.key, key)
	}
	dict.Set(key, row)
	return true, nil
}

// List is a section whose every line is one parsed element.
type List struct {
	Section
	parse value.Parser
}

// NewList returns a list rule.
func NewList(key string, parse value.Parser, opts ...Option) *List {
	if parse == nil {
		parse = value.Text()
	}
	l := &List{Section: *NewSection(key, opts...), parse: parse}
	l.init = func() any { return []any{} }
	return l
}

func (l *List) Feed(_ *Context, in *Instance, text, _ string) (bool, error) {
	if text == "" {
		return true, nil
	}
	v, err := l.parse(text)
	if err != nil {
		return false, err
	}
	in.Value = append(in.Value.([]any), v)
	return true, nil
}

// Dict is a section whose lines are keyed by their first token; the rest
// of the line is parsed as the value.
type Dict struct {
	Section
	parse value.Parser
}

// NewDict returns a dictionary rule.
func NewDict(key string, parse value.Parser, opts ...Option) *Dict {
	if parse == nil {
		parse = value.Text()
	}
	d := &Dict{Section: *NewSection(key, opts...), parse: parse}
	d.init = func() any { return ibis.NewDict() }
	return d
}

func (d *Dict) Feed(_ *Context, in *Instance, text, _ string) (bool, error) {
	if text == "" {
		return true, nil
	}
	key, rest := value.SplitFirst(text)
	if rest == "" {
		return false, ibis.NewError(ibis.ErrFormat, "expected value after '%s'", key)
	}
	v, err := d.parse(rest)
	if err != nil {
		return false, err
	}
	dict := in.Value.(*ibis.Node)
	if dict.Has(key) {
		return false, ibis.NewError(ibis.ErrDuplicate, "'%s' already contains '%s'", d.key, key)
	}
	dict.Set(key, v)
	return true, nil
}
