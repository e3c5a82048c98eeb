// Package emit writes a parsed document tree back out as IBIS text.
//
// The writer walks the dialect grammar rather than the tree, so entries
// the grammar does not declare (derived values such as the synthesized
// matrix pin mapping) are never written. Values the dialect validators
// reshape are turned back into their source form first. Reparsing the
// output yields a tree equal to the input.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/types"
)

// Writer renders document trees of one grammar.
type Writer struct {
	g *grammar.Grammar
	types.Logger
}

// New returns a Writer for g. Pass nil for logger to disable logging.
func New(g *grammar.Grammar, logger *slog.Logger) *Writer {
	return &Writer{g: g, Logger: types.NewLogger(logger, "emit")}
}

// Write renders root to w.
func (wr *Writer) Write(w io.Writer, root *ibis.Node) error {
	if root == nil {
		return fmt.Errorf("%w: empty document", ibis.ErrUnsupported)
	}
	out := &lines{w: bufio.NewWriter(w)}
	if err := out.body(wr.g.Root, root); err != nil {
		return err
	}
	if end := endOf(wr.g.Root); end != nil {
		out.line(bracket(end.Spec().Key(), ""))
	}
	if out.err != nil {
		return out.err
	}
	wr.Log(slog.LevelDebug, "document written",
		slog.String("dialect", wr.g.Dialect.String()),
		slog.Int("lines", out.n))
	return out.w.Flush()
}

// lines accumulates output and the first write error.
type lines struct {
	w   *bufio.Writer
	n   int
	err error
}

func (o *lines) line(parts ...string) {
	if o.err != nil {
		return
	}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if _, err := o.w.WriteString(strings.Join(kept, " ") + "\n"); err != nil {
		o.err = err
	}
	o.n++
}

func bracket(key, label string) string {
	if label == "" {
		return "[" + key + "]"
	}
	return "[" + key + "] " + label
}

func endOf(r grammar.Rule) grammar.Rule {
	for _, ch := range r.Spec().Children() {
		if _, ok := ch.(*grammar.End); ok {
			return ch
		}
	}
	return nil
}

// body writes the children of one occurrence: parameters first, so that
// no multi-line section swallows them, then everything else in grammar
// order.
func (o *lines) body(r grammar.Rule, n *ibis.Node) error {
	if err := o.params(r, n); err != nil {
		return err
	}
	return o.sections(r, n)
}

func (o *lines) params(r grammar.Rule, n *ibis.Node) error {
	for _, ch := range r.Spec().Children() {
		p, ok := ch.(*grammar.Param)
		if !ok {
			continue
		}
		if v, ok := n.Get(p.Key()); ok {
			if err := o.param(p, v); err != nil {
				return fmt.Errorf("%s: %w", p.Key(), err)
			}
		}
	}
	return nil
}

func (o *lines) sections(r grammar.Rule, n *ibis.Node) error {
	for _, ch := range r.Spec().Children() {
		switch ch.(type) {
		case *grammar.Param, *grammar.End, *grammar.CommentChar:
			continue
		}
		v, ok := n.Get(ch.Spec().Key())
		if !ok {
			continue
		}
		if err := o.rule(ch, v); err != nil {
			return fmt.Errorf("[%s]: %w", ch.Spec().Key(), err)
		}
	}
	return nil
}

// rule writes every occurrence held in v.
func (o *lines) rule(r grammar.Rule, v any) error {
	if g, ok := r.(*grammar.Group); ok {
		n, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		return o.body(g, n)
	}
	b := r.Spec()
	switch {
	case b.IsLabeled():
		dict, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		for label, occ := range dict.All() {
			if err := o.occurrence(r, label, occ); err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
		}
		return nil
	case b.IsListMerge():
		if _, ok := r.(*grammar.RangeTable); ok {
			list, ok := v.([]any)
			if !ok {
				return unsupported(v)
			}
			for _, occ := range list {
				if err := o.occurrence(r, "", occ); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return o.occurrence(r, "", v)
}

// occurrence writes one keyword occurrence and its end marker.
func (o *lines) occurrence(r grammar.Rule, label string, v any) error {
	b := r.Spec()
	if h, ok := unshape[b.Canon()]; ok {
		var err error
		if v, err = h(v); err != nil {
			return err
		}
	}
	key := b.Key()
	var err error
	switch r := r.(type) {
	case *grammar.Keyword:
		var s string
		if s, err = format(v); err == nil {
			o.line(bracket(key, s))
		}
	case *grammar.Text:
		err = o.text(key, v)
	case *grammar.Table:
		err = o.table(r, v)
	case *grammar.List:
		err = o.list(key, label, v)
	case *grammar.Dict:
		err = o.dict(key, label, v)
	case *grammar.RangeTable:
		err = o.rangeTable(r, v)
	case *grammar.Matrix:
		err = o.matrix(key, v)
	case *grammar.Section:
		o.line(bracket(key, label))
		if r.Collects() {
			w, ok := collected[b.Canon()]
			if !ok {
				return fmt.Errorf("%w: collected keyword [%s]", ibis.ErrUnsupported, key)
			}
			err = w(o, v)
			break
		}
		n, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		err = o.body(r, n)
	default:
		return fmt.Errorf("%w: rule %T", ibis.ErrUnsupported, r)
	}
	if err != nil {
		return err
	}
	if end := endOf(r); end != nil {
		o.line(bracket(end.Spec().Key(), ""))
	}
	return nil
}

func (o *lines) param(p *grammar.Param, v any) error {
	head := p.Key()
	if d := p.Delim(); d != "" {
		head += " " + d
	}
	emit := func(prefix string, v any) error {
		s, err := format(v)
		if err != nil {
			return err
		}
		o.line(prefix, s)
		return nil
	}
	switch p.Form() {
	case grammar.Keyed:
		dict, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		for k, kv := range dict.All() {
			if err := emit(head+" "+k, kv); err != nil {
				return err
			}
		}
		return nil
	case grammar.Ranged:
		return o.corners(head, v, emit)
	case grammar.KeyedRanged:
		dict, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		for k, kv := range dict.All() {
			if err := o.corners(head+" "+k, kv, emit); err != nil {
				return err
			}
		}
		return nil
	}
	if list, ok := v.([]any); ok && p.IsListMerge() {
		if len(list) > 0 {
			if _, records := list[0].(*ibis.Node); records {
				for _, rec := range list {
					if err := emit(head, rec); err != nil {
						return err
					}
				}
				return nil
			}
		}
	}
	return emit(head, v)
}

func (o *lines) corners(head string, v any, emit func(string, any) error) error {
	t, ok := v.(ibis.Triple[any])
	if !ok {
		return unsupported(v)
	}
	for _, c := range ibis.Corners {
		if rec, ok := t.Raw(c); ok {
			if err := emit(head, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *lines) text(key string, v any) error {
	s, ok := v.(string)
	if !ok {
		return unsupported(v)
	}
	first, rest, _ := strings.Cut(s, "\n")
	o.line(bracket(key, first))
	if rest != "" {
		for _, l := range strings.Split(rest, "\n") {
			o.line(l)
		}
	}
	return nil
}

func (o *lines) list(key, label string, v any) error {
	list, ok := v.([]any)
	if !ok {
		return unsupported(v)
	}
	o.line(bracket(key, label))
	for _, e := range list {
		s, err := format(e)
		if err != nil {
			return err
		}
		o.line(s)
	}
	return nil
}

func (o *lines) dict(key, label string, v any) error {
	dict, ok := v.(*ibis.Node)
	if !ok {
		return unsupported(v)
	}
	o.line(bracket(key, label))
	for k, e := range dict.All() {
		s, err := format(e)
		if err != nil {
			return err
		}
		o.line(k, s)
	}
	return nil
}

// ncTables write unassigned reference cells as NC rather than NA.
var ncTables = map[string]bool{"pin": true, "pin_mapping": true}

func (o *lines) table(t *grammar.Table, v any) error {
	dict, ok := v.(*ibis.Node)
	if !ok {
		return unsupported(v)
	}
	cols := append([]string(nil), t.Headers()...)
	for _, opt := range t.OptionalHeaders() {
		for _, row := range dict.All() {
			if r, ok := row.(*ibis.Node); ok && r.Value(opt) != nil {
				cols = append(cols, opt)
				break
			}
		}
	}
	o.line(bracket(t.Key(), strings.Join(cols, " ")))
	required := len(t.Headers())
	for key, row := range dict.All() {
		r, ok := row.(*ibis.Node)
		if !ok {
			return unsupported(row)
		}
		// Composite row keys lead with the row's own name.
		name, _, _ := strings.Cut(key, " ")
		cells := []string{name}
		last := required
		for i, col := range cols {
			if r.Value(col) != nil {
				last = max(last, i+1)
			}
		}
		for _, col := range cols[:last] {
			cv := r.Value(col)
			if cv == nil {
				if !t.Typed(col) && ncTables[t.Canon()] {
					cells = append(cells, "NC")
				} else {
					cells = append(cells, "NA")
				}
				continue
			}
			s, err := format(cv)
			if err != nil {
				return err
			}
			cells = append(cells, s)
		}
		o.line(cells...)
	}
	return nil
}

func (o *lines) rangeTable(r *grammar.RangeTable, v any) error {
	if kp := r.KeyParam(); kp != "" {
		dict, ok := v.(*ibis.Node)
		if !ok {
			return unsupported(v)
		}
		head := kp
		if p, ok := r.Child(kp).(*grammar.Param); ok && p.Delim() != "" {
			head += " " + p.Delim()
		}
		for k, cs := range dict.All() {
			o.line(bracket(r.Key(), ""))
			o.line(head, k)
			if err := o.rows(cs); err != nil {
				return err
			}
		}
		return nil
	}
	o.line(bracket(r.Key(), ""))
	n, ok := v.(*ibis.Node)
	if !ok {
		return o.rows(v)
	}
	if err := o.params(r, n); err != nil {
		return err
	}
	if err := o.rows(n.Value(r.DataKey())); err != nil {
		return err
	}
	return o.sections(r, n)
}

// rows writes the three curves of a range table as merged rows, with NA
// where a corner has no sample at an index.
func (o *lines) rows(v any) error {
	cs, ok := v.(ibis.CurveSet)
	if !ok {
		return unsupported(v)
	}
	var curves [3]*ibis.Curve
	for i, c := range ibis.Corners {
		curves[i], _ = cs.Raw(c)
	}
	dir := 1.0
	if t := curves[0]; t.Len() > 1 && t.X[len(t.X)-1] < t.X[0] {
		dir = -1
	}
	var pos [3]int
	for {
		next, found := 0.0, false
		for i, c := range curves {
			if pos[i] < c.Len() {
				x := c.X[pos[i]]
				if !found || x*dir < next*dir {
					next, found = x, true
				}
			}
		}
		if !found {
			return nil
		}
		cells := []string{ibis.FormatFloat(next)}
		for i, c := range curves {
			if pos[i] < c.Len() && c.X[pos[i]] == next {
				cells = append(cells, ibis.FormatFloat(c.Y[pos[i]]))
				pos[i]++
			} else {
				cells = append(cells, "NA")
			}
		}
		o.line(cells...)
	}
}

func (o *lines) matrix(key string, v any) error {
	m, ok := v.(*ibis.Matrix)
	if !ok {
		return unsupported(v)
	}
	o.line(bracket(key, "Sparse_matrix"))
	for r, pin := range m.Pins {
		var cells []string
		for c, col := range m.Pins {
			if x := m.At(r, c); x != 0 {
				cells = append(cells, col+" "+ibis.FormatFloat(x))
			}
		}
		if len(cells) == 0 {
			continue
		}
		o.line(bracket("Row", pin))
		for _, cell := range cells {
			o.line(cell)
		}
	}
	return nil
}

func unsupported(v any) error {
	return fmt.Errorf("%w: value of type %T", ibis.ErrUnsupported, v)
}
