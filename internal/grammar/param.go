package grammar

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

// ParamForm selects how repeated occurrences of a parameter combine.
type ParamForm int

const (
	// Plain parameters occur once.
	Plain ParamForm = iota
	// Keyed parameters take their first token as a dictionary key, as
	// in "Port_map A_signal pad".
	Keyed
	// Ranged parameters carry an optional "_range" field naming the
	// corner they describe, as in "Corner Typ file circuit".
	Ranged
	// KeyedRanged parameters are both, as in "D_to_A D_drive ... Typ".
	KeyedRanged
)

// RangeField is the record field naming the corner of a ranged parameter.
const RangeField = "_range"

// Param is an unbracketed "Name value" or "Name = value" line inside a
// section.
type Param struct {
	Base
	parse value.Parser
	delim string
	form  ParamForm
}

// NewParam returns a plain parameter matched on its first token.
func NewParam(key string, parse value.Parser, opts ...Option) *Param {
	if parse == nil {
		parse = value.Text()
	}
	return &Param{Base: newBase(key, opts), parse: parse}
}

// NewDelimParam returns a plain parameter written "Name <delim> value".
func NewDelimParam(key, delim string, parse value.Parser, opts ...Option) *Param {
	p := NewParam(key, parse, opts...)
	p.delim = delim
	return p
}

// NewFormParam returns a keyed and/or ranged parameter.
func NewFormParam(key string, form ParamForm, parse value.Parser, opts ...Option) *Param {
	p := NewParam(key, parse, opts...)
	p.form = form
	if form != Plain {
		p.init = func() any {
			if form == Ranged {
				return ibis.Triple[any]{}
			}
			return ibis.NewDict()
		}
	}
	return p
}

// Delim returns the delimiter between name and value, or "".
func (p *Param) Delim() string { return p.delim }

// Form returns how repeated occurrences combine.
func (p *Param) Form() ParamForm { return p.form }

func (p *Param) Match(text string) bool {
	if text == "" || text[0] == '[' {
		return false
	}
	if p.delim != "" {
		name, _, ok := strings.Cut(text, p.delim)
		return ok && ibis.Canonical(strings.TrimSpace(name)) == p.canon
	}
	name, _ := value.SplitFirst(text)
	return ibis.Canonical(name) == p.canon
}

func (p *Param) Open(c *Context, in *Instance, text, comment string) error {
	if err := p.Base.Open(c, in, text, comment); err != nil {
		return err
	}
	var rest string
	if p.delim != "" {
		_, rest, _ = strings.Cut(text, p.delim)
		rest = strings.TrimSpace(rest)
	} else {
		_, rest = value.SplitFirst(text)
	}
	if p.form == Keyed || p.form == KeyedRanged {
		in.Key, rest = value.SplitFirst(rest)
		if in.Key == "" {
			return ibis.NewError(ibis.ErrFormat, "expected name after '%s'", p.key)
		}
	}
	v, err := p.parse(rest)
	if err != nil {
		return err
	}
	in.Value = v
	return nil
}

// Seal takes the corner out of a ranged record.
func (p *Param) Seal(_ *Context, in *Instance) error {
	if p.form != Ranged && p.form != KeyedRanged {
		return nil
	}
	c, err := p.corner(in)
	if err != nil {
		return err
	}
	in.Corner = c
	return nil
}

func (p *Param) corner(in *Instance) (ibis.Corner, error) {
	rec, ok := in.Value.(*ibis.Node)
	if !ok {
		return ibis.Typ, nil
	}
	name, ok := rec.Get(RangeField)
	if !ok {
		return ibis.Typ, nil
	}
	rec.Delete(RangeField)
	s, _ := name.(string)
	c, ok := ibis.ParseCorner(s)
	if !ok {
		return ibis.Typ, ibis.NewError(ibis.ErrFormat, "unknown range key, '%s'", s)
	}
	return c, nil
}

func (p *Param) Merge(cur any, had bool, in *Instance) (any, error) {
	switch p.form {
	case Keyed:
		return insertUnique(p.key, cur, in.Key, in.Value)
	case Ranged:
		t, _ := cur.(ibis.Triple[any])
		if t.Has(in.Corner) {
			return nil, ibis.NewError(ibis.ErrDuplicate, "%s value for '%s' already specified", in.Corner, p.key)
		}
		t.Set(in.Corner, in.Value)
		return t, nil
	case KeyedRanged:
		dict, ok := cur.(*ibis.Node)
		if !ok || dict == nil {
			dict = ibis.NewDict()
		}
		t, _ := dict.Value(in.Key).(ibis.Triple[any])
		if t.Has(in.Corner) {
			return nil, ibis.NewError(ibis.ErrDuplicate, "%s value for '%s' already specified", in.Corner, in.Key)
		}
		t.Set(in.Corner, in.Value)
		dict.Set(in.Key, t)
		return dict, nil
	}
	return p.Base.Merge(cur, had, in)
}
