package grammar

import (
	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

// RangeTable is a section of "index typ min max" rows, such as [Pullup]
// or a waveform. The index must be monotonic: the first pair of
// differing indices fixes the direction unless the grammar fixes it.
type RangeTable struct {
	Section
	increasing bool
	keyParam   string
}

// NewRangeTable returns a range-table rule.
func NewRangeTable(key string, opts ...Option) *RangeTable {
	return &RangeTable{Section: *NewSection(key, opts...)}
}

// Increasing requires strictly increasing indices.
func (r *RangeTable) Increasing() *RangeTable {
	r.increasing = true
	return r
}

// KeyedBy gathers occurrences into a dictionary keyed by the value of
// the named child parameter, which is then dropped from the table.
func (r *RangeTable) KeyedBy(param string) *RangeTable {
	r.keyParam = param
	r.init = func() any { return ibis.NewDict() }
	return r
}

// KeyParam returns the parameter keying occurrences, or "".
func (r *RangeTable) KeyParam() string { return r.keyParam }

func (r *RangeTable) Open(c *Context, in *Instance, text, comment string) error {
	if err := r.Section.Open(c, in, text, comment); err != nil {
		return err
	}
	in.Value = nil
	for i := range in.curves {
		in.curves[i] = &ibis.Curve{}
	}
	if r.increasing {
		in.dir = 1
	}
	return nil
}

func (r *RangeTable) Feed(_ *Context, in *Instance, text, _ string) (bool, error) {
	if text == "" {
		return true, nil
	}
	idx, vals, set, err := value.RangeRow(text)
	if err != nil {
		return false, err
	}
	if in.hasLast {
		switch {
		case idx > in.last && in.dir >= 0:
			in.dir = 1
		case idx < in.last && in.dir <= 0:
			in.dir = -1
		default:
			return false, ibis.NewError(ibis.ErrNotMonotonic, "index values not monotonic at '%s'", ibis.FormatFloat(idx))
		}
	}
	in.last, in.hasLast = idx, true
	for i, ok := range set {
		if ok {
			in.curves[i].X = append(in.curves[i].X, idx)
			in.curves[i].Y = append(in.curves[i].Y, vals[i])
		}
	}
	return true, nil
}

func (r *RangeTable) Seal(_ *Context, in *Instance) error {
	var cs ibis.CurveSet
	for i, c := range ibis.Corners {
		curve := in.curves[i]
		if i > 0 && curve.Len() == 0 {
			continue
		}
		if curve.Len() < 2 {
			return ibis.NewError(ibis.ErrMissingRequired, "'%s' %s column requires at least 2 points", r.key, c)
		}
		cs.Set(c, curve)
	}
	in.Value = cs
	if r.keyParam == "" {
		return nil
	}
	k, ok := in.Children.Get(r.keyParam)
	if !ok {
		return ibis.NewError(ibis.ErrMissingRequired, "'%s' is missing required '%s'", r.key, r.keyParam)
	}
	switch k := k.(type) {
	case float64:
		in.Key = ibis.FormatFloat(k)
	case string:
		in.Key = k
	}
	in.Children = ibis.NewNode()
	return nil
}

func (r *RangeTable) Merge(cur any, had bool, in *Instance) (any, error) {
	if r.keyParam != "" {
		return insertUnique(r.key, cur, in.Key, in.Value)
	}
	return r.Section.Merge(cur, had, in)
}
