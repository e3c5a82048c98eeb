package grammar

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

// Matrix formats named after the keyword, e.g. "[Inductance Matrix] Sparse_matrix".
const (
	SparseMatrix = "sparse_matrix"
	BandedMatrix = "banded_matrix"
	FullMatrix   = "full_matrix"
)

// Matrix is a square matrix section of a package model. Rows are given
// as "[Row] <pin>" blocks; the pin order comes from the [Pin Numbers] of
// the enclosing package model.
type Matrix struct {
	Section
	checks []value.Check
}

// NewMatrix returns a matrix rule with its [Bandwidth] and [Row] children.
func NewMatrix(key string, checks ...value.Check) *Matrix {
	m := &Matrix{Section: *NewSection(key), checks: checks}
	m.needsText = true
	m.Add(
		NewKeyword("Bandwidth", value.Int(value.Positive)),
		NewCollect("Row", Tokens(value.Words(1, -1)), Labeled()),
	)
	return m
}

func (m *Matrix) Seal(c *Context, in *Instance) error {
	pkg := c.Parent(c.Parent(in))
	var pins *ibis.Node
	if pkg != nil {
		pins = pkg.Children.Node("Pin Numbers")
	}
	if pins == nil {
		return ibis.NewError(ibis.ErrUnresolved, "could not find associated [Pin Numbers] section")
	}
	count, ok := pkg.Children.Int("Number Of Pins")
	if !ok {
		return ibis.NewError(ibis.ErrUnresolved, "could not find associated [Number Of Pins] section")
	}
	if count != pins.Len() {
		return ibis.NewError(ibis.ErrDimension, "[Number Of Pins] %d does not match %d entries of [Pin Numbers]", count, pins.Len())
	}

	mapping := pkg.Children.Node("Pin Mapping")
	if mapping == nil {
		mapping = ibis.NewDict()
		for i, pin := range pins.Keys() {
			mapping.Set(pin, i)
		}
		pkg.Children.Set("Pin Mapping", mapping)
	}
	order := make([]string, mapping.Len())
	for pin, idx := range mapping.All() {
		i, ok := idx.(int)
		if !ok || i < 0 || i >= len(order) {
			return ibis.NewError(ibis.ErrDimension, "bad matrix index for pin '%s'", pin)
		}
		order[i] = pin
	}
	mat := ibis.NewMatrix(order)

	index := func(pin string) (int, error) {
		i, ok := mapping.Int(pin)
		if !ok {
			return 0, ibis.NewError(ibis.ErrUnresolved, "unknown pin name '%s' in matrix", pin)
		}
		return i, nil
	}
	format := strings.ToLower(in.Label)
	if format != SparseMatrix && format != BandedMatrix && format != FullMatrix {
		return ibis.NewError(ibis.ErrFormat, "incomplete/unknown matrix '%s'", in.Label)
	}
	for pin, data := range in.Children.Node("Row").All() {
		r, err := index(pin)
		if err != nil {
			return err
		}
		words, _ := data.([]any)
		if format == SparseMatrix {
			if len(words)%2 != 0 {
				return ibis.NewError(ibis.ErrFormat, "row '%s' has an unpaired entry", pin)
			}
			for i := 0; i < len(words); i += 2 {
				col, err := index(words[i].(string))
				if err != nil {
					return err
				}
				v, err := m.cell(words[i+1].(string))
				if err != nil {
					return err
				}
				mat.Set(r, col, v)
			}
			continue
		}
		col := r
		for _, w := range words {
			v, err := m.cell(w.(string))
			if err != nil {
				return err
			}
			mat.Set(r, col, v)
			col = (col + 1) % mat.Dim()
		}
	}
	in.Value = mat
	in.Children = ibis.NewNode()
	return nil
}

func (m *Matrix) cell(tok string) (float64, error) {
	v, err := value.ParseReal(tok)
	if err != nil {
		return 0, err
	}
	for _, check := range m.checks {
		if err := check(v); err != nil {
			return 0, err
		}
	}
	return v, nil
}
