package ibis

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Corner selects one of the three process corners of a ranged value.
type Corner int

const (
	Typ Corner = iota
	Min
	Max
)

var cornerNames = [...]string{"typ", "min", "max"}

func (c Corner) String() string {
	if c >= 0 && int(c) < len(cornerNames) {
		return cornerNames[c]
	}
	return fmt.Sprintf("Corner(%d)", int(c))
}

// ParseCorner maps "typ", "min" or "max" (any case) to a Corner.
func ParseCorner(s string) (Corner, bool) {
	for i, name := range cornerNames {
		if strings.EqualFold(s, name) {
			return Corner(i), true
		}
	}
	return Typ, false
}

// Corners lists the corners in typ, min, max order.
var Corners = [3]Corner{Typ, Min, Max}

// Triple holds a typ/min/max set of values. Min and Max are optional;
// reading an unset corner yields the typ value.
type Triple[T any] struct {
	vals [3]T
	set  [3]bool
}

// NewTriple returns a triple with only typ set.
func NewTriple[T any](typ T) Triple[T] {
	var t Triple[T]
	t.Set(Typ, typ)
	return t
}

// Set assigns the value for corner c.
func (t *Triple[T]) Set(c Corner, v T) {
	t.vals[c] = v
	t.set[c] = true
}

// Clear unsets corner c.
func (t *Triple[T]) Clear(c Corner) {
	var zero T
	t.vals[c] = zero
	t.set[c] = false
}

// Has reports whether corner c was given explicitly.
func (t Triple[T]) Has(c Corner) bool { return t.set[c] }

// Raw returns the stored value of corner c without falling back to typ.
func (t Triple[T]) Raw(c Corner) (T, bool) { return t.vals[c], t.set[c] }

// At returns the value of corner c, falling back to typ when unset.
func (t Triple[T]) At(c Corner) T {
	if t.set[c] {
		return t.vals[c]
	}
	return t.vals[Typ]
}

// Equal reports whether both triples set the same corners to equal values.
func (t Triple[T]) Equal(o Triple[T]) bool {
	return t.set == o.set && reflect.DeepEqual(t.vals, o.vals)
}

func (t Triple[T]) Typ() T { return t.At(Typ) }
func (t Triple[T]) Min() T { return t.At(Min) }
func (t Triple[T]) Max() T { return t.At(Max) }

// Range is a typ/min/max triple of reals.
type Range struct {
	Triple[float64]
}

// NewRange returns a range with the given typ and optional min and max.
func NewRange(typ float64, minmax ...float64) Range {
	r := Range{NewTriple(typ)}
	if len(minmax) > 0 {
		r.Set(Min, minmax[0])
	}
	if len(minmax) > 1 {
		r.Set(Max, minmax[1])
	}
	return r
}

// Norm returns the range with min and max exchanged if needed so that
// Max() >= Min().
func (r Range) Norm() Range {
	if r.Min() > r.Max() {
		return r.swapped()
	}
	return r
}

// Inv returns the range with min and max exchanged if needed so that
// Min() >= Max().
func (r Range) Inv() Range {
	if r.Min() < r.Max() {
		return r.swapped()
	}
	return r
}

func (r Range) swapped() Range {
	out := Range{NewTriple(r.Typ())}
	out.Set(Min, r.Max())
	out.Set(Max, r.Min())
	return out
}

func (r Range) String() string {
	var b strings.Builder
	b.WriteString(FormatFloat(r.Typ()))
	for _, c := range []Corner{Min, Max} {
		b.WriteByte(' ')
		if v, ok := r.Raw(c); ok {
			b.WriteString(FormatFloat(v))
		} else {
			b.WriteString("NA")
		}
	}
	return b.String()
}

// Ramp is a dV/dt pair from a [Ramp] section.
type Ramp struct {
	DV float64
	DT float64
}

// Slope returns DV/DT, or 0 when DT is zero.
func (r Ramp) Slope() float64 {
	if r.DT == 0 {
		return 0
	}
	return r.DV / r.DT
}

func (r Ramp) String() string {
	return FormatFloat(r.DV) + "/" + FormatFloat(r.DT)
}

// Curve is a sampled function with monotonic X.
type Curve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Len returns the number of samples.
func (c *Curve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.X)
}

// CurveSet holds the typ/min/max columns of a range table. The min and
// max curves are unset when the column was NA throughout.
type CurveSet struct {
	Triple[*Curve]
}

// Matrix is a square numeric matrix indexed by a pin ordering.
type Matrix struct {
	Pins []string
	data []float64
}

// NewMatrix returns a zero matrix over pins.
func NewMatrix(pins []string) *Matrix {
	n := len(pins)
	return &Matrix{Pins: append([]string(nil), pins...), data: make([]float64, n*n)}
}

// Dim returns the matrix dimension.
func (m *Matrix) Dim() int { return len(m.Pins) }

func (m *Matrix) At(r, c int) float64 { return m.data[r*len(m.Pins)+c] }

func (m *Matrix) Set(r, c int, v float64) { m.data[r*len(m.Pins)+c] = v }

// Equal reports whether both matrices share pins and values.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return slices.Equal(m.Pins, o.Pins) && slices.Equal(m.data, o.data)
}

// Rows returns a copy of the matrix as a slice of rows.
func (m *Matrix) Rows() [][]float64 {
	n := len(m.Pins)
	out := make([][]float64, n)
	for r := range out {
		out[r] = append([]float64(nil), m.data[r*n:(r+1)*n]...)
	}
	return out
}

// PathKind distinguishes the elements of an electrical path description.
type PathKind int

const (
	PathPin PathKind = iota
	PathNode
	PathStub
	PathFork
)

var pathKindNames = [...]string{"pin", "node", "stub", "fork"}

func (k PathKind) String() string {
	if k >= 0 && int(k) < len(pathKindNames) {
		return pathKindNames[k]
	}
	return fmt.Sprintf("PathKind(%d)", int(k))
}

// PathItem is one element of a [Path Description] or stub-style
// [Pin Numbers] entry. Stubs carry their length and per-unit-length
// parasitics; forks carry a nested path.
type PathItem struct {
	Kind PathKind
	Name string
	Len  float64
	L    float64
	R    float64
	C    float64
	Fork []PathItem
}
