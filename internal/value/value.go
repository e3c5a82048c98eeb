// Package value parses the scalar tokens of IBIS files: reals with
// engineering suffixes, integers, NA placeholders and the typ/min/max
// groups built from them.
package value

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goibis/goibis/ibis"
)

// FormatError reports a token that does not parse as the wanted kind.
type FormatError struct {
	Token string
	Want  string
}

func (e *FormatError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("expected %s", e.Want)
	}
	return fmt.Sprintf("could not parse %s from '%s'", e.Want, e.Token)
}

func (e *FormatError) Unwrap() error { return ibis.ErrFormat }

// RangeError reports a value outside its allowed interval.
type RangeError struct {
	Value float64
	Low   float64
	High  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("'%s' not in range [%s, %s]",
		ibis.FormatFloat(e.Value), ibis.FormatFloat(e.Low), ibis.FormatFloat(e.High))
}

func (e *RangeError) Unwrap() error { return ibis.ErrRange }

var realPattern = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+))(?:[eE]([+-]?\d+))?([A-Za-z]*)$`)

// suffixes maps the first letter of a unit suffix to its scale.
const suffixes = "fpnum.kMGT"

// ParseReal parses a real number with an optional unit suffix. The first
// suffix letter scales the value when it is one of f p n u m k M G T;
// any other letters are taken as a unit name and ignored. The scale is
// added to the decimal exponent, so "3.3p" yields the float nearest
// 3.3e-12.
func ParseReal(tok string) (float64, error) {
	m := realPattern.FindStringSubmatch(tok)
	if m == nil {
		return 0, &FormatError{Token: tok, Want: "real"}
	}
	exp := 0
	if m[2] != "" {
		e, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, &FormatError{Token: tok, Want: "real"}
		}
		exp = e
	}
	if m[3] != "" {
		if i := strings.IndexByte(suffixes, m[3][0]); i >= 0 {
			exp += (i - 5) * 3
		}
	}
	v, err := strconv.ParseFloat(m[1]+"e"+strconv.Itoa(exp), 64)
	if err != nil {
		return 0, &FormatError{Token: tok, Want: "real"}
	}
	return v, nil
}

var intPattern = regexp.MustCompile(`^[+-]?\d+$`)

// ParseInt parses a signed decimal integer.
func ParseInt(tok string) (int, error) {
	if !intPattern.MatchString(tok) {
		return 0, &FormatError{Token: tok, Want: "integer"}
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &FormatError{Token: tok, Want: "integer"}
	}
	return v, nil
}

// IsNA reports whether tok is the NA placeholder.
func IsNA(tok string) bool {
	return strings.EqualFold(tok, "NA")
}

// Check validates a parsed number.
type Check func(v float64) error

// InRange accepts values in [lo, hi].
func InRange(lo, hi float64) Check {
	return func(v float64) error {
		if v < lo || v > hi {
			return &RangeError{Value: v, Low: lo, High: hi}
		}
		return nil
	}
}

// Positive accepts values in [0, +Inf].
var Positive = InRange(0, math.Inf(1))

func runChecks(v float64, checks []Check) error {
	for _, c := range checks {
		if err := c(v); err != nil {
			return err
		}
	}
	return nil
}

// RealRange parses up to n (at most three) reals as typ, min, max. Typ
// must be present; NA leaves min or max unset.
func RealRange(text string, n int, checks ...Check) (ibis.Range, error) {
	toks := strings.Fields(text)
	if len(toks) == 0 {
		return ibis.Range{}, &FormatError{Want: "typ value"}
	}
	if len(toks) > n {
		return ibis.Range{}, &FormatError{Token: strings.Join(toks[n:], " "), Want: "end of line"}
	}
	var r ibis.Range
	for i, tok := range toks {
		if IsNA(tok) {
			if i == 0 {
				return ibis.Range{}, &FormatError{Token: tok, Want: "typ value"}
			}
			continue
		}
		v, err := ParseReal(tok)
		if err != nil {
			return ibis.Range{}, err
		}
		if err := runChecks(v, checks); err != nil {
			return ibis.Range{}, err
		}
		r.Set(ibis.Corners[i], v)
	}
	return r, nil
}

// RangeRow parses a range-table row: an index followed by typ, min and
// max, any of which may be NA. The index may not be NA.
func RangeRow(text string) (idx float64, vals [3]float64, set [3]bool, err error) {
	toks := strings.Fields(text)
	if len(toks) != 4 {
		err = &FormatError{Token: text, Want: "index, typ, min and max"}
		return
	}
	if idx, err = ParseReal(toks[0]); err != nil {
		return
	}
	for i, tok := range toks[1:] {
		if IsNA(tok) {
			continue
		}
		if vals[i], err = ParseReal(tok); err != nil {
			return
		}
		set[i] = true
	}
	return
}

var slashSpace = regexp.MustCompile(`\s*/\s*`)

// ParseRamp parses up to three dV/dt pairs. The typ pair is required;
// min and max may be NA.
func ParseRamp(text string) (ibis.Triple[ibis.Ramp], error) {
	var t ibis.Triple[ibis.Ramp]
	toks := strings.Fields(slashSpace.ReplaceAllString(text, "/"))
	if len(toks) == 0 {
		return t, &FormatError{Want: "dV/dt"}
	}
	if len(toks) > 3 {
		return t, &FormatError{Token: strings.Join(toks[3:], " "), Want: "end of line"}
	}
	for i, tok := range toks {
		if i > 0 && IsNA(tok) {
			continue
		}
		dv, dt, ok := strings.Cut(tok, "/")
		if !ok {
			return t, &FormatError{Token: tok, Want: "dV/dt"}
		}
		var r ibis.Ramp
		var err error
		if r.DV, err = ParseReal(dv); err != nil {
			return t, err
		}
		if r.DT, err = ParseReal(dt); err != nil {
			return t, err
		}
		t.Set(ibis.Corners[i], r)
	}
	return t, nil
}
