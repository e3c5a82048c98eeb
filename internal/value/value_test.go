package value

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goibis/goibis/ibis"
)

func TestParseReal(t *testing.T) {
	tests := []struct {
		tok  string
		want float64
	}{
		{"1", 1},
		{"-2.5", -2.5},
		{"+.5", 0.5},
		{"3.", 3},
		{"1e3", 1000},
		{"1.5E-2", 0.015},
		{"5e+06", 5e6},
		{"1.2pF", 1.2e-12},
		{"4n", 4e-9},
		{"10u", 10e-6},
		{"3.3mV", 3.3e-3},
		{"2k", 2000},
		{"1M", 1e6},
		{"1Meg", 1e6},
		{"2G", 2e9},
		{"1T", 1e12},
		{"7f", 7e-15},
		{"3.3V", 3.3},
		{"50Ohm", 50},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, err := ParseReal(tt.tok)
			require.NoError(t, err)
			assert.InEpsilon(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseRealSuffixExact(t *testing.T) {
	tests := []struct {
		tok, decimal string
	}{
		{"3.3p", "3.3e-12"},
		{"0.1n", "0.1e-9"},
		{"4.7u", "4.7e-6"},
		{"2.2m", "2.2e-3"},
		{"1.1G", "1.1e9"},
		{"0.7f", "0.7e-15"},
		{"1.5e-3k", "1.5"},
		{"10k", "1e4"},
		{"1e", "1"},
		{"1.5E", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			want, err := strconv.ParseFloat(tt.decimal, 64)
			require.NoError(t, err)
			got, err := ParseReal(tt.tok)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseRealRejects(t *testing.T) {
	for _, tok := range []string{"", "NA", "abc", "1.2.3", "--1", "1n/2", "inf", "NaN"} {
		t.Run(tok, func(t *testing.T) {
			_, err := ParseReal(tok)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ibis.ErrFormat))
		})
	}
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("+12")
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	v, err = ParseInt("-3")
	require.NoError(t, err)
	assert.Equal(t, -3, v)

	for _, tok := range []string{"1.0", "x", "", "1-2"} {
		_, err := ParseInt(tok)
		assert.ErrorIs(t, err, ibis.ErrFormat, tok)
	}
}

func TestChecks(t *testing.T) {
	require.NoError(t, Positive(0))
	require.NoError(t, Positive(math.MaxFloat64))
	err := Positive(-1)
	require.ErrorIs(t, err, ibis.ErrRange)
	var re *RangeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, -1.0, re.Value)

	in := InRange(0, 10)
	require.NoError(t, in(10))
	require.ErrorIs(t, in(10.5), ibis.ErrRange)
}

func TestRealRange(t *testing.T) {
	r, err := RealRange("3.3 3.0 3.6", 3)
	require.NoError(t, err)
	assert.Equal(t, 3.3, r.Typ())
	assert.Equal(t, 3.0, r.Min())
	assert.Equal(t, 3.6, r.Max())

	r, err = RealRange("1p NA 2p", 3)
	require.NoError(t, err)
	assert.False(t, r.Has(ibis.Min))
	assert.Equal(t, r.Typ(), r.Min(), "unset min falls back to typ")
	assert.InEpsilon(t, 2e-12, r.Max(), 1e-12)

	_, err = RealRange("NA 1 2", 3)
	assert.ErrorIs(t, err, ibis.ErrFormat, "typ may not be NA")

	_, err = RealRange("1 2 3 4", 3)
	assert.ErrorIs(t, err, ibis.ErrFormat, "extra tokens")

	_, err = RealRange("", 3)
	assert.ErrorIs(t, err, ibis.ErrFormat)

	_, err = RealRange("1 -2", 3, Positive)
	assert.ErrorIs(t, err, ibis.ErrRange)
}

func TestRangeRow(t *testing.T) {
	idx, vals, set, err := RangeRow("-1.0 -10m NA -12m")
	require.NoError(t, err)
	assert.Equal(t, -1.0, idx)
	assert.Equal(t, [3]bool{true, false, true}, set)
	assert.InEpsilon(t, -0.010, vals[0], 1e-12)
	assert.InEpsilon(t, -0.012, vals[2], 1e-12)

	_, _, _, err = RangeRow("NA 1 2 3")
	assert.ErrorIs(t, err, ibis.ErrFormat)
	_, _, _, err = RangeRow("0 1 2")
	assert.ErrorIs(t, err, ibis.ErrFormat)
}

func TestParseRamp(t *testing.T) {
	r, err := ParseRamp("1.57/0.44n 1.2 / 0.6n NA")
	require.NoError(t, err)
	typ := r.Typ()
	assert.Equal(t, 1.57, typ.DV)
	assert.InEpsilon(t, 0.44e-9, typ.DT, 1e-12)
	assert.True(t, r.Has(ibis.Min))
	assert.False(t, r.Has(ibis.Max))

	_, err = ParseRamp("NA")
	assert.ErrorIs(t, err, ibis.ErrFormat)
	_, err = ParseRamp("1.0")
	assert.ErrorIs(t, err, ibis.ErrFormat)
}

func TestFields(t *testing.T) {
	p := Fields(F("file_name", WordTok), F("component_name", WordTok), Opt("extra", RealTok()))
	v, err := p("  pkg.ibs   DIE ")
	require.NoError(t, err)
	rec := v.(*ibis.Node)
	assert.Equal(t, []string{"file_name", "component_name"}, rec.Keys())
	assert.Equal(t, "DIE", rec.Value("component_name"))

	_, err = p("only")
	assert.ErrorIs(t, err, ibis.ErrFormat)
	_, err = p("a b 1 extra")
	assert.ErrorIs(t, err, ibis.ErrFormat)

	rest := Fields(F("name", WordTok), Rest("description"))
	v, err = rest("fast  Fast output buffer")
	require.NoError(t, err)
	assert.Equal(t, "Fast output buffer", v.(*ibis.Node).Value("description"))
}

func TestOneOf(t *testing.T) {
	p := OneOf("Input Output I/O")
	v, err := p("i/O")
	require.NoError(t, err)
	assert.Equal(t, "i/o", v)

	_, err = p("Terminator")
	assert.ErrorIs(t, err, ibis.ErrFormat)
	_, err = p("Input Output")
	assert.ErrorIs(t, err, ibis.ErrFormat)
}

func TestWords(t *testing.T) {
	v, err := Words(1, 2)("a b")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
	_, err = Words(1, 2)("")
	assert.Error(t, err)
	_, err = Words(0, 2)("a b c")
	assert.Error(t, err)

	v, err = NAReal()("na")
	require.NoError(t, err)
	assert.Nil(t, v)
}
