package parser_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/dialect"
	"github.com/goibis/goibis/internal/parser"
	"github.com/goibis/goibis/internal/testutil"
	"github.com/goibis/goibis/internal/types"
)

func minimal() string {
	return testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "GND"),
		testutil.InputModel("in", false))
}

func TestParseMinimal(t *testing.T) {
	p := parser.New(dialect.IBS(), "acme.ibs", nil, ibis.DefaultConfig())
	root, err := p.Parse(context.Background(), strings.NewReader(minimal()))
	require.NoError(t, err)
	assert.Empty(t, p.Diagnostics())

	assert.Equal(t, []string{"header", "Component", "Model"}, root.Keys())
	ver, _ := root.Node("header").Text("File Name")
	assert.Equal(t, "acme.ibs", ver)
	assert.Equal(t, []string{"1", "2"}, root.Node("Component").Node("ACME").Node("Pin").Keys())
}

func TestParseSectionOrderIrrelevant(t *testing.T) {
	a, _ := testutil.Parse(t, ibis.DialectIBS, minimal())
	b, _ := testutil.Parse(t, ibis.DialectIBS, testutil.Document("acme.ibs",
		testutil.InputModel("in", false),
		testutil.Component("ACME", "1", "in", "2", "GND")))
	assert.True(t, a.Equal(b))
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	text := strings.NewReplacer("[Component]", "[COMPONENT]", "[Pin]", "[pin]", "Model_type", "model_TYPE").Replace(minimal())
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	assert.NotNil(t, root.Node("component").Node("ACME"))
	assert.Equal(t, "input", root.Node("Model").Node("in").Value("Model_type"))
}

func TestParseComments(t *testing.T) {
	text := strings.Replace(minimal(), "[Manufacturer] Acme", "| vendor follows\n[Manufacturer] Acme   | Acme Corp", 1)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	m, _ := root.Node("Component").Node("ACME").Text("Manufacturer")
	assert.Equal(t, "Acme", m)
}

func TestParseCommentChar(t *testing.T) {
	text := strings.Replace(minimal(), "[File Rev] 1.0\n", "[File Rev] 1.0\n[Comment Char] #_char\n", 1)
	text = strings.Replace(text, "[Manufacturer] Acme", "[Manufacturer] Acme|Widgets # vendor", 1)
	root, diags := testutil.Parse(t, ibis.DialectIBS, text)

	d := testutil.Diagnostic(t, diags, types.DiagCommentChar)
	assert.Equal(t, ibis.SeverityInfo, d.Severity)
	assert.Equal(t, 4, d.Line)
	m, _ := root.Node("Component").Node("ACME").Text("Manufacturer")
	assert.Equal(t, "Acme|Widgets", m)

	_, _, err := testutil.TryParse(ibis.DialectIBS, text, ibis.DiagnosticConfig{FailAt: ibis.SeverityInfo})
	assert.ErrorIs(t, err, ibis.ErrEscalated)
}

func TestParseCommentCharErrors(t *testing.T) {
	tests := []struct {
		name, directive string
		sentinel        error
	}{
		{"bad format", "[Comment Char] #", ibis.ErrFormat},
		{"bad char", "[Comment Char] a_char", ibis.ErrFormat},
		{"changed twice", "[Comment Char] #_char\n[Comment Char] !_char", ibis.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Replace(minimal(), "[File Rev] 1.0\n", "[File Rev] 1.0\n"+tt.directive+"\n", 1)
			testutil.ParseError(t, ibis.DialectIBS, text, tt.sentinel)
		})
	}
}

func TestParseStructureErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sentinel error
		kind     ibis.ErrorKind
		line     int
	}{
		{
			name:     "missing end",
			text:     strings.TrimSuffix(minimal(), "[End]\n"),
			sentinel: ibis.ErrMissingEnd,
		},
		{
			name:     "trailing content",
			text:     minimal() + "\n| comment is fine\nstray text\n",
			sentinel: ibis.ErrTrailingContent,
		},
		{
			name:     "unknown keyword",
			text:     testutil.Document("acme.ibs", "[Bogus Keyword] x"),
			sentinel: ibis.ErrUnexpectedContent,
			line:     4,
		},
		{
			name:     "missing header",
			text:     "[Component] ACME\n[End]\n",
			sentinel: ibis.ErrMissingRequired,
			kind:     ibis.KindSemantic,
			line:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testutil.ParseError(t, ibis.DialectIBS, tt.text, tt.sentinel)
			assert.Equal(t, tt.kind, e.Kind)
			if tt.line > 0 {
				assert.Equal(t, tt.line, e.Line)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	text := strings.Replace(minimal(), "R_pkg 0.1 NA NA", "R_pkg abc NA NA", 1)
	e := testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrFormat)
	assert.Equal(t, ibis.KindFormat, e.Kind)
	assert.Equal(t, 7, e.Line)
	assert.Contains(t, e.Trail, "[Component] ACME")
	assert.Contains(t, e.Error(), "line 7")
}

func TestParseErrorTrail(t *testing.T) {
	// Failures found while closing the file belong to no section.
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "missing"),
		testutil.InputModel("in", false))
	e := testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrUnresolved)
	assert.Empty(t, e.Trail)
	assert.Empty(t, e.Keyword)
	assert.NotContains(t, e.Error(), "Pulldown")

	text = strings.Replace(minimal(), "Vinl = 0.8", "Vinl = low", 1)
	e = testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrFormat)
	assert.Equal(t, []string{"[Model] in", "Vinl"}, e.Trail)
	assert.Equal(t, "Vinl", e.Keyword)

	// Single-line keywords left open are not part of the trail.
	comp := strings.Replace(testutil.Component("ACME", "1", "in", "2", "GND"), "[Manufacturer] Acme\n", "", 1)
	text = testutil.Document("acme.ibs",
		comp+"[Manufacturer] Acme\n[Bogus]\n",
		testutil.InputModel("in", false))
	e = testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrUnexpectedContent)
	assert.Equal(t, []string{"[Component] ACME"}, e.Trail)
	assert.Equal(t, "Component", e.Keyword)

	text = strings.TrimSuffix(minimal(), "[End]\n") + "[Comment Char] #_char\n"
	e = testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrMissingEnd)
	assert.Equal(t, []string{"[Model] in", "[Pulldown]"}, e.Trail)
}

func TestParseNonMonotonicTable(t *testing.T) {
	text := strings.Replace(minimal(), "[Pullup]\n-1.0 0.1 NA NA\n1.0 -0.1 NA NA\n",
		"[Pullup]\n-1.0 0.1 NA NA\n1.0 -0.1 NA NA\n0.5 0 NA NA\n", 1)
	testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrNotMonotonic)
}

func TestParseDuplicateLabel(t *testing.T) {
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in"),
		testutil.InputModel("in", false),
		testutil.InputModel("in", false))
	e := testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrDuplicate)
	assert.Contains(t, e.Msg, "'in'")
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := parser.New(dialect.IBS(), "acme.ibs", nil, ibis.DefaultConfig())
	_, err := p.Parse(ctx, strings.NewReader(minimal()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLongLine(t *testing.T) {
	notes := "[Notes] " + strings.Repeat("x", 200_000) + "\n"
	text := strings.Replace(minimal(), "[File Rev] 1.0\n", "[File Rev] 1.0\n"+notes, 1)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	n, _ := root.Node("header").Text("Notes")
	assert.Len(t, n, 200_000)
}
