package dialect_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/dialect"
	"github.com/goibis/goibis/internal/testutil"
	"github.com/goibis/goibis/internal/types"
)

func TestFor(t *testing.T) {
	for _, d := range []ibis.Dialect{ibis.DialectIBS, ibis.DialectPKG, ibis.DialectEBD} {
		g, err := dialect.For(d)
		require.NoError(t, err)
		assert.Equal(t, d, g.Dialect)
	}
	assert.Same(t, dialect.IBS(), dialect.IBS(), "grammars are built once")

	_, err := dialect.For(ibis.Dialect(9))
	assert.ErrorIs(t, err, ibis.ErrUnknownDialect)
}

func TestGrammarSections(t *testing.T) {
	assert.NotNil(t, dialect.IBS().Root.Child("Component"))
	assert.NotNil(t, dialect.IBS().Root.Child("model selector"), "keys match canonically")
	assert.NotNil(t, dialect.PKG().Root.Child("Define Package Model"))
	assert.Nil(t, dialect.PKG().Root.Child("Component"))
	assert.NotNil(t, dialect.EBD().Root.Child("Begin Board Description"))
}

func TestFacetsOf(t *testing.T) {
	tests := []struct {
		modelType string
		want      dialect.Facets
	}{
		{"input", dialect.Facets{Input: true}},
		{"output", dialect.Facets{Output: true}},
		{"i/o", dialect.Facets{Input: true, Output: true, Enable: true}},
		{"3-state", dialect.Facets{Output: true, Enable: true}},
		{"i/o_open_sink", dialect.Facets{Input: true, Output: true, Enable: true, Sink: true}},
		{"open_source", dialect.Facets{Output: true, Source: true}},
		{"input_ecl", dialect.Facets{Input: true, ECL: true}},
		{"i/o_diff", dialect.Facets{Input: true, Output: true, Enable: true, Diff: true}},
		{"series", dialect.Facets{Series: true}},
		{"series_switch", dialect.Facets{Series: true, Switch: true}},
		{"terminator", dialect.Facets{Terminator: true}},
	}
	for _, tt := range tests {
		t.Run(tt.modelType, func(t *testing.T) {
			assert.Equal(t, tt.want, dialect.FacetsOf(tt.modelType))
		})
	}
}

func TestFacetRules(t *testing.T) {
	required, disallowed := dialect.FacetsOf("input_diff").Rules()
	assert.Contains(t, required, "External Model")
	assert.Contains(t, disallowed, "Rgnd")
	assert.NotContains(t, disallowed, "Receiver Thresholds")

	required, disallowed = dialect.FacetsOf("output").Rules()
	assert.Empty(t, required)
	assert.Contains(t, disallowed, "Receiver Thresholds")
	assert.Contains(t, disallowed, "Series MOSFET")
	assert.Contains(t, disallowed, "On")

	required, disallowed = dialect.FacetsOf("series_switch").Rules()
	assert.Subset(t, required, []string{"On", "Off"})
	assert.Contains(t, disallowed, "Add Submodel")
	assert.Contains(t, disallowed, "R Series")
	assert.NotContains(t, disallowed, "On")

	_, disallowed = dialect.FacetsOf("series").Rules()
	assert.NotContains(t, disallowed, "R Series")
	assert.Contains(t, disallowed, "Add Submodel")
}

func TestSeriesPinKey(t *testing.T) {
	key := dialect.SeriesPinKey("7", "8")
	p1, p2 := dialect.SplitSeriesPinKey(key)
	assert.Equal(t, "7", p1)
	assert.Equal(t, "8", p2)
}

func TestParsePath(t *testing.T) {
	items, err := dialect.ParsePath("Pin A1\nLen = 0.5 L=1n /\nFork\nLen=1 C=1p R = 2 /\nNode u1.2\nEndfork\nNode u2.1")
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, ibis.PathItem{Kind: ibis.PathPin, Name: "A1"}, items[0])
	assert.Equal(t, ibis.PathItem{Kind: ibis.PathStub, Len: 0.5, L: 1e-9}, items[1])
	assert.Equal(t, ibis.PathFork, items[2].Kind)
	assert.Equal(t, []ibis.PathItem{
		{Kind: ibis.PathStub, Len: 1, C: 1e-12, R: 2},
		{Kind: ibis.PathNode, Name: "u1.2"},
	}, items[2].Fork)
	assert.Equal(t, ibis.PathItem{Kind: ibis.PathNode, Name: "u2.1"}, items[3])
}

func TestParsePathErrors(t *testing.T) {
	tests := []struct {
		name, text string
	}{
		{"starts with node", "Node u1.1"},
		{"starts with stub", "Len=1 /\nPin A1"},
		{"empty", ""},
		{"open fork", "Pin A1\nFork\nLen=1 /"},
		{"stray endfork", "Pin A1\nEndfork"},
		{"unterminated stub", "Pin A1\nLen=1 L=1n"},
		{"stub without len", "Pin A1\nL=1n /"},
		{"repeated field", "Pin A1\nLen=1 L=1n L=2n /"},
		{"unknown field", "Pin A1\nLen=1 X=1 /"},
		{"negative", "Pin A1\nLen=-1 /"},
		{"pin without name", "Pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dialect.ParsePath(tt.text)
			assert.Error(t, err)
		})
	}
}

func minimal(models ...string) string {
	body := []string{testutil.Component("ACME", "1", "in")}
	body = append(body, testutil.InputModel("in", false))
	body = append(body, models...)
	return testutil.Document("acme.ibs", body...)
}

func TestMinimalComponent(t *testing.T) {
	root, diags := testutil.Parse(t, ibis.DialectIBS, minimal())
	assert.Empty(t, diags)

	header := root.Node("header")
	v, _ := header.Text("IBIS Ver")
	assert.Equal(t, "5.1", v)

	comp := root.Node("Component").Node("ACME")
	require.NotNil(t, comp)
	m, _ := comp.Text("Manufacturer")
	assert.Equal(t, "Acme", m)

	pkg := comp.Node("Package")
	r, ok := pkg.Range("R_pkg")
	require.True(t, ok)
	assert.Equal(t, 0.1, r.Typ())

	pin := comp.Node("Pin").Node("1")
	require.NotNil(t, pin)
	assert.Equal(t, "sig1", pin.Value("signal_name"))
	assert.Equal(t, "in", pin.Value("model_name"))
	assert.True(t, pin.Has("R_pin"))
	assert.Nil(t, pin.Value("R_pin"))

	model := root.Node("Model").Node("in")
	require.NotNil(t, model)
	assert.Equal(t, "input", model.Value("Model_type"))
	assert.Equal(t, 0.8, model.Value("Vinl"))
	temp, ok := model.Range("Temperature Range")
	require.True(t, ok, "default temperature range")
	assert.Equal(t, ibis.NewRange(50, 0, 100), temp)

	pullup, ok := model.Value("Pullup").(ibis.CurveSet)
	require.True(t, ok)
	assert.Equal(t, []float64{-1, 1}, pullup.At(ibis.Typ).X)
}

func TestThresholdDefault(t *testing.T) {
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in"),
		testutil.InputModel("in", true))
	root, diags := testutil.Parse(t, ibis.DialectIBS, text)

	d := testutil.Diagnostic(t, diags, types.DiagThresholdDefault)
	assert.Equal(t, ibis.SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "'in'")
	assert.Len(t, diags, 2, "one per threshold")

	model := root.Node("Model").Node("in")
	assert.Equal(t, 0.8, model.Value("Vinl"))
	assert.Equal(t, 2.0, model.Value("Vinh"))

	_, _, err := testutil.TryParse(ibis.DialectIBS, text, ibis.StrictConfig())
	require.ErrorIs(t, err, ibis.ErrEscalated)

	cfg := ibis.DiagnosticConfig{Ignore: []string{"threshold-*"}}
	_, diags, err = testutil.TryParse(ibis.DialectIBS, text, cfg)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestECLThresholdDefault(t *testing.T) {
	model := strings.Replace(testutil.InputModel("in", true), "Model_type Input", "Model_type Input_ECL", 1)
	text := testutil.Document("acme.ibs", testutil.Component("ACME", "1", "in"), model)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	assert.Equal(t, -1.475, root.Node("Model").Node("in").Value("Vinl"))
}

func TestUnknownModel(t *testing.T) {
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "missing"),
		testutil.InputModel("in", false))
	e := testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrUnresolved)
	assert.Equal(t, ibis.KindSemantic, e.Kind)
	assert.Contains(t, e.Msg, "ACME")
	assert.Contains(t, e.Msg, "missing")
}

func TestReservedModelNames(t *testing.T) {
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "GND", "3", "power", "4", "nc"),
		testutil.InputModel("in", false))
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	pins := root.Node("Component").Node("ACME").Node("Pin")
	assert.Equal(t, "GND", pins.Node("2").Value("model_name"))
	assert.Equal(t, "POWER", pins.Node("3").Value("model_name"), "reserved names are upper-cased")
	assert.True(t, pins.Node("4").Has("model_name"))
	assert.Nil(t, pins.Node("4").Value("model_name"), "NC reads as no model")
}

func TestModelTypeRenamed(t *testing.T) {
	model := "[Model] od\nModel_type Open_drain\nC_comp 1p NA NA\n" +
		"[Voltage Range] 3.3 NA NA\n" +
		"[Pulldown]\n-1 -0.1 NA NA\n1 0.1 NA NA\n" +
		"[Ramp]\ndV/dt_r 1/1n NA NA\ndV/dt_f 1 / 2n NA NA\n"
	text := testutil.Document("acme.ibs", testutil.Component("ACME", "1", "od"), model)
	root, diags := testutil.Parse(t, ibis.DialectIBS, text)
	d := testutil.Diagnostic(t, diags, types.DiagModelTypeRenamed)
	assert.Equal(t, ibis.SeverityInfo, d.Severity)

	m := root.Node("Model").Node("od")
	assert.Equal(t, "open_sink", m.Value("Model_type"))
	ramp := m.Node("Ramp")
	assert.Equal(t, 50.0, ramp.Value("R_load"), "default load")
	fall, ok := ramp.Value("dV/dt_f").(ibis.Triple[ibis.Ramp])
	require.True(t, ok)
	assert.Equal(t, ibis.Ramp{DV: 1, DT: 2e-9}, fall.Typ())
}

func TestModelRules(t *testing.T) {
	base := func(modelType, params, extra string) string {
		return testutil.Document("acme.ibs",
			testutil.Component("ACME", "1", "in"),
			testutil.InputModel("in", false),
			"[Model] m\nModel_type "+modelType+"\n"+params+"C_comp 1p NA NA\n[Voltage Range] 3.3 NA NA\n"+extra)
	}
	thresholds := "Vinl = 0.8\nVinh = 2.0\n"
	tests := []struct {
		name     string
		text     string
		sentinel error
	}{
		{"output needs ramp", base("Output", "", ""), ibis.ErrMissingRequired},
		{"diff needs external model", base("Input_diff", "", ""), ibis.ErrMissingRequired},
		{"rac without cac", base("Terminator", "", "[Rac] 50 NA NA\n"), ibis.ErrMissingRequired},
		{"terminator keyword on input", base("Input", thresholds, "[Rgnd] 50 NA NA\n"), ibis.ErrDisallowed},
		{"switch needs on", base("Series_switch", "", ""), ibis.ErrMissingRequired},
		{"series keyword on input", base("Input", thresholds, "[R Series] 1 NA NA\n"), ibis.ErrDisallowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ParseError(t, ibis.DialectIBS, tt.text, tt.sentinel)
		})
	}

	root, _ := testutil.Parse(t, ibis.DialectIBS, base("Terminator", "", "[Rac] 50 NA NA\n[Cac] 1p NA NA\n"))
	assert.NotNil(t, root.Node("Model").Node("m").Value("Rac"))
}

func TestMissingCComp(t *testing.T) {
	model := strings.Replace(testutil.InputModel("in", false), "C_comp 1p NA NA\n", "", 1)
	text := testutil.Document("acme.ibs", testutil.Component("ACME", "1", "in"), model)
	e := testutil.ParseError(t, ibis.DialectIBS, text, ibis.ErrMissingRequired)
	assert.Contains(t, e.Msg, "C_comp")
}

func TestModelSelector(t *testing.T) {
	second := strings.Replace(testutil.InputModel("in2", false), "Vinh = 2.0", "Vinh = 1.8", 1)
	selector := "[Model Selector] sel\nin   Standard input\nin2  Low voltage input\n"
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "sel"),
		selector,
		testutil.InputModel("in", false),
		second)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	sel := root.Node("Model Selector").Node("sel")
	require.NotNil(t, sel)
	assert.Equal(t, []string{"in", "in2"}, sel.Keys())
	assert.Equal(t, "Low voltage input", sel.Value("in2"))

	unknown := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "sel"),
		"[Model Selector] sel\nin Standard\nnope Missing\n",
		testutil.InputModel("in", false))
	testutil.ParseError(t, ibis.DialectIBS, unknown, ibis.ErrUnresolved)

	output := "[Model] out\nModel_type Output\nC_comp 1p NA NA\n[Voltage Range] 3.3 NA NA\n" +
		"[Ramp]\ndV/dt_r 1/1n NA NA\ndV/dt_f 1/1n NA NA\n"
	mixed := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "sel"),
		"[Model Selector] sel\nin Standard\nout Driver\n",
		testutil.InputModel("in", false),
		output)
	e := testutil.ParseError(t, ibis.DialectIBS, mixed, ibis.ErrDisallowed)
	assert.Contains(t, e.Msg, "first model 'in'")
}

func TestDiffPin(t *testing.T) {
	diff := "[Diff Pin] inv_pin vdiff tdelay_typ tdelay_min tdelay_max\n1 2 NA 1n NA 2n\n"
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "in")+diff,
		testutil.InputModel("in", false))
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	row := root.Node("Component").Node("ACME").Node("Diff Pin").Node("1")
	require.NotNil(t, row)
	assert.Equal(t, "2", row.Value("inv_pin"))
	assert.Equal(t, dialect.DefaultVdiff, row.Value("vdiff"))
	assert.False(t, row.Has("tdelay_typ"))
	tdelay, ok := row.Range("tdelay")
	require.True(t, ok)
	assert.Equal(t, 1e-9, tdelay.Typ())
	assert.Equal(t, 2e-9, tdelay.Max())

	self := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in", "2", "in")+"[Diff Pin] inv_pin vdiff tdelay_typ\n1 1 NA 0\n",
		testutil.InputModel("in", false))
	testutil.ParseError(t, ibis.DialectIBS, self, ibis.ErrDisallowed)

	unknown := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in")+"[Diff Pin] inv_pin vdiff tdelay_typ\n1 9 NA 0\n",
		testutil.InputModel("in", false))
	testutil.ParseError(t, ibis.DialectIBS, unknown, ibis.ErrUnresolved)
}

func TestSeriesPinMapping(t *testing.T) {
	series := "[Model] sw\nModel_type Series_switch\nC_comp 1p NA NA\n[Voltage Range] 3.3 NA NA\n" +
		"[On]\n[R Series] 1 NA NA\n[Off]\n[R Series] 1k NA NA\n"
	mapping := "[Series Pin Mapping] pin_2 model_name function_table_group\n1 2 sw g1\n" +
		"[Series Switch Groups]\nOn g1 /\nOff g1 /\n"
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "GND", "2", "GND")+mapping,
		series)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)
	comp := root.Node("Component").Node("ACME")
	row := comp.Node("Series Pin Mapping").Node(dialect.SeriesPinKey("1", "2"))
	require.NotNil(t, row)
	assert.Equal(t, "sw", row.Value("model_name"))
	assert.Equal(t, []any{[]any{"on", "g1"}, []any{"off", "g1"}}, comp.Value("Series Switch Groups"))

	noGroups := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "GND", "2", "GND")+
			"[Series Pin Mapping] pin_2 model_name function_table_group\n1 2 sw g1\n",
		series)
	testutil.ParseError(t, ibis.DialectIBS, noGroups, ibis.ErrMissingRequired)

	wrongType := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "GND", "2", "in")+
			"[Series Pin Mapping] pin_2 model_name\n1 2 in\n",
		testutil.InputModel("in", false))
	testutil.ParseError(t, ibis.DialectIBS, wrongType, ibis.ErrDisallowed)

	selfMap := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "GND")+"[Series Pin Mapping] pin_2 model_name\n1 1 sw\n",
		series)
	testutil.ParseError(t, ibis.DialectIBS, selfMap, ibis.ErrDisallowed)
}

func TestCircuitCall(t *testing.T) {
	doc := func(call string) string {
		return testutil.Document("acme.ibs",
			testutil.Component("ACME", "1", "in", "2", "in")+
				"[Circuit Call] cc1\n"+call+"[End Circuit Call]\n",
			testutil.InputModel("in", false))
	}
	root, _ := testutil.Parse(t, ibis.DialectIBS, doc("Signal_pin 1\nPort_map A_signal 1\nPort_map A_gnd 2\n"))
	cc := root.Node("Component").Node("ACME").Node("Circuit Call").Node("cc1")
	require.NotNil(t, cc)
	assert.Equal(t, "1", cc.Value("Signal_pin"))
	assert.Equal(t, []string{"A_signal", "A_gnd"}, cc.Node("Port_map").Keys())
	assert.Equal(t, "2", cc.Node("Port_map").Value("A_gnd"))

	tests := []struct {
		name     string
		call     string
		sentinel error
	}{
		{"unknown signal pin", "Signal_pin 9\n", ibis.ErrUnresolved},
		{"unknown series pin", "Series_pins 1 9\n", ibis.ErrUnresolved},
		{"diff pins point to themselves", "Diff_signal_pins 1 1\n", ibis.ErrDisallowed},
		{"two pin mappings", "Signal_pin 1\nSeries_pins 1 2\n", ibis.ErrDuplicate},
		{"duplicate port map", "Signal_pin 1\nPort_map A_signal 1\nPort_map A_signal 2\n", ibis.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ParseError(t, ibis.DialectIBS, doc(tt.call), tt.sentinel)
		})
	}
}

func TestEMIComponent(t *testing.T) {
	doc := func(body string) string {
		return testutil.Document("acme.ibs",
			testutil.Component("ACME", "1", "in", "2", "in")+
				"[Begin EMI Component]\n"+body+"[End EMI Component]\n",
			testutil.InputModel("in", false))
	}
	valid := "Domain Digital\n[Pin EMI] domain_name clock_div\n1 core NA\n2 io 2\n" +
		"[Pin Domain EMI] percentage\ncore 60\nio 40\n"
	root, _ := testutil.Parse(t, ibis.DialectIBS, doc(valid))
	emi := root.Node("Component").Node("ACME").Node("Begin EMI Component")
	require.NotNil(t, emi)
	assert.Equal(t, 1.0, emi.Node("Pin EMI").Node("1").Value("clock_div"), "clock_div defaults to 1")
	assert.Equal(t, 2.0, emi.Node("Pin EMI").Node("2").Value("clock_div"))
	assert.Equal(t, []string{"core", "io"}, emi.Node("Pin Domain EMI").Keys())

	tests := []struct {
		name     string
		body     string
		sentinel error
	}{
		{
			name:     "domain listed but unused",
			body:     "[Pin EMI] domain_name clock_div\n1 core NA\n[Pin Domain EMI] percentage\ncore 60\nio 40\n",
			sentinel: ibis.ErrUnresolved,
		},
		{
			name:     "used domain not listed",
			body:     "[Pin EMI] domain_name clock_div\n1 core NA\n2 io NA\n[Pin Domain EMI] percentage\ncore 100\n",
			sentinel: ibis.ErrUnresolved,
		},
		{
			name:     "unknown pin",
			body:     "[Pin EMI] domain_name clock_div\n9 core NA\n[Pin Domain EMI] percentage\ncore 100\n",
			sentinel: ibis.ErrUnresolved,
		},
		{
			name:     "both heatsinks",
			body:     "C_Heatsink_gnd = 1p\nC_Heatsink_float = 1p\n",
			sentinel: ibis.ErrDisallowed,
		},
		{
			name:     "percentage out of range",
			body:     "[Pin EMI] domain_name clock_div\n1 core NA\n[Pin Domain EMI] percentage\ncore 101\n",
			sentinel: ibis.ErrRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ParseError(t, ibis.DialectIBS, doc(tt.body), tt.sentinel)
		})
	}
}

func TestDriverSchedule(t *testing.T) {
	output := func(name, extra string) string {
		return "[Model] " + name + "\nModel_type Output\nC_comp 1p NA NA\n[Voltage Range] 3.3 NA NA\n" +
			"[Ramp]\ndV/dt_r 1/1n NA NA\ndV/dt_f 1/1n NA NA\n" + extra
	}
	doc := func(models ...string) string {
		body := append([]string{testutil.Component("ACME", "1", "drv")}, models...)
		return testutil.Document("acme.ibs", body...)
	}

	root, _ := testutil.Parse(t, ibis.DialectIBS,
		doc(output("drv", "[Driver Schedule]\nout 1n NA 2n NA\n"), output("out", "")))
	row := root.Node("Model").Node("drv").Node("Driver Schedule").Node("out")
	require.NotNil(t, row)
	assert.Equal(t, 1e-9, row.Value("Rise_on_dly"))
	assert.Nil(t, row.Value("Rise_off_dly"))
	assert.Equal(t, 2e-9, row.Value("Fall_on_dly"))

	tests := []struct {
		name     string
		models   []string
		sentinel error
	}{
		{
			name:     "unknown model",
			models:   []string{output("drv", "[Driver Schedule]\nnope 1n NA 2n NA\n")},
			sentinel: ibis.ErrUnresolved,
		},
		{
			name:     "schedules itself",
			models:   []string{output("drv", "[Driver Schedule]\ndrv 1n NA 2n NA\n")},
			sentinel: ibis.ErrDisallowed,
		},
		{
			name: "scheduled model has a schedule",
			models: []string{
				output("drv", "[Driver Schedule]\nmid 1n NA 2n NA\n"),
				output("mid", "[Driver Schedule]\nout 1n NA 2n NA\n"),
				output("out", ""),
			},
			sentinel: ibis.ErrDisallowed,
		},
		{
			name:     "rise on with fall off",
			models:   []string{output("drv", "[Driver Schedule]\nout 1n NA NA 2n\n"), output("out", "")},
			sentinel: ibis.ErrFormat,
		},
		{
			name:     "single delay",
			models:   []string{output("drv", "[Driver Schedule]\nout 1n NA NA NA\n"), output("out", "")},
			sentinel: ibis.ErrFormat,
		},
		{
			name:     "negative delay",
			models:   []string{output("drv", "[Driver Schedule]\nout -1n NA 2n NA\n"), output("out", "")},
			sentinel: ibis.ErrRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ParseError(t, ibis.DialectIBS, doc(tt.models...), tt.sentinel)
		})
	}
}

// Driving submodels belong to output-capable models; non-driving ones to
// models with an input or enable side. A mode that passes the model
// check still needs the [Submodel] itself.
func TestAddSubmodelMode(t *testing.T) {
	output := "[Model] m\nModel_type Output\nC_comp 1p NA NA\n[Voltage Range] 3.3 NA NA\n" +
		"[Ramp]\ndV/dt_r 1/1n NA NA\ndV/dt_f 1/1n NA NA\n"
	input := strings.Replace(testutil.InputModel("m", false), "[Model] in", "[Model] m", 1)
	tests := []struct {
		name     string
		model    string
		mode     string
		sentinel error
	}{
		{"driving output", output, "Driving", ibis.ErrUnresolved},
		{"driving input", input, "Driving", ibis.ErrDisallowed},
		{"non-driving input", input, "Non-Driving", ibis.ErrUnresolved},
		{"non-driving output", output, "Non-Driving", ibis.ErrDisallowed},
		{"all output", output, "All", ibis.ErrUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := testutil.Document("acme.ibs",
				testutil.Component("ACME", "1", "m"),
				tt.model+"[Add Submodel]\nclamp "+tt.mode+"\n")
			e := testutil.ParseError(t, ibis.DialectIBS, text, tt.sentinel)
			if tt.sentinel == ibis.ErrUnresolved {
				assert.Contains(t, e.Msg, "clamp")
			}
		})
	}
}

func externalInput(corners, converters string) string {
	return "[Model] ext\nModel_type Input\nVinl = 0.8\nVinh = 2.0\n[Voltage Range] 3.3 NA NA\n" +
		"[External Model]\nLanguage SPICE\n" + corners +
		"Ports A_signal my_gnd\n" + converters +
		"[End External Model]\n"
}

func TestExternalModelCorners(t *testing.T) {
	model := externalInput(
		"Corner Typ typ.spi buf_typ\nCorner Min min.spi buf_min\n",
		"A_to_D D_receive A_signal my_gnd 0.8 2.0 Typ\nA_to_D D_receive A_signal my_gnd 0.7 1.9 Min\n")
	text := testutil.Document("acme.ibs", testutil.Component("ACME", "1", "ext"), model)
	root, _ := testutil.Parse(t, ibis.DialectIBS, text)

	ext := root.Node("Model").Node("ext").Node("External Model")
	require.NotNil(t, ext)
	assert.Equal(t, "spice", ext.Value("Language"))
	assert.Equal(t, []any{"A_signal", "my_gnd"}, ext.Value("Ports"), "repeated lines append their words")

	corner := ext.Node("Corner")
	require.NotNil(t, corner)
	files, ok := corner.Value("file_name").(ibis.Triple[string])
	require.True(t, ok)
	assert.Equal(t, "typ.spi", files.Typ())
	assert.Equal(t, "min.spi", files.Min())
	assert.False(t, files.Has(ibis.Max))

	conv := ext.Node("A_to_D").Node("D_receive")
	require.NotNil(t, conv)
	assert.Equal(t, "A_signal", conv.Value("port1"))
	vlow, ok := conv.Range("vlow")
	require.True(t, ok)
	assert.Equal(t, 0.8, vlow.Typ())
	assert.Equal(t, 0.7, vlow.Min())
	assert.False(t, vlow.Has(ibis.Max))
}

func TestExternalModelErrors(t *testing.T) {
	typOnly := "Corner Typ typ.spi buf\n"
	typConv := "A_to_D D_receive A_signal my_gnd 0.8 2.0\n"
	tests := []struct {
		name       string
		corners    string
		converters string
		sentinel   error
	}{
		{"no typ corner", "Corner Min min.spi buf\n", typConv, ibis.ErrMissingRequired},
		{"duplicate corner", typOnly + typOnly, typConv, ibis.ErrDuplicate},
		{"port mismatch", typOnly, typConv + "A_to_D D_receive A_other my_gnd 0.7 1.9 Min\n", ibis.ErrDisallowed},
		{"converter without typ", typOnly, "A_to_D D_receive A_signal my_gnd 0.8 2.0 Max\n", ibis.ErrMissingRequired},
		{"disallowed converter port", typOnly, typConv + "D_to_A D_bogus A_signal my_gnd 0 1 1n 1n\n", ibis.ErrDisallowed},
		{"missing port", typOnly, "", ibis.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := testutil.Document("acme.ibs",
				testutil.Component("ACME", "1", "ext"),
				externalInput(tt.corners, tt.converters))
			testutil.ParseError(t, ibis.DialectIBS, text, tt.sentinel)
		})
	}
}

func TestTestLoad(t *testing.T) {
	load := "[Test Load] ld\nTest_load_type Single_ended\nReceiver_model in\nReceiver_model_inv in\n"
	data := "[Test Data] td\nTest_data_type Single_ended\nDriver_model in\nTest_load ld\n" +
		"[Rising Waveform Near]\n0 0 NA NA\n1n 1 NA NA\n"
	text := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in"),
		testutil.InputModel("in", false),
		data, load)
	root, diags := testutil.Parse(t, ibis.DialectIBS, text)
	testutil.Diagnostic(t, diags, types.DiagInvReceiverIgnored)
	assert.False(t, root.Node("Test Load").Node("ld").Has("Receiver_model_inv"))
	testutil.NoDiagnostic(t, diags, types.DiagThresholdDefault)

	missing := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in"),
		testutil.InputModel("in", false),
		strings.Replace(data, "Test_load ld", "Test_load other", 1), load)
	testutil.ParseError(t, ibis.DialectIBS, missing, ibis.ErrUnresolved)

	td := testutil.Document("acme.ibs",
		testutil.Component("ACME", "1", "in"),
		testutil.InputModel("in", false),
		"[Test Load] ld\nTest_load_type Single_ended\nTd = 1n\n")
	testutil.ParseError(t, ibis.DialectIBS, td, ibis.ErrMissingRequired)
}

const pkgDoc = `[IBIS Ver] 5.1
[File Name] qfn.pkg
[File Rev] 1.0
[Define Package Model] QFN2
[Manufacturer] Acme
[OEM] Acme
[Description] Two pin package
[Number Of Pins] 2
[Pin Numbers]
1
2
[Model Data]
[Resistance Matrix] Banded_matrix
[Bandwidth] 0
[Row] 1
10m
[Row] 2
20m
[Inductance Matrix] Sparse_matrix
[Row] 1
1 2n 2 0.5n
[Row] 2
2 2n
[End Model Data]
[End Package Model]
[End]
`

func TestPackageModel(t *testing.T) {
	root, _ := testutil.Parse(t, ibis.DialectPKG, pkgDoc)
	pkg := root.Node("Define Package Model").Node("QFN2")
	require.NotNil(t, pkg)
	assert.Equal(t, []string{"1", "2"}, pkg.Node("Pin Numbers").Keys())

	mapping := pkg.Node("Pin Mapping")
	require.NotNil(t, mapping, "matrix index derived from pin order")
	assert.Equal(t, 1, mapping.Value("2"))

	data := pkg.Node("Model Data")
	res, ok := data.Value("Resistance Matrix").(*ibis.Matrix)
	require.True(t, ok)
	assert.Equal(t, [][]float64{{0.01, 0}, {0, 0.02}}, res.Rows())

	ind := data.Value("Inductance Matrix").(*ibis.Matrix)
	assert.Equal(t, []string{"1", "2"}, ind.Pins)
	assert.Equal(t, 0.5e-9, ind.At(0, 1))
	assert.Equal(t, 0.0, ind.At(1, 0))
}

func TestPackageModelErrors(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		sentinel error
	}{
		{"pin count", "[Number Of Pins] 2", "[Number Of Pins] 3", ibis.ErrDimension},
		{"unknown matrix pin", "1 2n 2 0.5n", "1 2n 9 0.5n", ibis.ErrUnresolved},
		{"unpaired sparse entry", "1 2n 2 0.5n", "1 2n 2", ibis.ErrFormat},
		{"unknown format", "Sparse_matrix", "Diagonal_matrix", ibis.ErrFormat},
		{"duplicate pin", "1\n2\n[Model", "1\n1\n[Model", ibis.ErrDuplicate},
		{"missing oem", "[OEM] Acme\n", "", ibis.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Replace(pkgDoc, tt.old, tt.new, 1)
			require.NotEqual(t, pkgDoc, text)
			testutil.ParseError(t, ibis.DialectPKG, text, tt.sentinel)
		})
	}
}

func TestPackageSections(t *testing.T) {
	text := testutil.Document("stub.pkg",
		"[Define Package Model] S2\n[Manufacturer] Acme\n[OEM] Acme\n[Description] Stubs\n"+
			"[Number Of Sections] 2\n[Number Of Pins] 2\n[Pin Numbers]\n"+
			"1 Len=0 L=1n /\n"+
			"   Len = 0.5 L=2n C=1p /\n"+
			"2 Len=0 R=0.1 /\n"+
			"[End Package Model]")
	root, _ := testutil.Parse(t, ibis.DialectPKG, text)
	pins := root.Node("Define Package Model").Node("S2").Node("Pin Numbers")
	require.NotNil(t, pins)
	first, ok := pins.Value("1").([]ibis.PathItem)
	require.True(t, ok)
	assert.Equal(t, []ibis.PathItem{
		{Kind: ibis.PathStub, L: 1e-9},
		{Kind: ibis.PathStub, Len: 0.5, L: 2e-9, C: 1e-12},
	}, first)

	both := strings.Replace(pkgDoc, "[Model Data]", "[Number Of Sections] 1\n[Model Data]", 1)
	testutil.ParseError(t, ibis.DialectPKG, both, ibis.ErrDisallowed)

	start, end := strings.Index(pkgDoc, "[Model Data]"), strings.Index(pkgDoc, "[End Package Model]")
	neither := pkgDoc[:start] + pkgDoc[end:]
	testutil.ParseError(t, ibis.DialectPKG, neither, ibis.ErrMissingRequired)
}

const ebdPath = `[Path Description] P1
Pin A2
Len = 0.5 L=8.35n C=3.34p R=0.01 /
Fork
Len=0.1 L=1n /
Node u2.4
Endfork
Node u1.1
`

const ebdDoc = `[IBIS Ver] 5.1
[File Name] simm.ebd
[File Rev] 1.0
[Begin Board Description] SIMM
[Manufacturer] Acme
[Number Of Pins] 2
[Pin List] signal_name
A1 GND
A2 DATA
` + ebdPath + `[Reference Designator Map]
u1 chip.ibs Chip One
u2 chip.ibs Chip Two
[End Board Description]
[End]
`

func TestBoardDescription(t *testing.T) {
	root, diags := testutil.Parse(t, ibis.DialectEBD, ebdDoc)
	assert.Empty(t, diags)
	board := root.Node("Begin Board Description").Node("SIMM")
	require.NotNil(t, board)
	assert.Equal(t, []string{"A1", "A2"}, board.Node("Pin List").Keys())

	path, ok := board.Node("Path Description").Value("P1").([]ibis.PathItem)
	require.True(t, ok)
	require.Len(t, path, 4)
	assert.Equal(t, "A2", path[0].Name)
	assert.Equal(t, ibis.PathFork, path[2].Kind)
	assert.Equal(t, ibis.PathItem{Kind: ibis.PathNode, Name: "u1.1"}, path[3])

	ref := board.Node("Reference Designator Map").Node("u1")
	require.NotNil(t, ref)
	assert.Equal(t, "chip.ibs", ref.Value("file_name"))
	assert.Equal(t, "Chip One", ref.Value("component_name"))
}

func TestBoardErrors(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		sentinel error
	}{
		{"pin count", "[Number Of Pins] 2", "[Number Of Pins] 5", ibis.ErrDimension},
		{"unknown pin", "Pin A2", "Pin B7", ibis.ErrUnresolved},
		{"unknown refdes", "Node u1.1", "Node u9.1", ibis.ErrUnresolved},
		{"node without pin", "Node u1.1", "Node u1", ibis.ErrFormat},
		{"path first item", "Pin A2\n", "", ibis.ErrFormat},
		{"missing path", ebdPath, "", ibis.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Replace(ebdDoc, tt.old, tt.new, 1)
			require.NotEqual(t, ebdDoc, text)
			testutil.ParseError(t, ibis.DialectEBD, text, tt.sentinel)
		})
	}
}
