package dialect

import (
	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

// ModelTypes lists the accepted Model_type values.
const ModelTypes = "Input Output I/O 3-state Open_drain I/O_open_drain " +
	"Open_sink I/O_open_sink Open_source I/O_open_source " +
	"Input_ECL Output_ECL I/O_ECL 3-state_ECL " +
	"Input_diff Output_diff I/O_diff 3-state_diff " +
	"Series Series_switch Terminator"

// Waveform table names shared by [Model] and [Submodel].
var waveformTables = []string{"Rising Waveform", "Falling Waveform"}

// baseModel returns the keywords common to [Model] and [Submodel].
func baseModel(key string) *grammar.Section {
	m := grammar.NewSection(key, grammar.Labeled())
	m.Add(each([]string{"Pullup", "Pulldown", "GND Clamp", "POWER Clamp"}, rangeTable)...)

	for _, name := range waveformTables {
		w := grammar.NewRangeTable(name, grammar.DataName("waveform"), grammar.ListMerge()).Increasing()
		w.Add(
			grammar.NewDelimParam("R_fixture", "=", value.Real(value.Positive), grammar.Required()),
			grammar.NewDelimParam("V_fixture", "=", value.Real(), grammar.Required()),
			eqReal("V_fixture_min"),
			eqReal("V_fixture_max"),
		)
		w.Add(each([]string{"C_fixture", "L_fixture", "R_dut", "L_dut", "C_dut"}, func(n string) grammar.Rule {
			return grammar.NewDelimParam(n, "=", value.Real(value.Positive), grammar.Default(0.0))
		})...)
		w.Add(rangeTable("Composite Current"))
		w.OnFinish(fixtureRange)
		m.Add(w)
	}

	ramp := grammar.NewSection("Ramp")
	ramp.Add(
		grammar.NewParam("dV/dt_r", value.Ramp(), grammar.Required()),
		grammar.NewParam("dV/dt_f", value.Ramp(), grammar.Required()),
		grammar.NewDelimParam("R_load", "=", value.Real(value.Positive), grammar.Default(50.0)),
	)
	m.Add(ramp)
	return m
}

// fixtureRange folds V_fixture_min and V_fixture_max into a V_fixture
// range.
func fixtureRange(_ *grammar.Context, in *grammar.Instance) error {
	w := in.Children
	typ, _ := w.Float("V_fixture")
	r := ibis.NewRange(typ)
	for i, n := range []string{"V_fixture_min", "V_fixture_max"} {
		if v, ok := w.Float(n); ok {
			r.Set(ibis.Corners[i+1], v)
			w.Delete(n)
		}
	}
	w.Set("V_fixture", r)
	return nil
}

func seriesMOSFET() grammar.Rule {
	s := grammar.NewRangeTable("Series MOSFET").KeyedBy("Vds")
	s.Add(eqReal("Vds"))
	return s
}

func model() *grammar.Section {
	m := baseModel("Model")
	m.Add(
		grammar.NewParam("Model_type", value.OneOf(ModelTypes), grammar.Required()),
		grammar.NewParam("Polarity", value.OneOf("Non-Inverting Inverting")),
		grammar.NewParam("Enable", value.OneOf("Active-High Active-Low")),
	)
	m.Add(each([]string{"Vinl", "Vinh", "Vmeas", "Vref"}, eqReal)...)
	m.Add(each([]string{"Cref", "Rref", "Rref_diff", "Cref_diff"}, eqPositive)...)
	m.Add(each([]string{"C_comp", "C_comp_pullup", "C_comp_pulldown", "C_comp_power_clamp", "C_comp_gnd_clamp"}, positiveRangeParam)...)
	m.Add(grammar.NewKeyword("Temperature Range", value.Range(), grammar.Default(ibis.NewRange(50, 0, 100))))
	m.Add(each([]string{"Voltage Range", "POWER Clamp Reference", "GND Clamp Reference",
		"External Reference", "TTgnd", "TTpower", "Pullup Reference", "Pulldown Reference"}, rangeKeyword)...)
	m.Add(each(append(append([]string{}, seriesKeywords...), "Rgnd", "Rpower", "Rac", "Cac"), positiveRangeKeyword)...)
	m.Add(each([]string{"ISSO PD", "ISSO PU"}, rangeTable)...)
	m.Add(emiModel())

	for _, state := range []string{"On", "Off"} {
		s := grammar.NewSection(state)
		s.Add(rangeTable("Series Current"), seriesMOSFET())
		s.Add(each(seriesKeywords, positiveRangeKeyword)...)
		m.Add(s)
	}

	spec := grammar.NewSection("Model Spec")
	spec.Add(each([]string{"Vinh", "Vinl", "Vinh+", "Vinh-", "Vinl+", "Vinl-",
		"S_overshoot_high", "S_overshoot_low", "D_overshoot_high", "D_overshoot_low",
		"D_overshoot_ampl_h", "D_overshoot_ampl_l", "Pulse_high", "Pulse_low", "Vmeas",
		"Vref_rising", "Vref_falling", "Vmeas_rising", "Vmeas_falling"}, rangeParam)...)
	spec.Add(each([]string{"D_overshoot_time", "D_overshoot_area_h", "D_overshoot_area_l",
		"Pulse_time", "Vref", "Cref", "Rref", "Cref_rising", "Cref_falling",
		"Rref_rising", "Rref_falling", "Rref_diff", "Cref_diff"}, positiveRangeParam)...)

	thresholds := grammar.NewSection("Receiver Thresholds")
	thresholds.Add(each([]string{"Vth", "Vth_min", "Vth_max", "Vinh_ac", "Vinh_dc",
		"Vinl_ac", "Vinl_dc", "Threshold_sensitivity", "Vcross_low", "Vcross_high",
		"Vdiff_ac", "Vdiff_dc", "Tslew_ac", "Tdiffslew_ac"}, eqReal)...)
	thresholds.Add(grammar.NewParam("Reference_supply",
		value.OneOf("Power_clamp_ref Gnd_clamp_ref Pullup_ref Pulldown_ref Ext_ref")))

	m.Add(
		spec,
		thresholds,
		grammar.NewDict("Add Submodel", value.OneOf("Driving Non-Driving All")),
		grammar.NewDict("Driver Schedule", value.Fields(
			value.F("Rise_on_dly", value.NARealTok()),
			value.F("Rise_off_dly", value.NARealTok()),
			value.F("Fall_on_dly", value.NARealTok()),
			value.F("Fall_off_dly", value.NARealTok()),
		)),
		externalModel(),
		algorithmicModel(),
		rangeTable("Series Current"),
		seriesMOSFET(),
	)
	m.OnFinish(validateModel)
	return m
}

func algorithmicModel() *grammar.Section {
	a := grammar.NewSection("Algorithmic Model")
	a.Add(
		grammar.NewParam("Executable", value.Fields(
			value.F("Platform_Compiler_Bits", value.WordTok),
			value.F("File_Name", value.WordTok),
			value.F("Parameter_File", value.WordTok),
		), grammar.ListMerge()),
		grammar.NewEnd("End Algorithmic Model"),
	)
	return a
}
