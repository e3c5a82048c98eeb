package dialect

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/types"
)

// Facets are the properties of a model type that decide which keywords
// a [Model] must or must not carry.
type Facets struct {
	Diff       bool
	ECL        bool
	Source     bool
	Sink       bool
	Output     bool
	Input      bool
	Series     bool
	Enable     bool
	Switch     bool
	Terminator bool
}

// FacetsOf decomposes a lower-case Model_type value.
func FacetsOf(modelType string) Facets {
	hasPrefix := func(prefixes ...string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(modelType, p) {
				return true
			}
		}
		return false
	}
	return Facets{
		Diff:       strings.HasSuffix(modelType, "diff"),
		ECL:        strings.HasSuffix(modelType, "ecl"),
		Source:     strings.HasSuffix(modelType, "source"),
		Sink:       strings.HasSuffix(modelType, "sink"),
		Output:     hasPrefix("i/o", "output", "3-state", "open"),
		Input:      hasPrefix("i/o", "input"),
		Series:     hasPrefix("series"),
		Enable:     hasPrefix("i/o", "3-state"),
		Switch:     modelType == "series_switch",
		Terminator: modelType == "terminator",
	}
}

// facetRule adds required and disallowed keywords to every model whose
// facets satisfy when.
type facetRule struct {
	when       func(Facets) bool
	required   []string
	disallowed []string
}

var facetRules = []facetRule{
	{
		when:     func(f Facets) bool { return f.Diff },
		required: []string{"External Model"},
	},
	{
		when:       func(f Facets) bool { return !f.Input },
		disallowed: []string{"Receiver Thresholds"},
	},
	{
		when:       func(f Facets) bool { return f.Series && !f.Switch },
		disallowed: []string{"Add Submodel"},
	},
	{
		when:       func(f Facets) bool { return !f.Series || f.Switch },
		disallowed: append(append([]string{}, seriesKeywords...), "Series Current", "Series MOSFET"),
	},
	{
		when:       func(f Facets) bool { return f.Switch },
		required:   []string{"On", "Off"},
		disallowed: []string{"Add Submodel"},
	},
	{
		when:       func(f Facets) bool { return !f.Switch },
		disallowed: []string{"On", "Off"},
	},
	{
		when:       func(f Facets) bool { return !f.Terminator },
		disallowed: []string{"Rgnd", "Rpower", "Rac", "Cac"},
	},
}

// Rules returns the keywords required and disallowed by the facet table
// alone. Rules that depend on which keywords are present are applied by
// the model validator.
func (f Facets) Rules() (required, disallowed []string) {
	for _, r := range facetRules {
		if r.when(f) {
			required = append(required, r.required...)
			disallowed = append(disallowed, r.disallowed...)
		}
	}
	return required, disallowed
}

// Vinl and Vinh used when an input model gives none.
var (
	defaultThresholds    = [2]float64{0.8, 2.0}
	defaultECLThresholds = [2]float64{-1.475, -1.165}
)

var referenceKeywords = map[string]string{
	"power_clamp_ref": "POWER Clamp Reference",
	"gnd_clamp_ref":   "GND Clamp Reference",
	"pullup_ref":      "Pullup Reference",
	"pulldown_ref":    "Pulldown Reference",
	"ext_ref":         "External Reference",
}

var renamedTypes = map[string]string{
	"open_drain":     "open_sink",
	"i/o_open_drain": "i/o_open_sink",
}

func validateModel(c *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	name := in.Label
	modelType, _ := ch.Text("Model_type")
	if renamed, ok := renamedTypes[modelType]; ok {
		if err := c.Advise(types.DiagModelTypeRenamed, ibis.SeverityInfo,
			"model '%s' type '%s' read as '%s'", name, modelType, renamed); err != nil {
			return err
		}
		modelType = renamed
		ch.Set("Model_type", modelType)
	}
	f := FacetsOf(modelType)
	required, disallowed := f.Rules()

	if !f.Diff && f.Input {
		defaults := defaultThresholds
		if f.ECL {
			defaults = defaultECLThresholds
		}
		for i, kw := range []string{"Vinl", "Vinh"} {
			if ch.Value(kw) != nil {
				continue
			}
			if err := c.Advise(types.DiagThresholdDefault, ibis.SeverityWarning,
				"'%s' for model '%s' not defined, using %s", kw, name, ibis.FormatFloat(defaults[i])); err != nil {
				return err
			}
			ch.Set(kw, defaults[i])
		}
	}

	if f.Series && !f.Switch {
		disallowed = append(disallowed, seriesDefaults(ch)...)
	}

	if ch.Has("Rac") != ch.Has("Cac") {
		return ibis.NewError(ibis.ErrMissingRequired, "'Rac' and 'Cac' must be specified together")
	}
	if f.Output && !ch.Has("External Model") {
		required = append(required, "Ramp")
	}

	for sub, mode := range ch.Node("Add Submodel").All() {
		switch {
		case mode == "driving" && !f.Output,
			mode == "non-driving" && !f.Input && !f.Enable:
			return ibis.NewError(ibis.ErrDisallowed, "type '%s' cannot have submodel '%s' of mode '%s'", modelType, sub, mode)
		}
	}

	if spec := ch.Node("Model Spec"); spec != nil {
		if err := checkOvershoot(spec); err != nil {
			return err
		}
	}

	if th := ch.Node("Receiver Thresholds"); th != nil && th.Has("Threshold_sensitivity") {
		supply, ok := th.Text("Reference_supply")
		if !ok {
			return ibis.NewError(ibis.ErrMissingRequired, "'Reference_supply' required when 'Threshold_sensitivity' is present")
		}
		required = append(required, referenceKeywords[supply])
	}

	for driver, v := range ch.Node("Driver Schedule").All() {
		if err := checkSchedule(driver, v.(*ibis.Node)); err != nil {
			return err
		}
	}

	if !ch.Has("Voltage Range") {
		required = append(required, "Pullup Reference", "Pulldown Reference",
			"POWER Clamp Reference", "GND Clamp Reference")
	}

	needCComp := true
	for _, kw := range []string{"C_comp_pullup", "C_comp_pulldown", "C_comp_power_clamp", "C_comp_gnd_clamp"} {
		if ch.Has(kw) {
			needCComp = false
		}
	}
	if ext := ch.Node("External Model"); ext != nil {
		needCComp = false
		if err := checkExternalPorts(f, ext); err != nil {
			return err
		}
	}
	if needCComp {
		required = append(required, "C_comp")
	}

	for _, kw := range disallowed {
		if ch.Has(kw) {
			return ibis.NewError(ibis.ErrDisallowed, "keyword '%s' not permitted in type '%s' of model '%s'", kw, modelType, name)
		}
	}
	for _, kw := range required {
		if !ch.Has(kw) {
			return ibis.NewError(ibis.ErrMissingRequired, "type '%s' of model '%s' missing required keyword '%s'", modelType, name, kw)
		}
	}

	if f.Switch {
		for _, state := range []string{"On", "Off"} {
			sect := ch.Node(state)
			for _, kw := range seriesDefaults(sect) {
				if sect.Has(kw) {
					return ibis.NewError(ibis.ErrDisallowed, "keyword '%s' not permitted in '%s'", kw, state)
				}
			}
		}
	}
	return nil
}

// seriesDefaults fills the series element defaults implied by [L Series]
// and [C Series] and returns the keywords their absence forbids.
func seriesDefaults(n *ibis.Node) (disallowed []string) {
	if !n.Has("L Series") {
		disallowed = append(disallowed, "Rl Series")
	} else if !n.Has("Rl Series") {
		n.Set("Rl Series", ibis.NewRange(0))
	}
	if !n.Has("C Series") {
		disallowed = append(disallowed, "Rc Series", "Lc Series")
	} else {
		for _, kw := range []string{"Rc Series", "Lc Series"} {
			if !n.Has(kw) {
				n.Set(kw, ibis.NewRange(0))
			}
		}
	}
	return disallowed
}

func checkOvershoot(spec *ibis.Node) error {
	for _, level := range []string{"high", "low"} {
		if spec.Has("D_overshoot_" + level) {
			if !spec.Has("S_overshoot_" + level) {
				return ibis.NewError(ibis.ErrMissingRequired, "D_overshoot_%s requires S_overshoot_%s", level, level)
			}
			if !spec.Has("D_overshoot_time") {
				return ibis.NewError(ibis.ErrMissingRequired, "D_overshoot_%s requires D_overshoot_time", level)
			}
		}
		l := level[:1]
		if spec.Has("D_overshoot_area_"+l) && !spec.Has("D_overshoot_ampl_"+l) {
			return ibis.NewError(ibis.ErrMissingRequired, "D_overshoot_area_%s requires D_overshoot_ampl_%s", l, l)
		}
	}
	return nil
}

// Delay pairs that cannot make up a two-entry driver schedule.
var invalidSchedulePairs = [][2]string{
	{"Rise_on_dly", "Fall_off_dly"},
	{"Rise_off_dly", "Fall_on_dly"},
}

func checkSchedule(driver string, delays *ibis.Node) error {
	count := 0
	for kw, v := range delays.All() {
		d, ok := v.(float64)
		if !ok {
			continue
		}
		if d < 0 {
			return ibis.NewError(ibis.ErrRange, "'%s' driver schedule item '%s' has invalid value '%s'", driver, kw, ibis.FormatFloat(d))
		}
		count++
	}
	invalid := count != 2 && count != 4
	if count == 2 {
		for _, pair := range invalidSchedulePairs {
			if delays.Value(pair[0]) != nil && delays.Value(pair[1]) != nil {
				invalid = true
			}
		}
	}
	if invalid {
		return ibis.NewError(ibis.ErrFormat, "invalid delay combination for driver schedule '%s'", driver)
	}
	return nil
}

func checkExternalPorts(f Facets, ext *ibis.Node) error {
	var ports []string
	if f.Input {
		ports = append(ports, "D_receive")
	}
	if f.Output {
		ports = append(ports, "D_drive")
	}
	if f.Enable {
		ports = append(ports, "D_enable")
	}
	if f.Switch {
		ports = append(ports, "D_switch")
	}
	switch {
	case f.Diff:
		ports = append(ports, "A_signal_pos", "A_signal_neg")
	case f.Series:
		ports = append(ports, "A_pos", "A_neg")
	default:
		ports = append(ports, "A_signal")
	}

	used := map[string]bool{}
	for _, p := range ext.List("Ports") {
		used[p.(string)] = true
	}
	for _, conv := range []string{"D_to_A", "A_to_D"} {
		for name, v := range ext.Node(conv).All() {
			used[name] = true
			rec := v.(*ibis.Node)
			for _, col := range []string{"port1", "port2"} {
				if p, ok := rec.Text(col); ok {
					used[p] = true
				}
			}
		}
	}
	for _, p := range ports {
		if !used[p] {
			return ibis.NewError(ibis.ErrMissingRequired, "External Model missing port '%s'", p)
		}
	}
	return nil
}
