package dialect

import (
	"slices"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

// Pin model names with a fixed meaning. They never name a [Model].
const (
	ModelPower       = "POWER"
	ModelGND         = "GND"
	ModelNC          = "NC"
	ModelCircuitCall = "CIRCUITCALL"
)

func isReserved(model string) bool {
	switch model {
	case ModelPower, ModelGND, ModelNC, ModelCircuitCall:
		return true
	}
	return false
}

var pinMapColumns = []string{"pulldown_ref", "pullup_ref", "gnd_clamp_ref", "power_clamp_ref", "ext_ref"}

func component() *grammar.Section {
	pkg := grammar.NewSection("Package", grammar.Required())
	pkg.Add(each([]string{"R_pkg", "L_pkg", "C_pkg"}, func(n string) grammar.Rule {
		return grammar.NewParam(n, value.Range(), grammar.Required())
	})...)

	pin := grammar.NewTable("Pin",
		[]string{"signal_name", "model_name"},
		[]string{"R_pin", "L_pin", "C_pin"},
		grammar.Required()).
		Column("R_pin", value.NARealTok(value.Positive)).
		Column("L_pin", value.NARealTok(value.Positive)).
		Column("C_pin", value.NARealTok(value.Positive))

	alternates := grammar.NewList("Alternate Package Models", nil)
	alternates.Add(grammar.NewEnd("End Alternate Package Models"))

	diffPin := grammar.NewTable("Diff Pin",
		[]string{"inv_pin", "vdiff", "tdelay_typ"},
		[]string{"tdelay_min", "tdelay_max"}).
		Column("vdiff", value.NARealTok(value.Positive)).
		Column("tdelay_typ", value.NARealTok()).
		Column("tdelay_min", value.NARealTok()).
		Column("tdelay_max", value.NARealTok())

	seriesMap := grammar.NewTable("Series Pin Mapping",
		[]string{"pin_2", "model_name"},
		[]string{"function_table_group"}).
		KeyRows(seriesPinKey)

	nodes := grammar.NewCollect("Node Declarations", grammar.Tokens(value.Words(0, -1)))
	nodes.Add(grammar.NewEnd("End Node Declarations"))

	c := grammar.NewSection("Component", grammar.Required(), grammar.Labeled())
	c.Add(
		grammar.NewParam("Si_location", value.OneOf("Pin Die")),
		grammar.NewParam("Timing_location", value.OneOf("Pin Die")),
		grammar.NewKeyword("Manufacturer", nil, grammar.Required()),
		pkg,
		pin,
		grammar.NewKeyword("Package Model", nil),
		alternates,
		grammar.NewTable("Pin Mapping",
			[]string{"pulldown_ref", "pullup_ref"},
			[]string{"gnd_clamp_ref", "power_clamp_ref", "ext_ref"}),
		diffPin,
		seriesMap,
		grammar.NewCollect("Series Switch Groups", collectSwitchGroups),
		nodes,
		circuitCall(),
		emiComponent(),
	)
	c.OnFinish(validateComponent)
	return c
}

// SeriesPinKey joins the two pins of a [Series Pin Mapping] row into the
// row's key.
func SeriesPinKey(pin1, pin2 string) string { return pin1 + " " + pin2 }

// SplitSeriesPinKey undoes SeriesPinKey.
func SplitSeriesPinKey(key string) (pin1, pin2 string) {
	pin1, pin2, _ = strings.Cut(key, " ")
	return pin1, pin2
}

func seriesPinKey(first string, row *ibis.Node) (string, error) {
	second, _ := row.Text("pin_2")
	if first == second {
		return "", ibis.NewError(ibis.ErrDisallowed, "series pin '%s' maps to itself", first)
	}
	return SeriesPinKey(first, second), nil
}

// collectSwitchGroups reads groups of the form "On|Off name... /".
func collectSwitchGroups(_ *grammar.Context, _ *grammar.Instance, text string) (any, error) {
	groups := []any{}
	var cur []any
	for _, tok := range strings.Fields(strings.ReplaceAll(text, "/", " / ")) {
		switch {
		case cur == nil:
			state, err := value.OneOfTok("On Off")(tok)
			if err != nil {
				return nil, err
			}
			cur = []any{state}
		case tok == "/":
			groups = append(groups, cur)
			cur = nil
		default:
			cur = append(cur, tok)
		}
	}
	if cur != nil {
		return nil, &value.FormatError{Token: cur[len(cur)-1].(string), Want: "'/'"}
	}
	return groups, nil
}

func circuitCall() *grammar.Section {
	cc := grammar.NewSection("Circuit Call", grammar.Labeled())
	cc.Add(
		grammar.NewParam("Signal_pin", value.Word()),
		grammar.NewParam("Diff_signal_pins", value.Words(2, 2)),
		grammar.NewParam("Series_pins", value.Words(2, 2)),
		grammar.NewFormParam("Port_map", grammar.Keyed, value.Word()),
		grammar.NewEnd("End Circuit Call"),
	)
	cc.OnFinish(func(_ *grammar.Context, in *grammar.Instance) error {
		count := 0
		for _, n := range []string{"Signal_pin", "Diff_signal_pins", "Series_pins"} {
			v, ok := in.Children.Get(n)
			if !ok {
				continue
			}
			count++
			if pins, ok := v.([]any); ok && pins[0] == pins[1] {
				return ibis.NewError(ibis.ErrDisallowed, "'%s' points to itself", n)
			}
		}
		if count > 1 {
			return ibis.NewError(ibis.ErrDuplicate, "circuit call '%s' has more than one pin mapping", in.Label)
		}
		return nil
	})
	return cc
}

func validateComponent(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	name := in.Label
	pins := ch.Node("Pin")

	for _, row := range pins.All() {
		r := row.(*ibis.Node)
		model, _ := r.Text("model_name")
		if up := strings.ToUpper(model); isReserved(up) {
			model = up
		}
		if model == ModelNC {
			r.Set("model_name", nil)
		} else {
			r.Set("model_name", model)
		}
	}

	if mapping := ch.Node("Pin Mapping"); mapping != nil {
		if err := checkPinMapping(name, pins, mapping); err != nil {
			return err
		}
	}

	if diff := ch.Node("Diff Pin"); diff != nil {
		for pin, row := range diff.All() {
			r := row.(*ibis.Node)
			inv, _ := r.Text("inv_pin")
			for _, p := range []string{pin, inv} {
				if !pins.Has(p) {
					return ibis.NewError(ibis.ErrUnresolved, "invalid pin, '%s', listed in Diff Pin of component '%s'", p, name)
				}
			}
			if pin == inv {
				return ibis.NewError(ibis.ErrDisallowed, "Diff Pin '%s' maps to itself", pin)
			}
			if r.Value("vdiff") == nil {
				r.Set("vdiff", DefaultVdiff)
			}
			var tdelay ibis.Range
			for i, col := range []string{"tdelay_typ", "tdelay_min", "tdelay_max"} {
				v, isSet := r.Value(col).(float64)
				r.Delete(col)
				if isSet || i < 2 {
					tdelay.Set(ibis.Corners[i], v)
				}
			}
			r.Set("tdelay", tdelay)
		}
	}

	groups := map[string]bool{}
	if series := ch.Node("Series Pin Mapping"); series != nil {
		for key, row := range series.All() {
			p1, p2 := SplitSeriesPinKey(key)
			for _, p := range []string{p1, p2} {
				if !pins.Has(p) {
					return ibis.NewError(ibis.ErrUnresolved, "invalid pin, '%s', listed in series pin mapping of component '%s'", p, name)
				}
			}
			if g, ok := row.(*ibis.Node).Text("function_table_group"); ok {
				groups[g] = true
			}
		}
	}
	switchGroups := ch.List("Series Switch Groups")
	switch {
	case len(groups) > 0 && !ch.Has("Series Switch Groups"):
		return ibis.NewError(ibis.ErrMissingRequired, "Series Pin Mapping has function_table_group elements, but no Series Switch Groups exist")
	case len(groups) == 0 && ch.Has("Series Switch Groups"):
		return ibis.NewError(ibis.ErrDisallowed, "Series Switch Groups exists but no function_table_group elements exist under Series Pin Mapping")
	}
	for _, g := range switchGroups {
		for _, member := range g.([]any)[1:] {
			if !groups[member.(string)] {
				return ibis.NewError(ibis.ErrUnresolved, "Series Switch Groups lists '%s' which is not available in the series pin mapping table", member)
			}
		}
	}

	for call, v := range ch.Node("Circuit Call").All() {
		cc := v.(*ibis.Node)
		for _, n := range []string{"Signal_pin", "Diff_signal_pins", "Series_pins"} {
			var list []any
			switch p := cc.Value(n).(type) {
			case string:
				list = []any{p}
			case []any:
				list = p
			}
			for _, p := range list {
				if !pins.Has(p.(string)) {
					return ibis.NewError(ibis.ErrUnresolved, "Circuit Call '%s' contains unknown pin '%s'", call, p)
				}
			}
		}
	}

	if emi := ch.Node("Begin EMI Component"); emi != nil {
		for _, pin := range emi.Node("Pin EMI").Keys() {
			if !pins.Has(pin) {
				return ibis.NewError(ibis.ErrUnresolved, "EMI Component of '%s' lists unknown pin '%s'", name, pin)
			}
		}
	}
	return nil
}

// DefaultVdiff is the [Diff Pin] vdiff used when the column reads NA.
const DefaultVdiff = 200e-3

func checkPinMapping(component string, pins, mapping *ibis.Node) error {
	if pins.Len() != mapping.Len() {
		return ibis.NewError(ibis.ErrMissingRequired, "pin mapping table of component '%s' is incomplete", component)
	}
	available := map[string]bool{}
	var used []string
	for pin, row := range mapping.All() {
		r := row.(*ibis.Node)
		for _, col := range pinMapColumns {
			if ref, ok := r.Text(col); ok && strings.EqualFold(ref, ModelNC) {
				r.Set(col, nil)
			}
		}
		info := pins.Node(pin)
		if info == nil {
			return ibis.NewError(ibis.ErrUnresolved, "invalid pin, '%s', listed in Pin Mapping of component '%s'", pin, component)
		}
		up, pullUp := r.Text("pullup_ref")
		down, pullDown := r.Text("pulldown_ref")
		model, _ := info.Text("model_name")
		switch model {
		case ModelGND:
			if pullUp {
				return ibis.NewError(ibis.ErrDisallowed, "expected 'NC' for pullup_ref of '%s'", pin)
			}
			if !pullDown {
				return ibis.NewError(ibis.ErrMissingRequired, "unexpected 'NC' for pulldown_ref of '%s'", pin)
			}
			available[down] = true
		case ModelPower:
			if pullDown {
				return ibis.NewError(ibis.ErrDisallowed, "expected 'NC' for pulldown_ref of '%s'", pin)
			}
			if !pullUp {
				return ibis.NewError(ibis.ErrMissingRequired, "unexpected 'NC' for pullup_ref of '%s'", pin)
			}
			available[up] = true
		default:
			for _, bus := range r.All() {
				if s, ok := bus.(string); ok {
					used = append(used, s)
				}
			}
		}
	}
	var missing []string
	for _, bus := range used {
		if !available[bus] && !slices.Contains(missing, bus) {
			missing = append(missing, bus)
		}
	}
	if len(missing) > 0 {
		return ibis.NewError(ibis.ErrUnresolved, "'%s' listed in pin mapping of component '%s', but not available", strings.Join(missing, "', '"), component)
	}
	return nil
}
