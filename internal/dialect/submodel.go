package dialect

import (
	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

func submodel() *grammar.Section {
	spec := grammar.NewSection("Submodel Spec")
	spec.Add(
		rangeParam("V_trigger_r"),
		rangeParam("V_trigger_f"),
		positiveRangeParam("Off_delay"),
	)

	s := baseModel("Submodel")
	s.Add(grammar.NewParam("Submodel_type", value.OneOf("Dynamic_clamp Bus_hold Fall_back"), grammar.Required()))
	s.Add(each([]string{"GND Pulse Table", "POWER Pulse Table"}, increasingTable)...)
	s.Add(spec)
	s.OnFinish(validateSubmodel)
	return s
}

func validateSubmodel(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	kind, _ := ch.Text("Submodel_type")
	spec := ch.Node("Submodel Spec")
	switch kind {
	case "dynamic_clamp":
		if ch.Has("GND Pulse Table") && !spec.Has("V_trigger_f") {
			return ibis.NewError(ibis.ErrMissingRequired, "submodel '%s' missing 'V_trigger_f' for [GND Pulse Table]", in.Label)
		}
		if ch.Has("POWER Pulse Table") && !spec.Has("V_trigger_r") {
			return ibis.NewError(ibis.ErrMissingRequired, "submodel '%s' missing 'V_trigger_r' for [POWER Pulse Table]", in.Label)
		}
	case "fall_back":
		if ch.Has("Pullup") && ch.Has("Pulldown") {
			return ibis.NewError(ibis.ErrDisallowed, "submodel '%s' cannot have both 'Pullup' and 'Pulldown'", in.Label)
		}
		if spec.Has("Off_delay") {
			return ibis.NewError(ibis.ErrDisallowed, "submodel '%s' contains disallowed keyword, 'Off_delay'", in.Label)
		}
	}
	if kind == "fall_back" || kind == "bus_hold" {
		if !ch.Has("Pullup") && !ch.Has("Pulldown") {
			return ibis.NewError(ibis.ErrMissingRequired, "submodel '%s' needs 'Pullup' or 'Pulldown'", in.Label)
		}
		if !ch.Has("Ramp") {
			return ibis.NewError(ibis.ErrMissingRequired, "submodel '%s' missing 'Ramp' keyword", in.Label)
		}
		for _, kw := range []string{"V_trigger_f", "V_trigger_r"} {
			if !spec.Has(kw) {
				return ibis.NewError(ibis.ErrMissingRequired, "submodel '%s' missing '%s' keyword", in.Label, kw)
			}
		}
	}
	return nil
}
