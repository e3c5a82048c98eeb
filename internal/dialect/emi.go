package dialect

import (
	"slices"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

func emiComponent() *grammar.Section {
	pinEMI := grammar.NewTable("Pin EMI", []string{"domain_name", "clock_div"}, nil).
		Column("clock_div", value.NARealTok(value.Positive))
	pinEMI.OnFinish(func(_ *grammar.Context, in *grammar.Instance) error {
		for _, row := range in.Value.(*ibis.Node).All() {
			r := row.(*ibis.Node)
			if r.Value("clock_div") == nil {
				r.Set("clock_div", 1.0)
			}
			if d, _ := r.Text("domain_name"); value.IsNA(d) {
				r.Set("domain_name", nil)
			}
		}
		return nil
	})

	s := grammar.NewSection("Begin EMI Component")
	s.Add(
		grammar.NewParam("Domain", value.OneOf("Digital Analog Digital_Analog"), grammar.Default("digital")),
		grammar.NewDelimParam("Cpd", "=", value.Real(value.Positive), grammar.Default(0.0)),
		eqPositive("C_Heatsink_gnd"),
		eqPositive("C_Heatsink_float"),
		pinEMI,
		grammar.NewTable("Pin Domain EMI", []string{"percentage"}, nil).
			Column("percentage", value.IntTok(value.InRange(1, 100))),
		grammar.NewEnd("End EMI Component"),
	)
	s.OnFinish(validateEMIComponent)
	return s
}

func validateEMIComponent(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	if ch.Has("C_Heatsink_gnd") && ch.Has("C_Heatsink_float") {
		return ibis.NewError(ibis.ErrDisallowed, "contains both 'C_Heatsink_gnd' and 'C_Heatsink_float'")
	}
	domains := map[string]bool{}
	for _, row := range ch.Node("Pin EMI").All() {
		if d, ok := row.(*ibis.Node).Text("domain_name"); ok {
			domains[d] = true
		}
	}
	listed := ch.Node("Pin Domain EMI")
	for _, d := range listed.Keys() {
		if !domains[d] {
			return ibis.NewError(ibis.ErrUnresolved, "Pin Domain EMI domain '%s' not in Pin EMI", d)
		}
	}
	var missing []string
	for _, row := range ch.Node("Pin EMI").All() {
		d, ok := row.(*ibis.Node).Text("domain_name")
		if ok && !listed.Has(d) && !slices.Contains(missing, d) {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		return ibis.NewError(ibis.ErrUnresolved, "Pin EMI contains '%s' which are not contained in Pin Domain EMI", strings.Join(missing, "', '"))
	}
	return nil
}

func emiModel() *grammar.Section {
	s := grammar.NewSection("Begin EMI Model")
	s.Add(
		grammar.NewParam("Model_emi_type", value.OneOf("Ferrite Not_a_ferrite"), grammar.Default("not_a_ferrite")),
		grammar.NewParam("Domain", value.OneOf("Analog Digital")),
		grammar.NewEnd("End EMI Model"),
	)
	return s
}
