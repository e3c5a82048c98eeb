package dialect

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

func packageModel() *grammar.Section {
	data := grammar.NewSection("Model Data")
	data.Add(
		grammar.NewMatrix("Inductance Matrix"),
		grammar.NewMatrix("Capacitance Matrix"),
		// Negative resistances occur in published models.
		grammar.NewMatrix("Resistance Matrix"),
		grammar.NewEnd("End Model Data"),
	)

	p := grammar.NewSection("Define Package Model", grammar.Labeled())
	p.Add(
		grammar.NewKeyword("Manufacturer", nil, grammar.Required()),
		grammar.NewKeyword("OEM", nil, grammar.Required()),
		grammar.NewKeyword("Description", nil, grammar.Required()),
		grammar.NewKeyword("Number Of Sections", value.Int(value.Positive)),
		grammar.NewKeyword("Number Of Pins", value.Int(value.Positive), grammar.Required()),
		grammar.NewCollect("Pin Numbers", collectPinNumbers),
		data,
		grammar.NewEnd("End Package Model"),
	)
	p.OnFinish(validatePackageModel)
	return p
}

// collectPinNumbers reads one pin per line. With [Number Of Sections]
// each pin is followed by the stubs and forks of its path.
func collectPinNumbers(c *grammar.Context, in *grammar.Instance, text string) (any, error) {
	pins := ibis.NewDict()
	sections := c.Parent(in).Children.Has("Number Of Sections")
	if !sections {
		for _, line := range strings.Split(text, "\n") {
			toks := strings.Fields(line)
			switch len(toks) {
			case 0:
				continue
			case 1:
			default:
				return nil, &value.FormatError{Token: strings.Join(toks[1:], " "), Want: "end of line"}
			}
			if pins.Has(toks[0]) {
				return nil, ibis.NewError(ibis.ErrDuplicate, "'Pin Numbers' already contains '%s'", toks[0])
			}
			pins.Set(toks[0], nil)
		}
		return pins, nil
	}

	var order []string
	streams := map[string][]string{}
	for _, line := range strings.Split(text, "\n") {
		toks := pathTokens(line)
		if len(toks) == 0 {
			continue
		}
		first := strings.ToLower(toks[0])
		if first != "fork" && first != "endfork" && !strings.HasPrefix(first, "len=") {
			if _, dup := streams[toks[0]]; dup {
				return nil, ibis.NewError(ibis.ErrDuplicate, "'Pin Numbers' already contains '%s'", toks[0])
			}
			order = append(order, toks[0])
			streams[toks[0]] = []string{}
			toks = toks[1:]
		}
		if len(order) == 0 {
			return nil, &value.FormatError{Token: toks[0], Want: "a pin name"}
		}
		last := order[len(order)-1]
		streams[last] = append(streams[last], toks...)
	}
	for _, pin := range order {
		s := &pathScanner{toks: streams[pin]}
		items, err := s.items(0)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, &value.FormatError{Token: pin, Want: "at least one stub"}
		}
		pins.Set(pin, items)
	}
	return pins, nil
}

func validatePackageModel(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	data, sections := ch.Has("Model Data"), ch.Has("Number Of Sections")
	switch {
	case data && sections:
		return ibis.NewError(ibis.ErrDisallowed, "package model '%s': 'Model Data' and 'Number Of Sections' are mutually exclusive", in.Label)
	case !data && !sections:
		return ibis.NewError(ibis.ErrMissingRequired, "package model '%s' requires 'Model Data' or 'Number Of Sections'", in.Label)
	}
	count, _ := ch.Int("Number Of Pins")
	if n := ch.Node("Pin Numbers").Len(); count != n {
		return ibis.NewError(ibis.ErrDimension, "package model '%s': 'Number Of Pins' %d does not match %d entries of 'Pin Numbers'", in.Label, count, n)
	}
	return nil
}
