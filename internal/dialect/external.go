package dialect

import (
	"slices"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

// Ports an [External Model] may convert between digital and analog.
var (
	modelDtoA = []string{"D_drive", "D_enable", "D_switch"}
	modelAtoD = []string{"D_receive"}
)

var cornerTok = value.Opt(grammar.RangeField, value.OneOfTok("Typ Min Max"))

// externalCommon returns the keywords shared by [External Model] and
// [External Circuit].
func externalCommon(key string, opts ...grammar.Option) *grammar.Section {
	s := grammar.NewSection(key, opts...)
	s.Add(
		grammar.NewParam("Language", value.OneOf("SPICE VHDL-AMS Verilog-AMS VHDL-A(MS) Verilog-A(MS)")),
		grammar.NewFormParam("Corner", grammar.Ranged, value.Fields(
			value.F(grammar.RangeField, value.OneOfTok("Typ Min Max")),
			value.F("file_name", value.WordTok),
			value.F("circuit_name", value.WordTok),
		), grammar.Required()),
		grammar.NewParam("Parameters", value.Words(0, -1), grammar.ListMerge()),
		grammar.NewParam("Ports", value.Words(0, -1), grammar.ListMerge(), grammar.Required()),
		grammar.NewFormParam("D_to_A", grammar.KeyedRanged, value.Fields(
			value.F("port1", value.WordTok),
			value.F("port2", value.WordTok),
			value.F("vlow", value.RealTok()),
			value.F("vhigh", value.RealTok()),
			value.F("trise", value.RealTok(value.Positive)),
			value.F("tfall", value.RealTok(value.Positive)),
			cornerTok,
		)),
		grammar.NewFormParam("A_to_D", grammar.KeyedRanged, value.Fields(
			value.F("port1", value.WordTok),
			value.F("port2", value.WordTok),
			value.F("vlow", value.RealTok()),
			value.F("vhigh", value.RealTok()),
			cornerTok,
		)),
		grammar.NewEnd("End "+key),
	)
	s.OnFinish(collapseCorners)
	return s
}

func externalCircuit() *grammar.Section {
	return externalCommon("External Circuit", grammar.Labeled())
}

func externalModel() *grammar.Section {
	s := externalCommon("External Model")
	s.OnFinish(func(_ *grammar.Context, in *grammar.Instance) error {
		for _, conv := range []struct {
			key     string
			allowed []string
		}{{"D_to_A", modelDtoA}, {"A_to_D", modelAtoD}} {
			for _, name := range in.Children.Node(conv.key).Keys() {
				if !slices.Contains(conv.allowed, name) {
					return ibis.NewError(ibis.ErrDisallowed, "contains disallowed port '%s' in %s", name, conv.key)
				}
			}
		}
		return nil
	})
	return s
}

// collapseCorners turns the per-corner Corner, D_to_A and A_to_D records
// into single records whose varying fields are typ/min/max values.
func collapseCorners(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	section := in.Rule.Spec().Key()
	if in.Label != "" {
		section += " " + in.Label
	}

	corners, _ := ch.Value("Corner").(ibis.Triple[any])
	if !corners.Has(ibis.Typ) {
		return ibis.NewError(ibis.ErrMissingRequired, "missing typ corner in '%s'", section)
	}
	rec := ibis.NewNode()
	for _, field := range []string{"file_name", "circuit_name"} {
		var t ibis.Triple[string]
		for _, c := range ibis.Corners {
			if r, ok := corners.Raw(c); ok {
				s, _ := r.(*ibis.Node).Text(field)
				t.Set(c, s)
			}
		}
		rec.Set(field, t)
	}
	ch.Set("Corner", rec)

	for _, conv := range []string{"D_to_A", "A_to_D"} {
		dict := ch.Node(conv)
		for name, v := range dict.All() {
			merged, err := collapseConverter(conv, name, v.(ibis.Triple[any]))
			if err != nil {
				return err
			}
			dict.Set(name, merged)
		}
	}
	return nil
}

func collapseConverter(conv, name string, t ibis.Triple[any]) (*ibis.Node, error) {
	if !t.Has(ibis.Typ) {
		return nil, ibis.NewError(ibis.ErrMissingRequired, "missing typ '%s' '%s'", conv, name)
	}
	typ := t.Typ().(*ibis.Node)
	out := ibis.NewNode()
	for key, v := range typ.All() {
		f, ok := v.(float64)
		if !ok {
			out.Set(key, v)
			continue
		}
		r := ibis.NewRange(f)
		for _, c := range ibis.Corners[1:] {
			if raw, ok := t.Raw(c); ok {
				if cf, ok := raw.(*ibis.Node).Float(key); ok {
					r.Set(c, cf)
				}
			}
		}
		out.Set(key, r)
	}
	for _, c := range ibis.Corners[1:] {
		raw, ok := t.Raw(c)
		if !ok {
			continue
		}
		other := raw.(*ibis.Node)
		for _, port := range []string{"port1", "port2"} {
			if other.Value(port) != typ.Value(port) {
				return nil, ibis.NewError(ibis.ErrDisallowed, "%s '%s' typ/min/max '%s' do not match", conv, name, port)
			}
		}
	}
	return out, nil
}
