package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
)

// unshape maps canonical keywords to functions that turn a validated
// occurrence back into the shape its rule parses. They never modify
// their input.
var unshape = map[string]func(any) (any, error){
	"diff_pin":         splitDiffDelay,
	"rising_waveform":  splitFixture,
	"falling_waveform": splitFixture,
	"external_model":   expandCorners,
	"external_circuit": expandCorners,
}

// collected writes the bodies of sections that gather raw text.
var collected = map[string]func(*lines, any) error{
	"series_switch_groups": writeSwitchGroups,
	"node_declarations":    writeWords,
	"pin_numbers":          writePinNumbers,
	"path_description":     writePath,
}

func splitDiffDelay(v any) (any, error) {
	dict, ok := v.(*ibis.Node)
	if !ok {
		return nil, unsupported(v)
	}
	out := dict.Clone()
	for pin, row := range dict.All() {
		r, ok := row.(*ibis.Node)
		if !ok {
			return nil, unsupported(row)
		}
		tdelay, ok := r.Range("tdelay")
		if !ok {
			continue
		}
		c := r.Clone()
		c.Delete("tdelay")
		for i, col := range []string{"tdelay_typ", "tdelay_min", "tdelay_max"} {
			if x, ok := tdelay.Raw(ibis.Corners[i]); ok {
				c.Set(col, x)
			}
		}
		out.Set(pin, c)
	}
	return out, nil
}

func splitFixture(v any) (any, error) {
	n, ok := v.(*ibis.Node)
	if !ok {
		return nil, unsupported(v)
	}
	r, ok := n.Range("V_fixture")
	if !ok {
		return n, nil
	}
	out := n.Clone()
	out.Set("V_fixture", r.Typ())
	for i, name := range []string{"V_fixture_min", "V_fixture_max"} {
		if x, ok := r.Raw(ibis.Corners[i+1]); ok {
			out.Set(name, x)
		}
	}
	return out, nil
}

// expandCorners rebuilds the per-corner Corner, D_to_A and A_to_D lines
// of an external model or circuit.
func expandCorners(v any) (any, error) {
	n, ok := v.(*ibis.Node)
	if !ok {
		return nil, unsupported(v)
	}
	out := n.Clone()
	if rec := n.Node("Corner"); rec != nil {
		files, _ := rec.Value("file_name").(ibis.Triple[string])
		circuits, _ := rec.Value("circuit_name").(ibis.Triple[string])
		var t ibis.Triple[any]
		for _, c := range ibis.Corners {
			file, ok := files.Raw(c)
			if !ok {
				continue
			}
			line := ibis.NewNode()
			line.Set(grammar.RangeField, cornerName(c))
			line.Set("file_name", file)
			line.Set("circuit_name", circuits.At(c))
			t.Set(c, line)
		}
		out.Set("Corner", t)
	}
	for _, conv := range []string{"D_to_A", "A_to_D"} {
		dict := n.Node(conv)
		if dict == nil {
			continue
		}
		expanded := ibis.NewDict()
		for name, rv := range dict.All() {
			rec, ok := rv.(*ibis.Node)
			if !ok {
				return nil, unsupported(rv)
			}
			expanded.Set(name, expandConverter(rec))
		}
		out.Set(conv, expanded)
	}
	return out, nil
}

func expandConverter(rec *ibis.Node) ibis.Triple[any] {
	var t ibis.Triple[any]
	for _, c := range ibis.Corners {
		present := c == ibis.Typ
		for _, v := range rec.All() {
			if r, ok := v.(ibis.Range); ok && r.Has(c) {
				present = true
			}
		}
		if !present {
			continue
		}
		line := ibis.NewNode()
		for key, v := range rec.All() {
			if r, ok := v.(ibis.Range); ok {
				v = r.At(c)
			}
			line.Set(key, v)
		}
		line.Set(grammar.RangeField, cornerName(c))
		t.Set(c, line)
	}
	return t
}

func cornerName(c ibis.Corner) string {
	s := c.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeSwitchGroups(o *lines, v any) error {
	groups, ok := v.([]any)
	if !ok {
		return unsupported(v)
	}
	for _, g := range groups {
		words, ok := g.([]any)
		if !ok {
			return unsupported(g)
		}
		s, err := format(words)
		if err != nil {
			return err
		}
		o.line(s, "/")
	}
	return nil
}

func writeWords(o *lines, v any) error {
	words, ok := v.([]any)
	if !ok {
		return unsupported(v)
	}
	for _, w := range words {
		s, err := format(w)
		if err != nil {
			return err
		}
		o.line(s)
	}
	return nil
}

func writePinNumbers(o *lines, v any) error {
	pins, ok := v.(*ibis.Node)
	if !ok {
		return unsupported(v)
	}
	for pin, p := range pins.All() {
		o.line(pin)
		if p == nil {
			continue
		}
		items, ok := p.([]ibis.PathItem)
		if !ok {
			return unsupported(p)
		}
		if err := writeItems(o, items); err != nil {
			return err
		}
	}
	return nil
}

func writePath(o *lines, v any) error {
	items, ok := v.([]ibis.PathItem)
	if !ok {
		return unsupported(v)
	}
	return writeItems(o, items)
}

func writeItems(o *lines, items []ibis.PathItem) error {
	for _, it := range items {
		switch it.Kind {
		case ibis.PathPin:
			o.line("Pin", it.Name)
		case ibis.PathNode:
			o.line("Node", it.Name)
		case ibis.PathStub:
			o.line(stub(it))
		case ibis.PathFork:
			o.line("Fork")
			if err := writeItems(o, it.Fork); err != nil {
				return err
			}
			o.line("Endfork")
		default:
			return fmt.Errorf("%w: path item %s", ibis.ErrUnsupported, it.Kind)
		}
	}
	return nil
}

func stub(it ibis.PathItem) string {
	parts := []string{"Len=" + ibis.FormatFloat(it.Len)}
	for _, f := range []struct {
		name string
		v    float64
	}{{"L", it.L}, {"R", it.R}, {"C", it.C}} {
		if f.v != 0 {
			parts = append(parts, f.name+"="+ibis.FormatFloat(f.v))
		}
	}
	return strings.Join(append(parts, "/"), " ")
}

// format renders a single value as it appears after its keyword.
func format(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NA", nil
	case string:
		return v, nil
	case float64:
		return ibis.FormatFloat(v), nil
	case int:
		return strconv.Itoa(v), nil
	case ibis.Range:
		return v.String(), nil
	case ibis.Triple[ibis.Ramp]:
		parts := make([]string, 0, 3)
		for _, c := range ibis.Corners {
			if r, ok := v.Raw(c); ok {
				parts = append(parts, r.String())
			} else {
				parts = append(parts, "NA")
			}
		}
		return strings.Join(parts, " "), nil
	case []any:
		return join(v)
	case *ibis.Node:
		vals := make([]any, 0, v.Len())
		for _, x := range v.All() {
			vals = append(vals, x)
		}
		return join(vals)
	}
	return "", unsupported(v)
}

func join(vals []any) (string, error) {
	parts := make([]string, 0, len(vals))
	for _, x := range vals {
		s, err := format(x)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
