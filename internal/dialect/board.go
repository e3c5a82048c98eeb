package dialect

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

func boardDescription() *grammar.Section {
	b := grammar.NewSection("Begin Board Description", grammar.Labeled())
	b.Add(
		grammar.NewKeyword("Manufacturer", nil, grammar.Required()),
		grammar.NewKeyword("Number Of Pins", value.Int(value.Positive), grammar.Required()),
		grammar.NewTable("Pin List", []string{"signal_name"}, nil, grammar.Required()),
		grammar.NewCollect("Path Description", func(_ *grammar.Context, _ *grammar.Instance, text string) (any, error) {
			return ParsePath(text)
		}, grammar.Labeled(), grammar.Required()),
		grammar.NewDict("Reference Designator Map", value.Fields(
			value.F("file_name", value.WordTok),
			value.Rest("component_name"),
		)),
		grammar.NewEnd("End Board Description"),
	)
	b.OnFinish(validateBoard)
	return b
}

func validateBoard(_ *grammar.Context, in *grammar.Instance) error {
	ch := in.Children
	pins := ch.Node("Pin List")
	if count, _ := ch.Int("Number Of Pins"); count != pins.Len() {
		return ibis.NewError(ibis.ErrDimension, "board '%s': 'Number Of Pins' %d does not match %d entries of 'Pin List'", in.Label, count, pins.Len())
	}
	refs := ch.Node("Reference Designator Map")
	for name, p := range ch.Node("Path Description").All() {
		if err := checkPath(name, p.([]ibis.PathItem), pins, refs); err != nil {
			return err
		}
	}
	return nil
}

func checkPath(name string, path []ibis.PathItem, pins, refs *ibis.Node) error {
	for _, item := range path {
		switch item.Kind {
		case ibis.PathPin:
			if !strings.EqualFold(item.Name, ModelNC) && !pins.Has(item.Name) {
				return ibis.NewError(ibis.ErrUnresolved, "path '%s', pin '%s' not in pin list", name, item.Name)
			}
		case ibis.PathNode:
			ref, _, ok := strings.Cut(item.Name, ".")
			if !ok {
				return ibis.NewError(ibis.ErrFormat, "node '%s' of path '%s' is not <refdes>.<pin>", item.Name, name)
			}
			if !refs.Has(ref) {
				return ibis.NewError(ibis.ErrUnresolved, "node '%s' of path '%s' references refdes not in reference designator map", item.Name, name)
			}
		case ibis.PathFork:
			if err := checkPath(name, item.Fork, pins, refs); err != nil {
				return err
			}
		}
	}
	return nil
}
