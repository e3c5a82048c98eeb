package dialect

import (
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/value"
)

func header(h *grammar.Group) {
	h.Add(
		grammar.NewKeyword("IBIS Ver", nil, grammar.Required()),
		grammar.NewKeyword("File Name", nil, grammar.Required()),
		grammar.NewKeyword("File Rev", nil, grammar.Required()),
		grammar.NewKeyword("Date", nil),
		grammar.NewText("Source", true),
		grammar.NewText("Notes", true),
		grammar.NewText("Disclaimer", true),
		grammar.NewText("Copyright", true),
	)
}

// each builds one rule per name.
func each(names []string, mk func(name string) grammar.Rule) []grammar.Rule {
	rules := make([]grammar.Rule, len(names))
	for i, n := range names {
		rules[i] = mk(n)
	}
	return rules
}

func rangeParam(name string) grammar.Rule {
	return grammar.NewParam(name, value.Range())
}

func positiveRangeParam(name string) grammar.Rule {
	return grammar.NewParam(name, value.Range(value.Positive))
}

// eqReal is a "Name = value" parameter.
func eqReal(name string) grammar.Rule {
	return grammar.NewDelimParam(name, "=", value.Real())
}

func eqPositive(name string) grammar.Rule {
	return grammar.NewDelimParam(name, "=", value.Real(value.Positive))
}

func rangeKeyword(name string) grammar.Rule {
	return grammar.NewKeyword(name, value.Range())
}

func positiveRangeKeyword(name string) grammar.Rule {
	return grammar.NewKeyword(name, value.Range(value.Positive))
}

func rangeTable(name string) grammar.Rule {
	return grammar.NewRangeTable(name)
}

func increasingTable(name string) grammar.Rule {
	return grammar.NewRangeTable(name).Increasing()
}

var seriesKeywords = []string{"R Series", "L Series", "Rl Series", "C Series", "Lc Series", "Rc Series"}
