// Package dialect builds the grammars of the three IBIS file kinds and
// the validators that run as their sections close.
//
// Grammars are built on first use and shared; they are never modified
// after construction, so one grammar may serve concurrent parses.
package dialect

import (
	"fmt"
	"sync"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
)

var (
	ibsGrammar = sync.OnceValue(buildIBS)
	pkgGrammar = sync.OnceValue(buildPKG)
	ebdGrammar = sync.OnceValue(buildEBD)
)

// IBS returns the grammar of component and model files.
func IBS() *grammar.Grammar { return ibsGrammar() }

// PKG returns the grammar of stand-alone package model files.
func PKG() *grammar.Grammar { return pkgGrammar() }

// EBD returns the grammar of electrical board description files.
func EBD() *grammar.Grammar { return ebdGrammar() }

// For returns the grammar of d.
func For(d ibis.Dialect) (*grammar.Grammar, error) {
	switch d {
	case ibis.DialectIBS:
		return IBS(), nil
	case ibis.DialectPKG:
		return PKG(), nil
	case ibis.DialectEBD:
		return EBD(), nil
	}
	return nil, fmt.Errorf("%w: %s", ibis.ErrUnknownDialect, d)
}

// common returns a grammar with the file header and the final [End].
func common(d ibis.Dialect) *grammar.Grammar {
	g := grammar.New(d)
	header(g.Header)
	g.Root.Add(grammar.NewEnd("End"))
	return g
}

func buildIBS() *grammar.Grammar {
	g := common(ibis.DialectIBS)
	g.Root.Add(
		component(),
		grammar.NewDict("Model Selector", nil, grammar.Labeled()),
		model(),
		testData(),
		testLoad(),
		submodel(),
		externalCircuit(),
		packageModel(),
	)
	g.Root.OnFinish(validateIBS)
	return g
}

func buildPKG() *grammar.Grammar {
	g := common(ibis.DialectPKG)
	g.Root.Add(packageModel())
	return g
}

func buildEBD() *grammar.Grammar {
	g := common(ibis.DialectEBD)
	g.Root.Add(boardDescription())
	return g
}
