package grammar

import "github.com/goibis/goibis/ibis"

// Grammar is the complete rule tree of one dialect.
type Grammar struct {
	Dialect ibis.Dialect
	// Root holds the top-level sections and the final [End].
	Root *Group
	// Header is open when parsing begins; it holds the file header
	// keywords and closes on the first keyword it does not know.
	Header *Group
	// Globals may open inside any section.
	Globals []Rule
}

// New returns a grammar with an empty root, a required header and the
// [Comment Char] directive as its only global.
func New(d ibis.Dialect) *Grammar {
	g := &Grammar{
		Dialect: d,
		Root:    NewGroup("body"),
		Header:  NewGroup("header", Required()),
		Globals: []Rule{NewCommentChar()},
	}
	g.Root.Add(g.Header)
	return g
}

// Find returns the rule that opens on text inside an occurrence of r,
// falling back to the globals.
func (g *Grammar) Find(r Rule, text string) Rule {
	if child := r.Spec().Find(text); child != nil {
		return child
	}
	for _, glob := range g.Globals {
		if glob.Match(text) {
			return glob
		}
	}
	return nil
}
