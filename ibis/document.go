package ibis

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies which of the three IBIS file grammars applies.
type Dialect int

const (
	DialectIBS Dialect = iota // component models (.ibs)
	DialectPKG                // package models (.pkg)
	DialectEBD                // electrical board descriptions (.ebd)
)

var dialectNames = [...]string{"ibs", "pkg", "ebd"}

func (d Dialect) String() string {
	if d >= 0 && int(d) < len(dialectNames) {
		return dialectNames[d]
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// Ext returns the conventional file extension, with leading dot.
func (d Dialect) Ext() string { return "." + d.String() }

// ParseDialect maps a dialect name or file extension ("ibs", ".pkg") to
// a Dialect.
func ParseDialect(s string) (Dialect, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for i, name := range dialectNames {
		if s == name {
			return Dialect(i), nil
		}
	}
	return DialectIBS, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

// Document is a parsed and validated IBIS, PKG or EBD file.
type Document struct {
	Dialect     Dialect
	Name        string // source name, usually the file path
	Root        *Node
	Diagnostics []Diagnostic
}

// Header returns the header keywords ([IBIS Ver], [File Name], ...).
func (d *Document) Header() *Node {
	if d == nil || d.Root == nil {
		return nil
	}
	return d.Root.Node("header")
}

// Version returns the [IBIS Ver] value as written.
func (d *Document) Version() string {
	v, _ := d.Header().Text("IBIS Ver")
	return v
}

// Section returns the top-level entry for keyword, or nil. Labeled
// keywords such as [Component] or [Model] return the dictionary of all
// occurrences keyed by name.
func (d *Document) Section(keyword string) *Node {
	if d == nil || d.Root == nil {
		return nil
	}
	return d.Root.Node(keyword)
}

// Names returns the labels of a labeled top-level section in file order.
func (d *Document) Names(keyword string) []string {
	return d.Section(keyword).Keys()
}

// FormatFloat renders a real the way the writer emits it.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
