// Package goibis parses IBIS component (.ibs), package (.pkg) and board
// (.ebd) files into an ordered document tree and writes them back.
package goibis

import "github.com/goibis/goibis/ibis"

// Type aliases for the public API - all types come from the ibis subpackage.

// Document is a parsed and validated file.
type Document = ibis.Document

// Node is an ordered collection of named values.
type Node = ibis.Node

// Dialect selects one of the three file grammars.
type Dialect = ibis.Dialect

// Range is a typ/min/max triple of reals.
type Range = ibis.Range

// CurveSet holds the typ/min/max columns of a range table.
type CurveSet = ibis.CurveSet

// Matrix is a package model matrix.
type Matrix = ibis.Matrix

// PathItem is one element of a path description.
type PathItem = ibis.PathItem

// Severity for diagnostics.
type Severity = ibis.Severity

// Diagnostic is an advisory raised while parsing.
type Diagnostic = ibis.Diagnostic

// DiagnosticConfig controls advisory filtering and escalation.
type DiagnosticConfig = ibis.DiagnosticConfig

// Error is a parse failure with position and open sections.
type Error = ibis.Error

// Dialects.
const (
	DialectIBS = ibis.DialectIBS
	DialectPKG = ibis.DialectPKG
	DialectEBD = ibis.DialectEBD
)
