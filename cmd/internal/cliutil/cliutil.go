// Package cliutil provides shared CLI utilities for the goibis command.
package cliutil

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/goibis/goibis/ibis"
)

// GetOutput opens the output file or returns stdout.
func GetOutput(outputFile string) (*os.File, func(), error) {
	if outputFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{color.RedString("error:")}, args...)...)
}

// DisableColor turns off colored output for the whole process.
func DisableColor() { color.NoColor = true }

var severityColors = map[ibis.Severity]*color.Color{
	ibis.SeverityFatal:   color.New(color.FgRed, color.Bold),
	ibis.SeverityError:   color.New(color.FgRed),
	ibis.SeverityWarning: color.New(color.FgYellow),
	ibis.SeverityInfo:    color.New(color.FgCyan),
}

// SeverityLabel returns the severity name colored by severity.
func SeverityLabel(sev ibis.Severity) string {
	c, ok := severityColors[sev]
	if !ok {
		return sev.String()
	}
	return c.Sprint(sev.String())
}

// PrintDiagnostic writes one diagnostic as "source:line: [severity] message (code)".
func PrintDiagnostic(w io.Writer, d ibis.Diagnostic) {
	loc := d.Source
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, d.Line)
	}
	fmt.Fprintf(w, "%s: [%s] %s %s\n", loc, SeverityLabel(d.Severity), d.Message, color.HiBlackString("(%s)", d.Code))
}

// PrintFailure writes a parse failure for source.
func PrintFailure(w io.Writer, source string, err error) {
	if e, ok := ibis.AsError(err); ok {
		fmt.Fprintf(w, "%s: [%s] %s %s\n", source, SeverityLabel(ibis.SeverityFatal), e.Error(), color.HiBlackString("(%s)", e.Kind))
		return
	}
	fmt.Fprintf(w, "%s: [%s] %v\n", source, SeverityLabel(ibis.SeverityFatal), err)
}

// OK writes a success line for source.
func OK(w io.Writer, source string) {
	fmt.Fprintf(w, "%s: %s\n", source, color.GreenString("ok"))
}
