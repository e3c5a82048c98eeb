// Package testutil provides parse helpers and assertions for tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/dialect"
	"github.com/goibis/goibis/internal/parser"
)

// Parse parses text in dialect d and fails the test on error.
func Parse(t testing.TB, d ibis.Dialect, text string) (*ibis.Node, []ibis.Diagnostic) {
	t.Helper()
	root, diags, err := TryParse(d, text, ibis.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, root)
	return root, diags
}

// TryParse parses text in dialect d under cfg.
func TryParse(d ibis.Dialect, text string, cfg ibis.DiagnosticConfig) (*ibis.Node, []ibis.Diagnostic, error) {
	g, err := dialect.For(d)
	if err != nil {
		return nil, nil, err
	}
	p := parser.New(g, "test"+d.Ext(), nil, cfg)
	root, err := p.Parse(context.Background(), strings.NewReader(text))
	return root, p.Diagnostics(), err
}

// ParseError parses text in dialect d and requires a failure wrapping
// sentinel. It returns the *ibis.Error for further checks.
func ParseError(t testing.TB, d ibis.Dialect, text string, sentinel error) *ibis.Error {
	t.Helper()
	_, _, err := TryParse(d, text, ibis.DefaultConfig())
	require.Error(t, err)
	require.Truef(t, errors.Is(err, sentinel), "want %v, got %v", sentinel, err)
	e, ok := ibis.AsError(err)
	require.Truef(t, ok, "error %T is not *ibis.Error", err)
	return e
}

// Diagnostic returns the first diagnostic with code and fails the test
// when there is none.
func Diagnostic(t testing.TB, diags []ibis.Diagnostic, code string) ibis.Diagnostic {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return d
		}
	}
	require.Failf(t, "diagnostic not found", "no %q among %v", code, diags)
	return ibis.Diagnostic{}
}

// NoDiagnostic fails the test when a diagnostic with code is present.
func NoDiagnostic(t testing.TB, diags []ibis.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			require.Failf(t, "unexpected diagnostic", "%v", d)
		}
	}
}
