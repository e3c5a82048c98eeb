package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Header returns a minimal file header for a file called name.
func Header(name string) string {
	return "[IBIS Ver] 5.1\n" +
		"[File Name] " + name + "\n" +
		"[File Rev] 1.0\n"
}

// Document wraps body between a header and the final [End].
func Document(name string, body ...string) string {
	var b strings.Builder
	b.WriteString(Header(name))
	for _, s := range body {
		b.WriteString(s)
		if !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString("[End]\n")
	return b.String()
}

// Component returns a [Component] with one [Pin] row per pin/model pair.
func Component(name string, pinModels ...string) string {
	var b strings.Builder
	b.WriteString("[Component] " + name + "\n")
	b.WriteString("[Manufacturer] Acme\n")
	b.WriteString("[Package]\n")
	b.WriteString("R_pkg 0.1 NA NA\nL_pkg 1n NA NA\nC_pkg 1p NA NA\n")
	b.WriteString("[Pin] signal_name model_name\n")
	for i := 0; i+1 < len(pinModels); i += 2 {
		b.WriteString(pinModels[i] + " sig" + pinModels[i] + " " + pinModels[i+1] + "\n")
	}
	return b.String()
}

// InputModel returns an Input [Model] with explicit thresholds unless
// defaults is set.
func InputModel(name string, defaults bool) string {
	var b strings.Builder
	b.WriteString("[Model] " + name + "\n")
	b.WriteString("Model_type Input\n")
	if !defaults {
		b.WriteString("Vinl = 0.8\nVinh = 2.0\n")
	}
	b.WriteString("C_comp 1p NA NA\n")
	b.WriteString("[Voltage Range] 3.3 3.0 3.6\n")
	b.WriteString("[Pullup]\n-1.0 0.1 NA NA\n1.0 -0.1 NA NA\n")
	b.WriteString("[Pulldown]\n-1.0 -0.1 NA NA\n1.0 0.1 NA NA\n")
	return b.String()
}

// ReadFixture returns the content of testdata/name relative to the
// test's package directory.
func ReadFixture(t testing.TB, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}
