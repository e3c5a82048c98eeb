package ibis

import (
	"fmt"
	"strings"
)

// Severity levels for diagnostics. Lower values are more severe.
type Severity int

const (
	SeverityFatal   Severity = 0 // parsing stopped
	SeverityError   Severity = 1 // the document is invalid
	SeverityWarning Severity = 2 // a value was assumed or dropped
	SeverityInfo    Severity = 3 // informational notice
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// ParseSeverity maps a severity name to its value.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return SeverityFatal, nil
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return SeverityFatal, fmt.Errorf("unknown severity %q", s)
}

// Diagnostic is an advisory raised while parsing, such as a default
// threshold being assumed.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g., "threshold-default"
	Message  string
	Source   string // source name
	Line     int    // 1-based line number, 0 if not applicable
}

// String returns "[severity] source:line: message" with location parts
// omitted when empty.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Severity.String())
	b.WriteString("] ")
	if d.Source != "" {
		b.WriteString(d.Source)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
		}
		b.WriteString(": ")
	} else if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	b.WriteString(d.Message)
	return b.String()
}

// DiagnosticConfig controls diagnostic filtering and escalation.
type DiagnosticConfig struct {
	// FailAt sets the severity threshold for failure. A reported
	// diagnostic with severity <= FailAt aborts the parse.
	// Default (0) means fail on Fatal only, so advisories never fail.
	FailAt Severity

	// Overrides change severity for specific diagnostic codes.
	Overrides map[string]Severity

	// Ignore lists diagnostic codes to suppress entirely.
	// Supports glob patterns (e.g., "threshold-*").
	Ignore []string
}

// DefaultConfig reports every advisory and fails on none.
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{FailAt: SeverityFatal}
}

// StrictConfig promotes every warning to a failure.
func StrictConfig() DiagnosticConfig {
	return DiagnosticConfig{FailAt: SeverityWarning}
}

// Effective returns the severity of code after overrides.
func (c DiagnosticConfig) Effective(code string, sev Severity) Severity {
	if override, ok := c.Overrides[code]; ok {
		return override
	}
	return sev
}

// ShouldReport returns true if a diagnostic with the given code should be
// kept under this configuration.
func (c DiagnosticConfig) ShouldReport(code string) bool {
	for _, pattern := range c.Ignore {
		if MatchGlob(pattern, code) {
			return false
		}
	}
	return true
}

// ShouldFail returns true if a diagnostic with the given severity should
// abort the parse.
func (c DiagnosticConfig) ShouldFail(sev Severity) bool {
	return sev <= c.FailAt
}

// MatchGlob performs simple glob matching with a leading or trailing
// '*' wildcard.
func MatchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(s, pattern[:len(pattern)-1])
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(s, pattern[1:])
	}
	return pattern == s
}
