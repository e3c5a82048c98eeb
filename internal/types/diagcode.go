package types

// Diagnostic codes for advisories raised while parsing.
// Centralizing these prevents silent breakage from typos in string literals.

// Driver diagnostic codes.
const (
	DiagUnknownExtension = "unknown-extension"
	DiagCommentChar      = "comment-char-changed"
)

// Validator diagnostic codes.
const (
	DiagThresholdDefault   = "threshold-default"
	DiagModelTypeRenamed   = "model-type-renamed"
	DiagInvReceiverIgnored = "inv-receiver-ignored"
)

// AllDiagnosticCodes returns all known diagnostic codes grouped by phase.
func AllDiagnosticCodes() []DiagCodeInfo {
	return []DiagCodeInfo{
		{Code: DiagUnknownExtension, Phase: "driver"},
		{Code: DiagCommentChar, Phase: "driver"},
		{Code: DiagThresholdDefault, Phase: "validator"},
		{Code: DiagModelTypeRenamed, Phase: "validator"},
		{Code: DiagInvReceiverIgnored, Phase: "validator"},
	}
}

// DiagCodeInfo describes a diagnostic code and the phase that emits it.
type DiagCodeInfo struct {
	Code  string
	Phase string
}
