package solgraph

import (
	"encoding/json"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one compiler message attached to a build: an error or
// warning from the errors array of build-tool output, or a warning this
// package raises itself, such as an unsupported compiler version.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`

	// Path, Start, End locate the message in source. Path is "" for
	// messages without a location.
	Path  string `json:"path,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type rawDiagnostic struct {
	SourceLocation *struct {
		File  string `json:"file"`
		Start *int   `json:"start"`
		End   *int   `json:"end"`
	} `json:"sourceLocation"`
	Type      string          `json:"type"`
	Severity  string          `json:"severity"`
	ErrorCode json.RawMessage `json:"errorCode"`
	Message   string          `json:"message"`
}

// parseDiagnostics decodes a build-tool errors array. Entries missing any
// of location, type, severity, code, or message are dropped; the compiler
// emits all five for real diagnostics, so partial entries are junk rather
// than signal.
func parseDiagnostics(raw []json.RawMessage) []Diagnostic {
	diags := make([]Diagnostic, 0, len(raw))
	for _, entry := range raw {
		var rd rawDiagnostic
		if err := json.Unmarshal(entry, &rd); err != nil {
			continue
		}
		if rd.SourceLocation == nil || rd.SourceLocation.File == "" ||
			rd.SourceLocation.Start == nil || rd.SourceLocation.End == nil {
			continue
		}
		if rd.Type == "" || rd.Severity == "" || len(rd.ErrorCode) == 0 || rd.Message == "" {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: normalizeSeverity(rd.Severity),
			Code:     decodeErrorCode(rd.ErrorCode),
			Message:  rd.Message,
			Path:     rd.SourceLocation.File,
			Start:    *rd.SourceLocation.Start,
			End:      *rd.SourceLocation.End,
		})
	}
	return diags
}

func normalizeSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// decodeErrorCode accepts the code as either a JSON string or a number;
// tool versions differ on which they emit.
func decodeErrorCode(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

// minSupportedVersion is the oldest compiler release emitting the modern
// AST shape. Earlier releases use the legacy attribute layout this package
// does not decode.
const minSupportedVersion = "0.4.12"

// checkVersion validates a build's compiler version. Versions older than
// the minimum fail with ErrUnsupportedVersion; the caller downgrades that
// to a warning diagnostic rather than rejecting the build. Unparseable
// version strings pass, since custom toolchains mangle the field freely.
func checkVersion(version string) error {
	v, ok := parseVersion(version)
	if !ok {
		return nil
	}
	min, _ := parseVersion(minSupportedVersion)
	for i := range v {
		if v[i] != min[i] {
			if v[i] < min[i] {
				return errors.Errorf("%w: %s predates %s", ErrUnsupportedVersion, version, minSupportedVersion)
			}
			return nil
		}
	}
	return nil
}

// parseVersion reads the leading "major.minor.patch" of a version string,
// ignoring any "+commit..." suffix.
func parseVersion(version string) ([3]int, bool) {
	core, _, _ := strings.Cut(version, "+")
	core, _, _ = strings.Cut(core, "-")
	parts := strings.Split(core, ".")
	if len(parts) < 3 {
		return [3]int{}, false
	}
	var v [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return [3]int{}, false
		}
		v[i] = n
	}
	return v, true
}

// versionDiagnostic wraps an unsupported-version error as the warning that
// lands on the build.
func versionDiagnostic(err error) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     "version",
		Message:  err.Error(),
	}
}
