// Package errors defines the diagnostic model shared by every stage of the
// HAND toolchain. Diagnostics carry a stable code, a severity, a source span,
// an optional remediation hint and an optional IR origin reference.
package errors

import (
	"encoding/json"
	"fmt"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	switch str {
	case "warning":
		*s = Warning
	case "fatal":
		*s = Fatal
	default:
		*s = Error
	}
	return nil
}

// SourceLocation represents a location in HAND source code. Columns are
// 1-based; EndColumn is exclusive.
type SourceLocation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndColumn int    `json:"end_column,omitempty"`
}

// Diagnostic is a single stage-produced finding. Diagnostics are append-only:
// no stage revises another stage's list.
type Diagnostic struct {
	Phase       string         // "lexer", "parser", "typechecker", "capability", "runtime", "backend"
	Code        string         // "HND-LEX-0001", "WASM-0200", ...
	Message     string         // Human-readable message
	Remediation string         // Optional remediation hint
	Severity    Severity       // warning | error | fatal
	Location    SourceLocation // File, line, column
	OriginRef   string         // IR origin reference, when the producer has one
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		d.Location.File, d.Location.Line, d.Location.Column, d.Code, d.Message)
}

// New creates a Diagnostic for the given phase and code, with the catalog
// message unless overridden via WithMessage.
func New(phase, code string, severity Severity, location SourceLocation) Diagnostic {
	return Diagnostic{
		Phase:    phase,
		Code:     code,
		Message:  MessageFor(code),
		Severity: severity,
		Location: location,
	}
}

// WithMessage overrides the catalog message.
func (d Diagnostic) WithMessage(msg string) Diagnostic {
	d.Message = msg
	return d
}

// WithRemediation attaches a remediation hint.
func (d Diagnostic) WithRemediation(hint string) Diagnostic {
	d.Remediation = hint
	return d
}

// WithOrigin attaches an IR origin reference.
func (d Diagnostic) WithOrigin(ref string) Diagnostic {
	d.OriginRef = ref
	return d
}

// MarshalJSON implements json.Marshaler with a stable field order.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Phase       string         `json:"phase"`
		Code        string         `json:"code"`
		Severity    Severity       `json:"severity"`
		Message     string         `json:"message"`
		Remediation string         `json:"remediation,omitempty"`
		Location    SourceLocation `json:"location"`
		OriginRef   string         `json:"origin_ref,omitempty"`
	}{
		Phase:       d.Phase,
		Code:        d.Code,
		Severity:    d.Severity,
		Message:     d.Message,
		Remediation: d.Remediation,
		Location:    d.Location,
		OriginRef:   d.OriginRef,
	})
}

// IsError returns true at Error or Fatal severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == Error || d.Severity == Fatal
}

// IsFatal returns true at Fatal severity.
func (d Diagnostic) IsFatal() bool {
	return d.Severity == Fatal
}

// HasErrors reports whether any diagnostic in the list is Error or Fatal.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}
