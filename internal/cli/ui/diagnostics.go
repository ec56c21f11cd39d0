// Package ui renders toolchain output for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hand-lang/handc/compiler/errors"
)

// WriteDiagnostics renders a diagnostic list to the writer.
func WriteDiagnostics(w io.Writer, diags []errors.Diagnostic) {
	errorColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)

	errCount := 0
	for _, d := range diags {
		if d.IsError() {
			errCount++
		}
	}
	if errCount > 0 {
		errorColor.Fprintf(w, "\nCompilation failed with %d error(s):\n\n", errCount)
	}

	for i, d := range diags {
		painter := errorColor
		if d.Severity == errors.Warning {
			painter = warnColor
		}
		painter.Fprintf(w, "%d. [%s] %s %s:%d:%d\n",
			i+1, d.Phase, d.Code, d.Location.File, d.Location.Line, d.Location.Column)
		fmt.Fprintf(w, "   %s\n", d.Message)
		if d.Remediation != "" {
			fmt.Fprintf(w, "   → %s\n", d.Remediation)
		}
		if d.OriginRef != "" {
			fmt.Fprintf(w, "   origin: %s\n", d.OriginRef)
		}
		if i < len(diags)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 60))
		}
	}
	if len(diags) > 0 {
		fmt.Fprintln(w)
	}
}

// Success renders a bold green check line.
func Success(w io.Writer, format string, args ...interface{}) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Info renders a cyan informational line.
func Info(w io.Writer, format string, args ...interface{}) {
	cyan := color.New(color.FgCyan)
	cyan.Fprintf(w, format+"\n", args...)
}
