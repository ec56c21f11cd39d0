package errors

import (
	"encoding/json"
)

// JSONOutput is the structure emitted by --json-diagnostics.
type JSONOutput struct {
	Status   string       `json:"status"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	Summary  Summary      `json:"summary"`
}

// Summary contains error and warning counts.
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// FormatAsJSON renders a diagnostic list as indented JSON, splitting errors
// from warnings and computing an overall status.
func FormatAsJSON(diags []Diagnostic) (string, error) {
	errorList := make([]Diagnostic, 0)
	warningList := make([]Diagnostic, 0)

	for _, d := range diags {
		if d.IsError() {
			errorList = append(errorList, d)
		} else {
			warningList = append(warningList, d)
		}
	}

	status := "success"
	if len(errorList) > 0 {
		status = "error"
	} else if len(warningList) > 0 {
		status = "warning"
	}

	output := JSONOutput{
		Status:   status,
		Errors:   errorList,
		Warnings: warningList,
		Summary: Summary{
			ErrorCount:   len(errorList),
			WarningCount: len(warningList),
			TotalCount:   len(diags),
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
