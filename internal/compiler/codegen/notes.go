// Package codegen contains the HAND backends. Every backend consumes IR and
// returns deterministic artifact text plus degradation notes; IR outside a
// backend's accepted subset raises a structured, backend-coded error.
package codegen

import (
	"fmt"
	"sort"

	"github.com/hand-lang/handc/compiler/errors"
)

// Note is a backend degradation or info note.
type Note struct {
	Kind      string `json:"kind"` // "ERROR" | "WARN" | "INFO"
	Code      string `json:"code"`
	Message   string `json:"message"`
	OriginRef string `json:"origin_ref,omitempty"`
}

// BackendError signals IR outside the backend's accepted subset.
type BackendError struct {
	Note Note
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Note.Code, e.Note.Message)
}

// Diagnostic converts a backend error to the shared diagnostic model.
func (e *BackendError) Diagnostic() errors.Diagnostic {
	return errors.Diagnostic{
		Phase:     "backend",
		Code:      e.Note.Code,
		Message:   e.Note.Message,
		Severity:  errors.Error,
		OriginRef: e.Note.OriginRef,
	}
}

func backendErr(code, message, origin string) *BackendError {
	return &BackendError{Note: Note{Kind: "ERROR", Code: code, Message: message, OriginRef: origin}}
}

// SortNotes orders notes by origin reference, then code, so note lists are
// deterministic artifacts.
func SortNotes(notes []Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].OriginRef != notes[j].OriginRef {
			return notes[i].OriginRef < notes[j].OriginRef
		}
		return notes[i].Code < notes[j].Code
	})
}
