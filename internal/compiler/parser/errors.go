package parser

import (
	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

// ParseError records a parse diagnostic anchored at the offending token.
type ParseError struct {
	Code    string
	Message string
	Token   lexer.Token
}

// Diagnostic converts a ParseError to the shared diagnostic model.
func (e ParseError) Diagnostic() errors.Diagnostic {
	return errors.Diagnostic{
		Phase:    "parser",
		Code:     e.Code,
		Message:  e.Message,
		Severity: errors.Error,
		Location: errors.SourceLocation{
			File:      e.Token.Span.File,
			Line:      e.Token.Span.Line,
			Column:    e.Token.Span.Column,
			EndColumn: e.Token.Span.EndColumn,
		},
	}
}

// Diagnostics converts a ParseError slice to the shared diagnostic model.
func Diagnostics(errs []ParseError) []errors.Diagnostic {
	out := make([]errors.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Diagnostic())
	}
	return out
}
