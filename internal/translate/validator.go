// Package translate validates that a translated HAND source differs from its
// base only in permitted windows: the description block's body, and string
// literals immediately preceded by the sentinel marker emoji.
package translate

import (
	"fmt"
	"strings"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

// Sentinel is the marker emoji that opens a translatable string literal.
const Sentinel = "🌐"

// DescriptionEmoji opens the description block's header line.
const DescriptionEmoji = "📖"

// Diagnostic codes.
const (
	CodeTokenMismatch  = "HND-TRANS-0001"
	CodeStreamTooShort = "HND-TRANS-0002"
)

// Validate compares base and candidate sources. It masks description bodies
// to empty strings on both sides, lexes both, then walks the token lists in
// lockstep; any divergence in token kind or value outside the permitted
// windows is returned as a violation with the candidate's span.
func Validate(base, candidate string) []errors.Diagnostic {
	maskedBase := maskDescriptions(base)
	maskedCand := maskDescriptions(candidate)

	baseToks, _ := lexer.New(maskedBase, "<base>").ScanTokens()
	candToks, _ := lexer.New(maskedCand, "<candidate>").ScanTokens()

	violations := make([]errors.Diagnostic, 0)

	n := len(baseToks)
	if len(candToks) < n {
		n = len(candToks)
	}

	for i := 0; i < n; i++ {
		b, c := baseToks[i], candToks[i]

		if b.Type == c.Type && b.Lexeme == c.Lexeme {
			continue
		}

		// A string divergence is permitted when the base string is opened by
		// the sentinel marker.
		if b.Type == lexer.TOKEN_STRING && c.Type == lexer.TOKEN_STRING &&
			i > 0 && isSentinel(baseToks[i-1]) && isSentinel(candToks[i-1]) {
			continue
		}

		violations = append(violations, violation(CodeTokenMismatch,
			fmt.Sprintf("Token %d diverges: base %s %q, candidate %s %q.",
				i, b.Type, b.Lexeme, c.Type, c.Lexeme),
			c.Span))
	}

	if len(baseToks) != len(candToks) {
		span := lexer.Span{File: "<candidate>", Line: 1, Column: 1}
		if len(candToks) > 0 {
			span = candToks[len(candToks)-1].Span
		}
		violations = append(violations, violation(CodeStreamTooShort,
			fmt.Sprintf("Token streams differ in length: base has %d, candidate has %d.",
				len(baseToks), len(candToks)),
			span))
	}

	return violations
}

func isSentinel(tok lexer.Token) bool {
	return tok.Type == lexer.TOKEN_EMOJI && tok.Lexeme == Sentinel
}

func violation(code, msg string, span lexer.Span) errors.Diagnostic {
	return errors.Diagnostic{
		Phase:    "translate",
		Code:     code,
		Message:  msg,
		Severity: errors.Error,
		Location: errors.SourceLocation{
			File:      span.File,
			Line:      span.Line,
			Column:    span.Column,
			EndColumn: span.EndColumn,
		},
	}
}

// maskDescriptions blanks the body of every description block: a block is
// opened by a line whose first token is the description emoji, its body is
// the following lines indented by at least 4 spaces, and it ends at a dedent
// to column 0 or at EOF. Line structure is preserved so spans stay aligned.
func maskDescriptions(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	kept := make([]string, 0, len(lines))
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if inBlock {
			// Body lines are dropped entirely so the two sides stay in
			// lockstep even when the rewritten body has a different shape.
			if strings.TrimSpace(line) == "" || indent >= 4 {
				continue
			}
			inBlock = false
		}

		if indent == 0 && strings.HasPrefix(trimmed, DescriptionEmoji) {
			inBlock = true
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
