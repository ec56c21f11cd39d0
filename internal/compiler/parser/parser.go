// Package parser transforms a HAND token stream into an AST using
// layout-sensitive recursive descent. The parser never aborts: every error is
// recorded against the offending token and scanning advances by one token, so
// a broken program still yields a best-effort AST plus diagnostics.
package parser

import (
	"fmt"
	"strings"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

const (
	markerFuncA  = "🔧"
	markerFuncB  = "🛠"
	markerVerify = "🔍"
)

// Parser transforms a stream of tokens into an Abstract Syntax Tree
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ParseError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		errors:  make([]ParseError, 0),
	}
}

// Parse parses the token stream and returns the AST and any errors
func (p *Parser) Parse() (*ast.Program, []ParseError) {
	program := &ast.Program{Items: make([]ast.Item, 0)}

	for !p.isAtEnd() {
		if p.match(lexer.TOKEN_NEWLINE) {
			continue
		}
		if item := p.parseItem(); item != nil {
			program.Items = append(program.Items, item)
		}
	}

	return program, p.errors
}

// parseItem parses one top-level item: a section, a function definition, or
// a statement followed by its NEWLINE.
func (p *Parser) parseItem() ast.Item {
	tok := p.peek()

	if tok.Type == lexer.TOKEN_EMOJI {
		switch tok.Lexeme {
		case markerFuncA, markerFuncB:
			return p.parseFuncDef()
		case markerVerify:
			stmt := p.parseVerify()
			p.endOfStatement()
			return stmt
		default:
			return p.parseSection()
		}
	}

	stmt := p.parseStatement()
	if !endsWithBlock(stmt) {
		p.endOfStatement()
	}
	return stmt
}

// endsWithBlock reports whether a statement consumed an indented block, whose
// final NEWLINE precedes the closing DEDENT.
func endsWithBlock(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FuncDef, *ast.IfStmt, *ast.WhileStmt:
		return true
	}
	return false
}

// parseSection parses an emoji-headed section. The header is every token up
// to the colon or newline, joined by single spaces.
func (p *Parser) parseSection() *ast.Section {
	emoji := p.advance()

	header := make([]string, 0, 2)
	for !p.check(lexer.TOKEN_COLON) && !p.check(lexer.TOKEN_NEWLINE) && !p.isAtEnd() {
		header = append(header, p.advance().Lexeme)
	}

	sec := &ast.Section{
		Emoji:  emoji.Lexeme,
		Header: strings.Join(header, " "),
		Loc:    emoji.Span,
	}

	if p.match(lexer.TOKEN_COLON) {
		sec.HasColon = true
	}
	p.endOfStatement()

	if sec.HasColon && p.check(lexer.TOKEN_INDENT) {
		sec.Body = p.parseBlockAfterIndent()
	}

	return sec
}

// parseFuncDef parses 🔧/🛠 [label] name(params) [-> Type]: block
func (p *Parser) parseFuncDef() *ast.FuncDef {
	marker := p.advance()

	fn := &ast.FuncDef{
		Marker: marker.Lexeme,
		Params: make([]*ast.Param, 0),
		Loc:    marker.Span,
	}

	first := p.consume(lexer.TOKEN_IDENT, errors.ErrExpectedName, "Expected function name")
	if first == nil {
		p.recover()
		return fn
	}

	// An optional label word may precede the name: 🔧 FUNCIÓN add(...)
	if p.check(lexer.TOKEN_IDENT) {
		fn.Label = first.Lexeme
		fn.Name = p.advance().Lexeme
	} else {
		fn.Name = first.Lexeme
	}

	if p.consume(lexer.TOKEN_LPAREN, errors.ErrUnexpectedToken, "Expected '(' after function name") == nil {
		p.recover()
		return fn
	}

	if !p.check(lexer.TOKEN_RPAREN) {
		for {
			name := p.consume(lexer.TOKEN_IDENT, errors.ErrExpectedName, "Expected parameter name")
			if name == nil {
				break
			}
			param := &ast.Param{Name: name.Lexeme, Loc: name.Span}
			if p.match(lexer.TOKEN_COLON) {
				param.Type = p.parseTypeExpr()
			}
			fn.Params = append(fn.Params, param)
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
	}
	p.consume(lexer.TOKEN_RPAREN, errors.ErrUnexpectedToken, "Expected ')' after parameters")

	if p.checkOp("->") {
		p.advance()
		fn.ReturnType = p.parseTypeExpr()
	}

	fn.Body = p.parseBlock()
	return fn
}

// parseStatement parses a single statement. The trailing NEWLINE is consumed
// by the caller.
func (p *Parser) parseStatement() ast.Stmt {
	tok := p.peek()

	switch {
	case tok.Type == lexer.TOKEN_EMOJI && (tok.Lexeme == markerFuncA || tok.Lexeme == markerFuncB):
		return p.parseFuncDef()

	case tok.Type == lexer.TOKEN_EMOJI && tok.Lexeme == markerVerify:
		return p.parseVerify()

	case tok.Type == lexer.TOKEN_KEYWORD:
		switch tok.Lexeme {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "return":
			return p.parseReturn()
		case "show":
			return p.parseShow()
		}

	case tok.Type == lexer.TOKEN_IDENT:
		if tok.Lexeme == "verify" && !p.checkNext(lexer.TOKEN_EQ) && !p.checkNext(lexer.TOKEN_COLON) {
			return p.parseVerify()
		}
		if p.checkNext(lexer.TOKEN_EQ) || p.checkNext(lexer.TOKEN_COLON) {
			return p.parseAssign()
		}
	}

	loc := tok.Span
	expr := p.parseExpression()
	return &ast.ExprStmt{Expr: expr, Loc: loc}
}

func (p *Parser) parseIf() ast.Stmt {
	kw := p.advance()
	cond := p.parseExpression()
	stmt := &ast.IfStmt{Cond: cond, Loc: kw.Span}
	stmt.Then = p.parseBlock()

	if p.checkKeyword("else") {
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	kw := p.advance()
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Loc: kw.Span}
}

func (p *Parser) parseReturn() ast.Stmt {
	kw := p.advance()
	stmt := &ast.ReturnStmt{Loc: kw.Span}
	if !p.check(lexer.TOKEN_NEWLINE) && !p.isAtEnd() {
		stmt.Value = p.parseExpression()
	}
	return stmt
}

func (p *Parser) parseShow() ast.Stmt {
	kw := p.advance()
	value := p.parseExpression()
	return &ast.ShowStmt{Value: value, Loc: kw.Span}
}

func (p *Parser) parseVerify() ast.Stmt {
	marker := p.advance()
	expr := p.parseExpression()
	return &ast.VerifyStmt{Expr: expr, Loc: marker.Span}
}

// parseAssign parses name [: Type] = expr
func (p *Parser) parseAssign() ast.Stmt {
	name := p.advance()
	stmt := &ast.AssignStmt{Name: name.Lexeme, Loc: name.Span}

	if p.match(lexer.TOKEN_COLON) {
		stmt.DeclaredType = p.parseTypeExpr()
	}

	if p.consume(lexer.TOKEN_EQ, errors.ErrUnexpectedToken, "Expected '=' in assignment") == nil {
		p.recover()
		return stmt
	}

	stmt.Value = p.parseExpression()
	return stmt
}

// parseBlock parses ':' NEWLINE INDENT stmts DEDENT.
func (p *Parser) parseBlock() []ast.Stmt {
	if p.consume(lexer.TOKEN_COLON, errors.ErrExpectedColon, "Expected ':' before block") == nil {
		p.recover()
		return nil
	}
	if p.consume(lexer.TOKEN_NEWLINE, errors.ErrUnexpectedToken, "Expected newline after ':'") == nil {
		p.recover()
		return nil
	}
	if !p.check(lexer.TOKEN_INDENT) {
		p.error(p.peek(), errors.ErrExpectedBlock, "Expected an indented block")
		return nil
	}
	return p.parseBlockAfterIndent()
}

// parseBlockAfterIndent parses INDENT stmts DEDENT with the INDENT pending.
func (p *Parser) parseBlockAfterIndent() []ast.Stmt {
	p.advance() // INDENT

	stmts := make([]ast.Stmt, 0)
	for !p.check(lexer.TOKEN_DEDENT) && !p.isAtEnd() {
		if p.match(lexer.TOKEN_NEWLINE) {
			continue
		}
		stmt := p.parseStatement()
		if !endsWithBlock(stmt) {
			p.endOfStatement()
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	p.match(lexer.TOKEN_DEDENT)
	return stmts
}

// endOfStatement consumes the statement-terminating NEWLINE. Function and
// control-flow statements end with a DEDENT whose NEWLINE was consumed by the
// inner block, so a missing NEWLINE before DEDENT/EOF is fine.
func (p *Parser) endOfStatement() {
	if p.match(lexer.TOKEN_NEWLINE) {
		return
	}
	if p.check(lexer.TOKEN_DEDENT) || p.isAtEnd() {
		return
	}
	p.error(p.peek(), errors.ErrUnexpectedToken,
		fmt.Sprintf("Unexpected token %q after statement", p.peek().Lexeme))
	p.advance()
}

// Helper methods

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TOKEN_EOF
}

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() lexer.Token {
	if p.current+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current+1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	return p.peekNext().Type == t
}

func (p *Parser) checkOp(op string) bool {
	tok := p.peek()
	return tok.Type == lexer.TOKEN_OP && tok.Lexeme == op
}

func (p *Parser) checkKeyword(kw string) bool {
	tok := p.peek()
	return tok.Type == lexer.TOKEN_KEYWORD && tok.Lexeme == kw
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// consume advances past a token of the expected type, or records an error
// and returns nil.
func (p *Parser) consume(t lexer.TokenType, code, msg string) *lexer.Token {
	if p.check(t) {
		tok := p.advance()
		return &tok
	}
	p.error(p.peek(), code, msg)
	return nil
}

func (p *Parser) error(tok lexer.Token, code, msg string) {
	p.errors = append(p.errors, ParseError{Code: code, Message: msg, Token: tok})
}

// recover advances one token so the parser makes progress after an error.
func (p *Parser) recover() {
	if !p.isAtEnd() {
		p.advance()
	}
}
