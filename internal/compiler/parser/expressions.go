package parser

import (
	"fmt"
	"strings"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

// Expression precedence, lowest to highest:
// equality (== !=) < comparison (< <= > >=) < additive (+ -) <
// multiplicative (* / %) < unary - < primary.

func (p *Parser) parseExpression() ast.Expr {
	return p.parseEquality()
}

func (p *Parser) parseEquality() ast.Expr {
	expr := p.parseComparison()
	for p.checkOp("==") || p.checkOp("!=") {
		op := p.advance()
		right := p.parseComparison()
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Loc: op.Span}
	}
	return expr
}

func (p *Parser) parseComparison() ast.Expr {
	expr := p.parseAdditive()
	for p.checkOp("<") || p.checkOp("<=") || p.checkOp(">") || p.checkOp(">=") {
		op := p.advance()
		right := p.parseAdditive()
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Loc: op.Span}
	}
	return expr
}

func (p *Parser) parseAdditive() ast.Expr {
	expr := p.parseMultiplicative()
	for p.checkOp("+") || p.checkOp("-") {
		op := p.advance()
		right := p.parseMultiplicative()
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Loc: op.Span}
	}
	return expr
}

func (p *Parser) parseMultiplicative() ast.Expr {
	expr := p.parseUnary()
	for p.checkOp("*") || p.checkOp("/") || p.checkOp("%") {
		op := p.advance()
		right := p.parseUnary()
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Loc: op.Span}
	}
	return expr
}

func (p *Parser) parseUnary() ast.Expr {
	if p.checkOp("-") {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.Unary{Op: "-", Expr: operand, Loc: op.Span}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_NUMBER:
		p.advance()
		kind := ast.LitInt
		if strings.Contains(tok.Lexeme, ".") {
			kind = ast.LitFloat
		}
		return &ast.Literal{Kind: kind, Lexeme: tok.Lexeme, Loc: tok.Span}

	case lexer.TOKEN_STRING:
		p.advance()
		return &ast.Literal{Kind: ast.LitText, Lexeme: tok.Lexeme, Loc: tok.Span}

	case lexer.TOKEN_KEYWORD:
		switch tok.Lexeme {
		case "true", "false":
			p.advance()
			return &ast.Literal{Kind: ast.LitBool, Lexeme: tok.Lexeme, Loc: tok.Span}
		case "null":
			p.advance()
			return &ast.Literal{Kind: ast.LitNull, Lexeme: tok.Lexeme, Loc: tok.Span}
		case "ask":
			p.advance()
			return p.parseCall(tok)
		}

	case lexer.TOKEN_IDENT:
		p.advance()
		if p.check(lexer.TOKEN_LPAREN) {
			return p.parseCall(tok)
		}
		return &ast.Var{Name: tok.Lexeme, Loc: tok.Span}

	case lexer.TOKEN_LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.consume(lexer.TOKEN_RPAREN, errors.ErrUnexpectedToken, "Expected ')' after expression")
		return &ast.Paren{Expr: inner, Loc: tok.Span}

	case lexer.TOKEN_EMOJI:
		// An emoji in expression position becomes a quoted Text literal.
		// A sentinel emoji directly before a string marks the string itself.
		p.advance()
		if p.check(lexer.TOKEN_STRING) {
			str := p.advance()
			return &ast.Literal{Kind: ast.LitText, Lexeme: str.Lexeme, Loc: str.Span}
		}
		return &ast.Literal{Kind: ast.LitText, Lexeme: `"` + tok.Lexeme + `"`, Loc: tok.Span}
	}

	p.error(tok, errors.ErrExpectedExpr, fmt.Sprintf("Expected an expression, got %q", tok.Lexeme))
	p.recover()
	return &ast.Literal{Kind: ast.LitNull, Lexeme: "null", Loc: tok.Span}
}

// parseCall parses '(' args? ')' after the callee token was consumed.
func (p *Parser) parseCall(callee lexer.Token) ast.Expr {
	p.consume(lexer.TOKEN_LPAREN, errors.ErrUnexpectedToken, "Expected '(' after callee")

	args := make([]ast.Expr, 0)
	if !p.check(lexer.TOKEN_RPAREN) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
	}
	p.consume(lexer.TOKEN_RPAREN, errors.ErrUnexpectedToken, "Expected ')' after arguments")

	return &ast.Call{Callee: callee.Lexeme, Args: args, Loc: callee.Span}
}

// parseTypeExpr parses a type expression: a primitive or nominal name, a
// generic application Base[Args...], and any number of '?' suffixes.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	tok := p.peek()

	if tok.Type != lexer.TOKEN_KEYWORD && tok.Type != lexer.TOKEN_IDENT {
		p.error(tok, errors.ErrExpectedTypeExpr, fmt.Sprintf("Expected a type, got %q", tok.Lexeme))
		p.recover()
		return nil
	}
	p.advance()

	var t ast.TypeExpr = &ast.TypeName{Name: tok.Lexeme, Loc: tok.Span}

	if p.match(lexer.TOKEN_LBRACK) {
		app := &ast.TypeApp{
			Base: &ast.TypeName{Name: tok.Lexeme, Loc: tok.Span},
			Args: make([]ast.TypeExpr, 0),
			Loc:  tok.Span,
		}
		if !p.check(lexer.TOKEN_RBRACK) {
			for {
				if arg := p.parseTypeExpr(); arg != nil {
					app.Args = append(app.Args, arg)
				}
				if !p.match(lexer.TOKEN_COMMA) {
					break
				}
			}
		}
		p.consume(lexer.TOKEN_RBRACK, errors.ErrUnexpectedToken, "Expected ']' after type arguments")
		t = app
	}

	for p.match(lexer.TOKEN_QMARK) {
		t = &ast.TypeOptional{Inner: t, Loc: tok.Span}
	}

	return t
}
