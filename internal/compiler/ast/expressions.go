package ast

import "github.com/hand-lang/handc/internal/compiler/lexer"

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	exprNode()
}

// LitKind discriminates literal expressions.
type LitKind int

const (
	// LitInt is an integer literal.
	LitInt LitKind = iota
	// LitFloat is a floating-point literal.
	LitFloat
	// LitBool is true or false.
	LitBool
	// LitText is a quoted string literal (the lexeme keeps its quotes).
	LitText
	// LitNull is the null literal.
	LitNull
)

// String returns the canonical type name for a literal kind.
func (k LitKind) String() string {
	switch k {
	case LitInt:
		return "Int"
	case LitFloat:
		return "Float"
	case LitBool:
		return "Bool"
	case LitText:
		return "Text"
	case LitNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// Literal is a literal expression. Lexeme holds the source token text:
// digits for numbers, the quoted form for text, "true"/"false"/"null".
type Literal struct {
	Kind   LitKind
	Lexeme string
	Loc    lexer.Span
}

func (l *Literal) node()     {}
func (l *Literal) exprNode() {}

// Span returns the source span of the literal token.
func (l *Literal) Span() lexer.Span { return l.Loc }

// Var is a variable reference.
type Var struct {
	Name string
	Loc  lexer.Span
}

func (v *Var) node()     {}
func (v *Var) exprNode() {}

// Span returns the source span of the name.
func (v *Var) Span() lexer.Span { return v.Loc }

// Unary is a unary operation; only '-' exists in HAND Core v0.1.
type Unary struct {
	Op   string
	Expr Expr
	Loc  lexer.Span
}

func (u *Unary) node()     {}
func (u *Unary) exprNode() {}

// Span returns the source span of the operator.
func (u *Unary) Span() lexer.Span { return u.Loc }

// Binary is an arithmetic, comparison or equality operation.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	Loc   lexer.Span
}

func (b *Binary) node()     {}
func (b *Binary) exprNode() {}

// Span returns the source span of the operator.
func (b *Binary) Span() lexer.Span { return b.Loc }

// Call is a named call with ordered arguments.
type Call struct {
	Callee string
	Args   []Expr
	Loc    lexer.Span
}

func (c *Call) node()     {}
func (c *Call) exprNode() {}

// Span returns the source span of the callee name.
func (c *Call) Span() lexer.Span { return c.Loc }

// Paren is a parenthesized expression, kept so the formatter round-trips.
type Paren struct {
	Expr Expr
	Loc  lexer.Span
}

func (p *Paren) node()     {}
func (p *Paren) exprNode() {}

// Span returns the source span of the opening parenthesis.
func (p *Paren) Span() lexer.Span { return p.Loc }

// TypeExpr is the interface for type expressions.
type TypeExpr interface {
	Node
	typeNode()
}

// TypeName is a primitive or nominal record type name.
type TypeName struct {
	Name string
	Loc  lexer.Span
}

func (t *TypeName) node()     {}
func (t *TypeName) typeNode() {}

// Span returns the source span of the type name.
func (t *TypeName) Span() lexer.Span { return t.Loc }

// TypeApp is a generic application Base[Args...].
type TypeApp struct {
	Base *TypeName
	Args []TypeExpr
	Loc  lexer.Span
}

func (t *TypeApp) node()     {}
func (t *TypeApp) typeNode() {}

// Span returns the source span of the base name.
func (t *TypeApp) Span() lexer.Span { return t.Loc }

// TypeOptional is the suffix form T?.
type TypeOptional struct {
	Inner TypeExpr
	Loc   lexer.Span
}

func (t *TypeOptional) node()     {}
func (t *TypeOptional) typeNode() {}

// Span returns the source span of the inner type.
func (t *TypeOptional) Span() lexer.Span { return t.Loc }
