// Package format renders an AST back to canonical HAND source. Formatting is
// idempotent: parsing the formatted text yields a structurally identical AST.
package format

import (
	"strings"

	"github.com/hand-lang/handc/internal/compiler/ast"
)

const indent = "    "

// Program formats a whole program, ending with a final newline.
func Program(p *ast.Program) string {
	var b strings.Builder
	for _, item := range p.Items {
		switch n := item.(type) {
		case *ast.Section:
			writeSection(&b, n, 0)
		case ast.Stmt:
			writeStmt(&b, n, 0)
		}
	}
	if b.Len() == 0 {
		return "\n"
	}
	return b.String()
}

func writeSection(b *strings.Builder, sec *ast.Section, level int) {
	pad := strings.Repeat(indent, level)
	line := strings.TrimRight(pad+sec.Emoji+" "+sec.Header, " ")
	if sec.HasColon {
		line += ":"
	}
	b.WriteString(line + "\n")
	for _, st := range sec.Body {
		writeStmt(b, st, level+1)
	}
}

func writeStmt(b *strings.Builder, st ast.Stmt, level int) {
	pad := strings.Repeat(indent, level)

	switch n := st.(type) {
	case *ast.FuncDef:
		params := make([]string, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, formatParam(p))
		}
		head := pad + n.Marker + " "
		if n.Label != "" {
			head += n.Label + " "
		}
		head += n.Name + "(" + strings.Join(params, ", ") + ")"
		if n.ReturnType != nil {
			head += " -> " + Type(n.ReturnType)
		}
		b.WriteString(head + ":\n")
		for _, s := range n.Body {
			writeStmt(b, s, level+1)
		}

	case *ast.IfStmt:
		b.WriteString(pad + "if " + Expr(n.Cond) + ":\n")
		for _, s := range n.Then {
			writeStmt(b, s, level+1)
		}
		if n.Else != nil {
			b.WriteString(pad + "else:\n")
			for _, s := range n.Else {
				writeStmt(b, s, level+1)
			}
		}

	case *ast.WhileStmt:
		b.WriteString(pad + "while " + Expr(n.Cond) + ":\n")
		for _, s := range n.Body {
			writeStmt(b, s, level+1)
		}

	case *ast.ReturnStmt:
		if n.Value == nil {
			b.WriteString(pad + "return\n")
		} else {
			b.WriteString(pad + "return " + Expr(n.Value) + "\n")
		}

	case *ast.ShowStmt:
		b.WriteString(pad + "show " + Expr(n.Value) + "\n")

	case *ast.VerifyStmt:
		b.WriteString(pad + "🔍 " + Expr(n.Expr) + "\n")

	case *ast.AssignStmt:
		line := pad + n.Name
		if n.DeclaredType != nil {
			line += ": " + Type(n.DeclaredType)
		}
		line += " = " + Expr(n.Value)
		b.WriteString(line + "\n")

	case *ast.ExprStmt:
		b.WriteString(pad + Expr(n.Expr) + "\n")
	}
}

func formatParam(p *ast.Param) string {
	if p.Type == nil {
		return p.Name
	}
	return p.Name + ": " + Type(p.Type)
}

// Type formats a type expression.
func Type(t ast.TypeExpr) string {
	switch n := t.(type) {
	case *ast.TypeName:
		return n.Name
	case *ast.TypeOptional:
		return Type(n.Inner) + "?"
	case *ast.TypeApp:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, Type(a))
		}
		return n.Base.Name + "[" + strings.Join(args, ", ") + "]"
	}
	return ""
}

// Expr formats an expression.
func Expr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Lexeme
	case *ast.Var:
		return n.Name
	case *ast.Unary:
		return n.Op + Expr(n.Expr)
	case *ast.Binary:
		return Expr(n.Left) + " " + n.Op + " " + Expr(n.Right)
	case *ast.Call:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, Expr(a))
		}
		return n.Callee + "(" + strings.Join(args, ", ") + ")"
	case *ast.Paren:
		return "(" + Expr(n.Expr) + ")"
	}
	return ""
}
