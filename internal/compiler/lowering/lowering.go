// Package lowering translates a HAND AST into HAND-IR v0.1.0. A
// deterministic pre-order traversal assigns each constructed node a
// monotonically increasing identifier N1, N2, …; the identifier source is
// local to one Lower call, never process-wide.
//
// Origin references have the shape [Stage][Emoji][NodeId].[SubId], where the
// stage is AST for user-authored nodes and Lowering for synthesized ones, and
// the emoji is the canonical marker for the node's role.
package lowering

import (
	"fmt"

	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/capability"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// Role emoji for origin references.
const (
	emojiModule   = "🎬"
	emojiAssign   = "📝"
	emojiExpr     = "🧩"
	emojiShow     = "📤"
	emojiVerify   = "🔍"
	emojiIf       = "🧭"
	emojiWhile    = "🔁"
	emojiReturn   = "↩️"
	emojiFunction = "🛠"
	emojiParam    = "🏷️"
)

// Lowerer holds the per-call identifier counter.
type Lowerer struct {
	nextID int
}

// New creates a Lowerer.
func New() *Lowerer {
	return &Lowerer{}
}

// Lower lowers a program to IR. The module's capability list is derived from
// the lowered statements (effect-mapped, expression-walked, compute always
// included) and sorted.
func Lower(program *ast.Program, moduleName string) *ir.IR {
	return New().Lower(program, moduleName)
}

// Lower lowers a program to IR using this Lowerer's counter.
func (l *Lowerer) Lower(program *ast.Program, moduleName string) *ir.IR {
	module := &ir.Module{
		Name:      moduleName,
		Semver:    "0.1.0",
		Functions: make([]*ir.Function, 0),
		Toplevel:  make([]*ir.Stmt, 0),
		Types:     make([]*ir.RecordDecl, 0),
		Origin:    l.origin("Lowering", emojiModule, ir.ActorSystem),
	}

	for _, stmt := range program.Statements() {
		if fn, ok := stmt.(*ast.FuncDef); ok {
			module.Functions = append(module.Functions, l.lowerFunction(fn))
			continue
		}
		module.Toplevel = append(module.Toplevel, l.lowerStmt(stmt))
	}

	doc := &ir.IR{
		IRVersion: ir.Version,
		Origin:    module.Origin,
		Module:    module,
	}

	// Declared capabilities default to exactly what the program requires;
	// a backward-compatibility pass canonicalizes any shorthand names.
	module.Capabilities = capability.Sorted(capability.RequiredForModule(doc))
	module.Capabilities = capability.Canonicalize(module.Capabilities)

	return doc
}

func (l *Lowerer) id() int {
	l.nextID++
	return l.nextID
}

func (l *Lowerer) origin(stage, emoji, actor string) ir.Origin {
	return ir.Origin{
		Actor: actor,
		Ref:   fmt.Sprintf("[%s][%s][N%d].1", stage, emoji, l.id()),
	}
}

func (l *Lowerer) userOrigin(emoji string) ir.Origin {
	return l.origin("AST", emoji, ir.ActorHuman)
}

func (l *Lowerer) lowerFunction(fn *ast.FuncDef) *ir.Function {
	out := &ir.Function{
		Name:   fn.Name,
		Params: make([]*ir.Param, 0, len(fn.Params)),
		Body:   make([]*ir.Stmt, 0, len(fn.Body)),
		Origin: l.userOrigin(emojiFunction),
	}

	for _, p := range fn.Params {
		out.Params = append(out.Params, &ir.Param{
			Name:   p.Name,
			Type:   LowerType(p.Type),
			Origin: l.userOrigin(emojiParam),
		})
	}
	if fn.ReturnType != nil {
		out.RetType = LowerType(fn.ReturnType)
	}
	for _, s := range fn.Body {
		out.Body = append(out.Body, l.lowerStmt(s))
	}

	// Union the body's effects and capabilities, sorted and de-duplicated.
	effects := map[string]bool{}
	var collect func(ss []*ir.Stmt)
	collect = func(ss []*ir.Stmt) {
		for _, s := range ss {
			for _, e := range s.Effects {
				effects[e] = true
			}
			collect(s.Then)
			collect(s.Else)
			collect(s.Body)
		}
	}
	collect(out.Body)
	out.Effects = capability.Sorted(effects)
	out.Capabilities = capability.Sorted(capability.RequiredForFunction(out))

	return out
}

func (l *Lowerer) lowerStmt(s ast.Stmt) *ir.Stmt {
	switch n := s.(type) {
	case *ast.AssignStmt:
		out := &ir.Stmt{
			Kind:   ir.StmtAssign,
			Name:   n.Name,
			Origin: l.userOrigin(emojiAssign),
		}
		out.DeclaredType = LowerType(n.DeclaredType)
		out.Value = l.lowerExpr(n.Value)
		l.finish(out, nil)
		return out

	case *ast.ShowStmt:
		out := &ir.Stmt{Kind: ir.StmtShow, Origin: l.userOrigin(emojiShow)}
		out.Value = l.lowerExpr(n.Value)
		l.finish(out, []string{"io.show"})
		return out

	case *ast.VerifyStmt:
		out := &ir.Stmt{Kind: ir.StmtVerify, Origin: l.userOrigin(emojiVerify)}
		out.Value = l.lowerExpr(n.Expr)
		l.finish(out, []string{"contract.verify"})
		return out

	case *ast.ReturnStmt:
		out := &ir.Stmt{Kind: ir.StmtReturn, Origin: l.userOrigin(emojiReturn)}
		if n.Value != nil {
			out.Value = l.lowerExpr(n.Value)
		}
		l.finish(out, []string{"control.return"})
		return out

	case *ast.IfStmt:
		out := &ir.Stmt{Kind: ir.StmtIf, Origin: l.userOrigin(emojiIf)}
		out.Cond = l.lowerExpr(n.Cond)
		out.Then = make([]*ir.Stmt, 0, len(n.Then))
		for _, s := range n.Then {
			out.Then = append(out.Then, l.lowerStmt(s))
		}
		if n.Else != nil {
			out.Else = make([]*ir.Stmt, 0, len(n.Else))
			for _, s := range n.Else {
				out.Else = append(out.Else, l.lowerStmt(s))
			}
		}
		l.finish(out, nil)
		return out

	case *ast.WhileStmt:
		out := &ir.Stmt{Kind: ir.StmtWhile, Origin: l.userOrigin(emojiWhile)}
		out.Cond = l.lowerExpr(n.Cond)
		out.Body = make([]*ir.Stmt, 0, len(n.Body))
		for _, s := range n.Body {
			out.Body = append(out.Body, l.lowerStmt(s))
		}
		l.finish(out, nil)
		return out

	case *ast.ExprStmt:
		out := &ir.Stmt{Kind: ir.StmtExpr, Origin: l.userOrigin(emojiExpr)}
		out.Value = l.lowerExpr(n.Expr)
		l.finish(out, nil)
		return out
	}

	// Unreachable for a well-formed AST.
	out := &ir.Stmt{Kind: ir.StmtExpr, Origin: l.origin("Lowering", emojiExpr, ir.ActorMachine)}
	l.finish(out, nil)
	return out
}

// finish sets a statement's effects and effect-derived capabilities with
// non-nil, sorted slices.
func (l *Lowerer) finish(s *ir.Stmt, effects []string) {
	if effects == nil {
		effects = []string{}
	}
	s.Effects = effects

	caps := map[string]bool{}
	for _, e := range effects {
		if cap, ok := capability.EffectToCap[e]; ok {
			caps[cap] = true
		}
	}
	s.Capabilities = capability.Sorted(caps)
}

func (l *Lowerer) lowerExpr(e ast.Expr) *ir.Expr {
	if e == nil {
		return nil
	}

	switch n := e.(type) {
	case *ast.Literal:
		return &ir.Expr{
			Kind:   ir.ExprLit,
			Value:  n.Lexeme,
			Type:   ir.NewType(n.Kind.String()),
			Origin: l.userOrigin(emojiExpr),
		}

	case *ast.Var:
		return &ir.Expr{Kind: ir.ExprVar, Name: n.Name, Origin: l.userOrigin(emojiExpr)}

	case *ast.Unary:
		out := &ir.Expr{Kind: ir.ExprUnary, Op: n.Op, Origin: l.userOrigin(emojiExpr)}
		out.Expr = l.lowerExpr(n.Expr)
		return out

	case *ast.Binary:
		out := &ir.Expr{Kind: ir.ExprBinary, Op: n.Op, Origin: l.userOrigin(emojiExpr)}
		out.Left = l.lowerExpr(n.Left)
		out.Right = l.lowerExpr(n.Right)
		return out

	case *ast.Call:
		out := &ir.Expr{
			Kind:   ir.ExprCall,
			Callee: n.Callee,
			Args:   make([]*ir.Expr, 0, len(n.Args)),
			Origin: l.userOrigin(emojiExpr),
		}
		for _, a := range n.Args {
			out.Args = append(out.Args, l.lowerExpr(a))
		}
		return out

	case *ast.Paren:
		// Parentheses carry no IR meaning; precedence is structural.
		return l.lowerExpr(n.Expr)
	}
	return nil
}

// LowerType lowers an AST type expression to the IR type encoding. Nominal
// names that are not known generics become Record types. Returns nil for a
// nil input.
func LowerType(te ast.TypeExpr) *ir.Type {
	if te == nil {
		return nil
	}

	switch n := te.(type) {
	case *ast.TypeName:
		return lowerTypeName(n.Name, []*ir.Type{})
	case *ast.TypeOptional:
		return ir.NewType("Optional", LowerType(n.Inner))
	case *ast.TypeApp:
		args := make([]*ir.Type, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, LowerType(a))
		}
		return lowerTypeName(n.Base.Name, args)
	}
	return nil
}

func lowerTypeName(name string, args []*ir.Type) *ir.Type {
	switch name {
	case "Int", "Float", "Bool", "Text", "Null", "Any", "Never":
		return ir.NewType(name)
	case "Optional", "List", "Map", "Result":
		t := ir.NewType(name)
		t.Args = args
		return t
	default:
		t := ir.NewType("Record")
		t.Name = name
		return t
	}
}
