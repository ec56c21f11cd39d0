package typechecker

import (
	"fmt"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

// binding is one scope entry: a type plus the flow-refinement flag. Looking
// up a refined Optional yields its element type.
type binding struct {
	typ     *Type
	refined bool
}

// env is a stack of frames. Frames are logical copies when snapshotted, so
// refinement updates inside a branch never leak to the branching parent.
type env struct {
	frames []map[string]binding
}

func newEnv() *env {
	return &env{frames: []map[string]binding{{}}}
}

func (e *env) push() {
	e.frames = append(e.frames, map[string]binding{})
}

func (e *env) pop() {
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *env) lookup(name string) (binding, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if b, ok := e.frames[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// set updates the nearest existing binding, or declares in the top frame.
func (e *env) set(name string, b binding) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = b
			return
		}
	}
	e.frames[len(e.frames)-1][name] = b
}

func (e *env) clone() *env {
	frames := make([]map[string]binding, len(e.frames))
	for i, fr := range e.frames {
		cp := make(map[string]binding, len(fr))
		for k, v := range fr {
			cp[k] = v
		}
		frames[i] = cp
	}
	return &env{frames: frames}
}

// merge joins two branch environments frame by frame. Names absent from one
// side are dropped; present names take the per-name join, and refinement
// survives only when both branches proved it.
func merge(a, b *env) *env {
	n := len(a.frames)
	if len(b.frames) < n {
		n = len(b.frames)
	}
	frames := make([]map[string]binding, n)
	for i := 0; i < n; i++ {
		fr := make(map[string]binding)
		for name, ba := range a.frames[i] {
			if bb, ok := b.frames[i][name]; ok {
				fr[name] = binding{
					typ:     Join(ba.typ, bb.typ),
					refined: ba.refined && bb.refined,
				}
			}
		}
		frames[i] = fr
	}
	return &env{frames: frames}
}

// Checker performs flow-sensitive type checking over the AST. It returns
// diagnostics only and never mutates the tree.
type Checker struct {
	env     *env
	diags   []errors.Diagnostic
	retType *Type              // nil at top level
	funcs   map[string]*fnInfo // user-defined functions, collected up front
}

type fnInfo struct {
	params []*Type
	ret    *Type
}

// New creates a Checker.
func New() *Checker {
	return &Checker{
		env:   newEnv(),
		diags: make([]errors.Diagnostic, 0),
		funcs: make(map[string]*fnInfo),
	}
}

// Check typechecks a program and returns its diagnostics.
func (c *Checker) Check(program *ast.Program) []errors.Diagnostic {
	stmts := program.Statements()

	// Collect function signatures first so calls before definition resolve.
	for _, s := range stmts {
		if fn, ok := s.(*ast.FuncDef); ok {
			info := &fnInfo{ret: Any}
			for _, p := range fn.Params {
				if p.Type != nil {
					info.params = append(info.params, FromTypeExpr(p.Type))
				} else {
					info.params = append(info.params, Any)
				}
			}
			if fn.ReturnType != nil {
				info.ret = FromTypeExpr(fn.ReturnType)
			}
			c.funcs[fn.Name] = info
		}
	}

	for _, s := range stmts {
		c.checkStmt(s)
	}
	return c.diags
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		c.checkAssign(n)

	case *ast.ShowStmt:
		c.checkExpr(n.Value)

	case *ast.VerifyStmt:
		c.checkVerify(n)

	case *ast.ReturnStmt:
		c.checkReturn(n)

	case *ast.IfStmt:
		c.checkIf(n)

	case *ast.WhileStmt:
		c.checkWhile(n)

	case *ast.FuncDef:
		c.checkFuncDef(n)

	case *ast.ExprStmt:
		c.checkExpr(n.Expr)
	}
}

func (c *Checker) checkAssign(n *ast.AssignStmt) {
	valType := c.checkExpr(n.Value)

	if n.DeclaredType != nil {
		declared := FromTypeExpr(n.DeclaredType)
		if !valType.AssignableTo(declared) {
			c.errorAt(n.Span(), errors.ErrTypeMismatch,
				fmt.Sprintf("Cannot assign %s to %s '%s'.", valType, declared, n.Name))
		}
		c.env.set(n.Name, binding{typ: declared})
		return
	}

	// Re-assignment must stay within the existing declared type.
	if prev, ok := c.env.lookup(n.Name); ok {
		if !valType.AssignableTo(prev.typ) {
			c.errorAt(n.Span(), errors.ErrTypeMismatch,
				fmt.Sprintf("Cannot assign %s to %s '%s'.", valType, prev.typ, n.Name))
		}
		c.env.set(n.Name, binding{typ: prev.typ})
		return
	}

	c.env.set(n.Name, binding{typ: valType})
}

// checkVerify refines the verified name when the expression has the shape
// `v != null`, or is a bare optional `v`. Anything else is a type-level no-op.
func (c *Checker) checkVerify(n *ast.VerifyStmt) {
	c.checkExpr(n.Expr)

	if name, ok := refinableName(n.Expr); ok {
		if b, found := c.env.lookup(name); found && b.typ.Kind == KindOptional {
			c.env.set(name, binding{typ: b.typ, refined: true})
		}
	}
}

// refinableName extracts v from `v != null` or a bare `v`.
func refinableName(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case *ast.Var:
		return n.Name, true
	case *ast.Binary:
		if n.Op != "!=" {
			return "", false
		}
		v, okVar := n.Left.(*ast.Var)
		lit, okLit := n.Right.(*ast.Literal)
		if okVar && okLit && lit.Kind == ast.LitNull {
			return v.Name, true
		}
	}
	return "", false
}

func (c *Checker) checkReturn(n *ast.ReturnStmt) {
	if c.retType == nil {
		// Top-level return; the interpreter treats it as end-of-program.
		if n.Value != nil {
			c.checkExpr(n.Value)
		}
		return
	}

	if n.Value == nil {
		if c.retType.Kind != KindNull && c.retType.Kind != KindOptional {
			c.errorAt(n.Span(), errors.ErrBadReturn,
				fmt.Sprintf("Bare return requires a Null or Optional return type, not %s.", c.retType))
		}
		return
	}

	valType := c.checkExpr(n.Value)
	if !valType.AssignableTo(c.retType) {
		c.errorAt(n.Span(), errors.ErrBadReturn,
			fmt.Sprintf("Cannot return %s from a function declared to return %s.", valType, c.retType))
	}
}

func (c *Checker) checkIf(n *ast.IfStmt) {
	condType := c.checkExpr(n.Cond)
	if condType.Kind != KindBool && condType.Kind != KindAny {
		c.errorAt(n.Cond.Span(), errors.ErrCondNotBool,
			fmt.Sprintf("Condition must be Bool, got %s.", condType))
	}

	base := c.env
	thenEnv := base.clone()
	c.env = thenEnv
	for _, s := range n.Then {
		c.checkStmt(s)
	}

	elseEnv := base.clone()
	c.env = elseEnv
	for _, s := range n.Else {
		c.checkStmt(s)
	}

	c.env = merge(thenEnv, elseEnv)
}

func (c *Checker) checkWhile(n *ast.WhileStmt) {
	condType := c.checkExpr(n.Cond)
	if condType.Kind != KindBool && condType.Kind != KindAny {
		c.errorAt(n.Cond.Span(), errors.ErrCondNotBool,
			fmt.Sprintf("Condition must be Bool, got %s.", condType))
	}

	// The body runs zero or more times: check it in a throwaway sub-frame
	// and restore the snapshot, dropping refinements the body cannot keep.
	base := c.env
	bodyEnv := base.clone()
	bodyEnv.push()
	c.env = bodyEnv
	assigned := assignedNames(n.Body)
	for _, s := range n.Body {
		c.checkStmt(s)
	}
	c.env = base

	for name := range assigned {
		if b, ok := c.env.lookup(name); ok && b.refined {
			c.env.set(name, binding{typ: b.typ})
		}
	}
}

func assignedNames(stmts []ast.Stmt) map[string]bool {
	out := map[string]bool{}
	var walk func([]ast.Stmt)
	walk = func(ss []ast.Stmt) {
		for _, s := range ss {
			switch n := s.(type) {
			case *ast.AssignStmt:
				out[n.Name] = true
			case *ast.IfStmt:
				walk(n.Then)
				walk(n.Else)
			case *ast.WhileStmt:
				walk(n.Body)
			}
		}
	}
	walk(stmts)
	return out
}

func (c *Checker) checkFuncDef(n *ast.FuncDef) {
	outer := c.env
	outerRet := c.retType

	c.env = newEnv()
	info := c.funcs[n.Name]
	for i, p := range n.Params {
		t := Any
		if info != nil && i < len(info.params) {
			t = info.params[i]
		}
		c.env.set(p.Name, binding{typ: t})
	}
	if info != nil {
		c.retType = info.ret
	} else {
		c.retType = Any
	}

	for _, s := range n.Body {
		c.checkStmt(s)
	}

	c.env = outer
	c.retType = outerRet
}

// checkExpr computes the type of an expression, appending diagnostics for
// ill-typed operations. It returns Any on error so checking continues.
func (c *Checker) checkExpr(e ast.Expr) *Type {
	switch n := e.(type) {
	case *ast.Literal:
		return literalType(n)

	case *ast.Var:
		b, ok := c.env.lookup(n.Name)
		if !ok {
			c.errorAt(n.Span(), errors.ErrUndefinedVar,
				fmt.Sprintf("Undefined variable '%s'.", n.Name))
			return Any
		}
		if b.refined && b.typ.Kind == KindOptional {
			return b.typ.Args[0]
		}
		return b.typ

	case *ast.Unary:
		t := c.checkExpr(n.Expr)
		if t.Kind == KindAny {
			return Any
		}
		if !t.IsNumeric() {
			c.errorAt(n.Span(), errors.ErrNotNumeric,
				fmt.Sprintf("Unary '-' requires a numeric operand, got %s.", t))
			return Any
		}
		return t

	case *ast.Binary:
		return c.checkBinary(n)

	case *ast.Call:
		return c.checkCall(n)

	case *ast.Paren:
		return c.checkExpr(n.Expr)
	}
	return Any
}

func literalType(n *ast.Literal) *Type {
	switch n.Kind {
	case ast.LitInt:
		return Int
	case ast.LitFloat:
		return Float
	case ast.LitBool:
		return Bool
	case ast.LitText:
		return Text
	case ast.LitNull:
		return Null
	}
	return Any
}

func (c *Checker) checkBinary(n *ast.Binary) *Type {
	left := c.checkExpr(n.Left)
	right := c.checkExpr(n.Right)

	switch n.Op {
	case "==", "!=":
		// Equality accepts any pair; Null compared to anything is allowed.
		return Bool

	case "<", "<=", ">", ">=":
		if (left.IsNumeric() || left.Kind == KindAny) && (right.IsNumeric() || right.Kind == KindAny) {
			return Bool
		}
		c.errorAt(n.Span(), errors.ErrTypeMismatch,
			fmt.Sprintf("Comparison '%s' requires numeric operands, got %s and %s.", n.Op, left, right))
		return Bool

	case "+":
		if left.Kind == KindText && right.Kind == KindText {
			return Text
		}
		fallthrough

	case "-", "*", "%", "/":
		if left.Kind == KindAny || right.Kind == KindAny {
			if n.Op == "/" {
				return Float
			}
			return Any
		}
		if left.IsNumeric() && right.IsNumeric() {
			if n.Op == "/" {
				return Float
			}
			if left.Kind == KindFloat || right.Kind == KindFloat {
				return Float
			}
			return Int
		}
		c.errorAt(n.Span(), errors.ErrTypeMismatch,
			fmt.Sprintf("Operator '%s' cannot combine %s and %s.", n.Op, left, right))
		return Any
	}
	return Any
}

func (c *Checker) checkCall(n *ast.Call) *Type {
	argTypes := make([]*Type, 0, len(n.Args))
	for _, a := range n.Args {
		argTypes = append(argTypes, c.checkExpr(a))
	}

	switch n.Callee {
	case "ask":
		if len(n.Args) != 1 {
			c.errorAt(n.Span(), errors.ErrArity, "ask() takes exactly one prompt argument.")
		}
		return Text
	case "len":
		if len(n.Args) != 1 {
			c.errorAt(n.Span(), errors.ErrArity, "len() takes exactly one argument.")
		}
		return Int
	case "ok":
		if len(argTypes) == 1 {
			return Result(argTypes[0], Any)
		}
		c.errorAt(n.Span(), errors.ErrArity, "ok() takes exactly one argument.")
		return Result(Any, Any)
	case "err":
		if len(argTypes) == 1 {
			return Result(Any, argTypes[0])
		}
		c.errorAt(n.Span(), errors.ErrArity, "err() takes exactly one argument.")
		return Result(Any, Any)
	}

	if info, ok := c.funcs[n.Callee]; ok {
		if len(n.Args) != len(info.params) {
			c.errorAt(n.Span(), errors.ErrArity,
				fmt.Sprintf("Function '%s' expects %d argument(s), got %d.",
					n.Callee, len(info.params), len(n.Args)))
		} else {
			for i, at := range argTypes {
				if !at.AssignableTo(info.params[i]) {
					c.errorAt(n.Args[i].Span(), errors.ErrTypeMismatch,
						fmt.Sprintf("Argument %d of '%s': cannot pass %s where %s is expected.",
							i+1, n.Callee, at, info.params[i]))
				}
			}
		}
		return info.ret
	}

	c.errorAt(n.Span(), errors.ErrUnknownCallee,
		fmt.Sprintf("Unknown function '%s'.", n.Callee))
	return Any
}

func (c *Checker) errorAt(span lexer.Span, code, msg string) {
	c.diags = append(c.diags, errors.Diagnostic{
		Phase:    "typechecker",
		Code:     code,
		Message:  msg,
		Severity: errors.Error,
		Location: errors.SourceLocation{
			File:      span.File,
			Line:      span.Line,
			Column:    span.Column,
			EndColumn: span.EndColumn,
		},
	})
}
