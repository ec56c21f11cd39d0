package capability

import (
	"fmt"
	"sort"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// Scope selects whether enforcement checks declared capabilities at module
// granularity only, or per function as well.
type Scope string

const (
	ScopeModule   Scope = "module"
	ScopeFunction Scope = "function"
)

// Verdict is the result of enforcing a policy over an IR document. It is a
// pure function of (program, level, declared caps, approvals). Violation is
// nil on success; the first violating capability stops enforcement.
type Verdict struct {
	Level           int
	Required        []string
	Declared        []string
	Missing         []string
	ApprovalsNeeded []string
	Violation       *errors.Diagnostic
}

// OK reports whether enforcement passed.
func (v *Verdict) OK() bool {
	return v.Violation == nil
}

// requiredForExpr walks an expression for capability requirements beyond its
// statement's effects: an ask call anywhere adds io.read.
func requiredForExpr(e *ir.Expr, req map[string]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ir.ExprCall:
		if e.Callee == "ask" {
			req["io.read"] = true
		}
		for _, a := range e.Args {
			requiredForExpr(a, req)
		}
	case ir.ExprUnary:
		requiredForExpr(e.Expr, req)
	case ir.ExprBinary:
		requiredForExpr(e.Left, req)
		requiredForExpr(e.Right, req)
	}
}

func requiredForStmt(s *ir.Stmt, req map[string]bool) {
	for cap := range CapsForEffects(s.Effects) {
		req[cap] = true
	}
	requiredForExpr(s.Value, req)
	requiredForExpr(s.Cond, req)
	for _, x := range s.Then {
		requiredForStmt(x, req)
	}
	for _, x := range s.Else {
		requiredForStmt(x, req)
	}
	for _, x := range s.Body {
		requiredForStmt(x, req)
	}
}

// RequiredForFunction computes the capability set a function requires.
func RequiredForFunction(fn *ir.Function) map[string]bool {
	req := map[string]bool{"compute": true}
	for _, s := range fn.Body {
		requiredForStmt(s, req)
	}
	for cap := range CapsForEffects(fn.Effects) {
		req[cap] = true
	}
	return req
}

// RequiredForModule computes the capability set the whole module requires.
// The result always contains compute.
func RequiredForModule(doc *ir.IR) map[string]bool {
	req := map[string]bool{"compute": true}
	for _, s := range doc.Module.Toplevel {
		requiredForStmt(s, req)
	}
	for _, fn := range doc.Module.Functions {
		for cap := range RequiredForFunction(fn) {
			req[cap] = true
		}
	}
	return req
}

// Enforce checks an IR document against the policy for the given supervision
// level. The IR is never modified. Enforcement is fatal: the verdict carries
// the first violation as a structured diagnostic.
func Enforce(doc *ir.IR, level int, approvals map[string]bool, scope Scope) *Verdict {
	pol, ok := Policies[level]
	if !ok {
		v := &Verdict{Level: level}
		d := fatal(errors.ErrInternal,
			fmt.Sprintf("supervision level must be 1..4, got %d", level),
			"Pass --level 1..4.", "")
		v.Violation = &d
		return v
	}
	if approvals == nil {
		approvals = map[string]bool{}
	}

	mod := doc.Module
	declared := map[string]bool{"compute": true}
	for _, c := range Canonicalize(mod.Capabilities) {
		declared[c] = true
	}

	required := RequiredForModule(doc)

	verdict := &Verdict{
		Level:    level,
		Required: Sorted(required),
		Declared: Sorted(declared),
	}
	for _, c := range verdict.Required {
		if !declared[c] {
			verdict.Missing = append(verdict.Missing, c)
		}
		if pol.AllowedWithApproval[c] && !approvals[c] {
			verdict.ApprovalsNeeded = append(verdict.ApprovalsNeeded, c)
		}
	}

	// 1. Declared capabilities must be canonical.
	for _, c := range Sorted(declared) {
		if !Canonical[c] {
			d := fatal(errors.ErrUnknownCap,
				fmt.Sprintf("Unknown capability '%s' (no synonyms allowed).", c),
				fmt.Sprintf("Replace '%s' with a canonical capability: %v.", c, Sorted(Canonical)),
				mod.Origin.Ref)
			verdict.Violation = &d
			return verdict
		}
	}

	// 2–3. Declarations must cover requirements.
	if len(verdict.Missing) > 0 {
		d := fatal(errors.ErrModuleCaps,
			fmt.Sprintf("Missing declared capabilities %v. Program requires them but module.capabilities does not permit them.", verdict.Missing),
			"Add the missing capabilities to module.capabilities (or remove the operations requiring them).",
			mod.Origin.Ref)
		verdict.Violation = &d
		return verdict
	}

	// 4. Every required capability must be permitted by the level.
	for _, c := range verdict.Required {
		if d := checkCap(c, level, pol, approvals, mod.Origin.Ref); d != nil {
			verdict.Violation = d
			return verdict
		}
	}

	// 5. Function scope repeats the declaration and policy checks per
	// function against its own declared capabilities.
	if scope == ScopeFunction {
		for _, fn := range mod.Functions {
			declaredFn := map[string]bool{"compute": true}
			for _, c := range Canonicalize(fn.Capabilities) {
				declaredFn[c] = true
			}
			for _, c := range Sorted(declaredFn) {
				if !Canonical[c] {
					d := fatal(errors.ErrUnknownCap,
						fmt.Sprintf("Unknown capability '%s' (no synonyms allowed).", c),
						fmt.Sprintf("Replace '%s' with a canonical capability: %v.", c, Sorted(Canonical)),
						fn.Origin.Ref)
					verdict.Violation = &d
					return verdict
				}
			}

			requiredFn := RequiredForFunction(fn)
			missingFn := make([]string, 0)
			for _, c := range Sorted(requiredFn) {
				if !declaredFn[c] {
					missingFn = append(missingFn, c)
				}
			}
			sort.Strings(missingFn)
			if len(missingFn) > 0 {
				d := fatal(errors.ErrFunctionCaps,
					fmt.Sprintf("Function '%s' is missing declared capabilities %v.", fn.Name, missingFn),
					"Add missing caps to function.capabilities or remove the operations requiring them.",
					fn.Origin.Ref)
				verdict.Violation = &d
				return verdict
			}
			for _, c := range Sorted(requiredFn) {
				if d := checkCap(c, level, pol, approvals, fn.Origin.Ref); d != nil {
					verdict.Violation = d
					return verdict
				}
			}
		}
	}

	return verdict
}

func checkCap(cap string, level int, pol Policy, approvals map[string]bool, origin string) *errors.Diagnostic {
	if pol.Denied[cap] {
		d := fatal(errors.ErrCapDenied,
			fmt.Sprintf("Capability '%s' is denied at supervision level %d.", cap, level),
			"Increase supervision level or remove the operation requiring this capability.",
			origin)
		return &d
	}
	if pol.AllowedWithApproval[cap] && !approvals[cap] {
		d := fatal(errors.ErrCapNeedApproval,
			fmt.Sprintf("Capability '%s' requires explicit human approval (🔴) at supervision level %d.", cap, level),
			fmt.Sprintf("Provide approval for '%s', or refactor to avoid requiring it.", cap),
			origin)
		return &d
	}
	return nil
}

func fatal(code, msg, remediation, origin string) errors.Diagnostic {
	return errors.Diagnostic{
		Phase:       "capability",
		Code:        code,
		Message:     msg,
		Remediation: remediation,
		Severity:    errors.Fatal,
		OriginRef:   origin,
	}
}
