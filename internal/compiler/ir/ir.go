// Package ir defines HAND-IR v0.1.0, the toolchain's long-lived artifact and
// a public JSON contract. The struct layout is the serialization: field order
// is fixed, maps are never iterated, and re-serializing an IR yields the same
// bytes on any host.
package ir

import (
	"encoding/json"
	"fmt"
)

// Version is the only IR version this toolchain reads or writes.
const Version = "0.1.0"

// Actor values for origins.
const (
	ActorHuman   = "👤"
	ActorSystem  = "⭐"
	ActorMachine = "🤖"
)

// Origin identifies a node across stages. Ref has the shape
// "[Stage][Emoji][NodeId].[SubId]".
type Origin struct {
	Actor string `json:"actor"`
	Ref   string `json:"ref"`
}

// IR is the top-level document.
type IR struct {
	IRVersion string  `json:"ir_version"`
	Origin    Origin  `json:"origin"`
	Module    *Module `json:"module"`
}

// Module is an ordered container of functions, top-level statements, record
// type declarations and the sorted declared capability list.
type Module struct {
	Name         string        `json:"name"`
	Semver       string        `json:"semver"`
	Functions    []*Function   `json:"functions"`
	Toplevel     []*Stmt       `json:"toplevel"`
	Types        []*RecordDecl `json:"types"`
	Capabilities []string      `json:"capabilities"`
	Origin       Origin        `json:"origin"`
}

// Function is a lowered function definition.
type Function struct {
	Name         string   `json:"name"`
	Params       []*Param `json:"params"`
	RetType      *Type    `json:"ret_type,omitempty"`
	Body         []*Stmt  `json:"body"`
	Effects      []string `json:"effects"`
	Capabilities []string `json:"capabilities"`
	Origin       Origin   `json:"origin"`
}

// Param is a function parameter.
type Param struct {
	Name   string `json:"name"`
	Type   *Type  `json:"type,omitempty"`
	Origin Origin `json:"origin"`
}

// RecordDecl declares a nominal record type with ordered fields.
type RecordDecl struct {
	Name   string         `json:"name"`
	Fields []*RecordField `json:"fields"`
	Origin Origin         `json:"origin"`
}

// RecordField is one field of a record declaration.
type RecordField struct {
	Name string `json:"name"`
	Type *Type  `json:"type"`
}

// Statement kinds.
const (
	StmtAssign = "assign"
	StmtExpr   = "expr"
	StmtShow   = "show"
	StmtVerify = "verify"
	StmtReturn = "return"
	StmtIf     = "if"
	StmtWhile  = "while"
)

// Stmt is a lowered statement; Kind selects which fields are meaningful.
type Stmt struct {
	Kind         string   `json:"kind"`
	Name         string   `json:"name,omitempty"`          // assign
	DeclaredType *Type    `json:"declared_type,omitempty"` // assign
	Value        *Expr    `json:"value,omitempty"`         // assign/expr/show/verify/return
	Cond         *Expr    `json:"cond,omitempty"`          // if/while
	Then         []*Stmt  `json:"then,omitempty"`          // if
	Else         []*Stmt  `json:"else,omitempty"`          // if
	Body         []*Stmt  `json:"body,omitempty"`          // while
	Effects      []string `json:"effects"`
	Capabilities []string `json:"capabilities"`
	Origin       Origin   `json:"origin"`
}

// Expression kinds.
const (
	ExprLit    = "lit"
	ExprVar    = "var"
	ExprUnary  = "unary"
	ExprBinary = "binary"
	ExprCall   = "call"
)

// Expr is a lowered expression; Kind selects which fields are meaningful.
// Literal values keep their source token text (Text literals keep quotes).
type Expr struct {
	Kind   string  `json:"kind"`
	Value  string  `json:"value,omitempty"`  // lit
	Type   *Type   `json:"type,omitempty"`   // lit
	Name   string  `json:"name,omitempty"`   // var
	Op     string  `json:"op,omitempty"`     // unary/binary
	Expr   *Expr   `json:"expr,omitempty"`   // unary operand
	Left   *Expr   `json:"left,omitempty"`   // binary
	Right  *Expr   `json:"right,omitempty"`  // binary
	Callee string  `json:"callee,omitempty"` // call
	Args   []*Expr `json:"args,omitempty"`   // call
	Origin Origin  `json:"origin"`
}

// Type is the IR type encoding: {kind, name?, args}. Args is always present
// (empty for non-generic types) so the serialized form is uniform.
type Type struct {
	Kind string  `json:"kind"`
	Name string  `json:"name,omitempty"`
	Args []*Type `json:"args"`
}

// NewType constructs a Type with a non-nil Args slice.
func NewType(kind string, args ...*Type) *Type {
	if args == nil {
		args = []*Type{}
	}
	return &Type{Kind: kind, Args: args}
}

// Marshal serializes the IR canonically: two-space indent, fixed field
// order, trailing newline.
func Marshal(doc *IR) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal parses an IR document and rejects version mismatches.
func Unmarshal(data []byte) (*IR, error) {
	var doc IR
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.IRVersion != Version {
		return nil, fmt.Errorf("unsupported IR version %q (want %q)", doc.IRVersion, Version)
	}
	if doc.Module == nil {
		return nil, fmt.Errorf("IR document has no module")
	}
	return &doc, nil
}
