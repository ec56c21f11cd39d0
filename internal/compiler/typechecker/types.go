// Package typechecker implements the HAND type system with flow-sensitive
// nullability refinement: Optional[T] narrows to T after a null check.
package typechecker

import (
	"strings"

	"github.com/hand-lang/handc/internal/compiler/ast"
)

// Kind discriminates the closed set of semantic types.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindText
	KindNull
	KindAny
	KindNever
	KindOptional
	KindList
	KindMap
	KindRecord
	KindResult
)

var kindNames = map[Kind]string{
	KindInt:      "Int",
	KindFloat:    "Float",
	KindBool:     "Bool",
	KindText:     "Text",
	KindNull:     "Null",
	KindAny:      "Any",
	KindNever:    "Never",
	KindOptional: "Optional",
	KindList:     "List",
	KindMap:      "Map",
	KindRecord:   "Record",
	KindResult:   "Result",
}

// Type is a semantic type: a closed sum discriminated by Kind. Name is set
// for Record types; Args carries type arguments for the generic kinds.
type Type struct {
	Kind Kind
	Name string
	Args []*Type
}

// Primitive type singletons.
var (
	Int   = &Type{Kind: KindInt}
	Float = &Type{Kind: KindFloat}
	Bool  = &Type{Kind: KindBool}
	Text  = &Type{Kind: KindText}
	Null  = &Type{Kind: KindNull}
	Any   = &Type{Kind: KindAny}
	Never = &Type{Kind: KindNever}
)

// Optional wraps t in Optional(t); Optional of Optional collapses.
func Optional(t *Type) *Type {
	if t.Kind == KindOptional {
		return t
	}
	return &Type{Kind: KindOptional, Args: []*Type{t}}
}

// List constructs List(elem).
func List(elem *Type) *Type {
	return &Type{Kind: KindList, Args: []*Type{elem}}
}

// Map constructs Map(key, value).
func Map(key, value *Type) *Type {
	return &Type{Kind: KindMap, Args: []*Type{key, value}}
}

// Record constructs a nominal record type.
func Record(name string) *Type {
	return &Type{Kind: KindRecord, Name: name}
}

// Result constructs Result(ok, err).
func Result(ok, err *Type) *Type {
	return &Type{Kind: KindResult, Args: []*Type{ok, err}}
}

// String returns the canonical name of the type.
func (t *Type) String() string {
	if t == nil {
		return "Any"
	}
	switch t.Kind {
	case KindOptional:
		return t.Args[0].String() + "?"
	case KindRecord:
		if t.Name != "" {
			return t.Name
		}
		return "Record"
	case KindList, KindMap, KindResult:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return kindNames[t.Kind] + "[" + strings.Join(args, ", ") + "]"
	default:
		return kindNames[t.Kind]
	}
}

// Equals checks structural equality.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind || t.Name != other.Name || len(t.Args) != len(other.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(other.Args[i]) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether t is Int or Float.
func (t *Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

// Unwrap returns the element type of an Optional, or t itself.
func (t *Type) Unwrap() *Type {
	if t.Kind == KindOptional {
		return t.Args[0]
	}
	return t
}

// AssignableTo reports whether a value of type t can be assigned where dst is
// expected. The relation is narrow: Any is top both ways, Never is bottom,
// Null and T flow into Optional(T), but Optional(T) does not flow into T
// without refinement. Int widens into Float.
func (t *Type) AssignableTo(dst *Type) bool {
	if t == nil || dst == nil {
		return true
	}
	if t.Kind == KindAny || dst.Kind == KindAny {
		return true
	}
	if t.Kind == KindNever {
		return true
	}
	if dst.Kind == KindOptional {
		if t.Kind == KindNull {
			return true
		}
		if t.Kind == KindOptional {
			return t.Args[0].AssignableTo(dst.Args[0])
		}
		return t.AssignableTo(dst.Args[0])
	}
	if t.Kind == KindOptional {
		return false
	}
	if dst.Kind == KindFloat && t.Kind == KindInt {
		return true
	}
	if t.Kind != dst.Kind || t.Name != dst.Name || len(t.Args) != len(dst.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].AssignableTo(dst.Args[i]) {
			return false
		}
	}
	return true
}

// Join computes the least common type of two branches. The join of T and
// Null is Optional(T); Int and Float join to Float; unrelated types join to
// Any.
func Join(a, b *Type) *Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Equals(b) {
		return a
	}
	if a.Kind == KindNever {
		return b
	}
	if b.Kind == KindNever {
		return a
	}
	if a.Kind == KindNull {
		return Optional(b)
	}
	if b.Kind == KindNull {
		return Optional(a)
	}
	if a.Kind == KindOptional || b.Kind == KindOptional {
		inner := Join(a.Unwrap(), b.Unwrap())
		return Optional(inner)
	}
	if a.IsNumeric() && b.IsNumeric() {
		return Float
	}
	return Any
}

// known generic base names with their expected arity.
var genericArity = map[string]int{
	"Optional": 1,
	"List":     1,
	"Map":      2,
	"Result":   2,
}

// FromTypeExpr resolves an AST type expression to a semantic type. Unknown
// nominal names become Record types.
func FromTypeExpr(te ast.TypeExpr) *Type {
	switch n := te.(type) {
	case *ast.TypeName:
		return fromName(n.Name, nil)
	case *ast.TypeOptional:
		return Optional(FromTypeExpr(n.Inner))
	case *ast.TypeApp:
		args := make([]*Type, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, FromTypeExpr(a))
		}
		return fromName(n.Base.Name, args)
	default:
		return Any
	}
}

func fromName(name string, args []*Type) *Type {
	switch name {
	case "Int":
		return Int
	case "Float":
		return Float
	case "Bool":
		return Bool
	case "Text":
		return Text
	case "Null":
		return Null
	case "Any":
		return Any
	case "Never":
		return Never
	}

	if arity, ok := genericArity[name]; ok {
		// Pad missing arguments with Any so a malformed application still
		// has a well-formed semantic type.
		for len(args) < arity {
			args = append(args, Any)
		}
		switch name {
		case "Optional":
			return Optional(args[0])
		case "List":
			return List(args[0])
		case "Map":
			return Map(args[0], args[1])
		case "Result":
			return Result(args[0], args[1])
		}
	}

	return Record(name)
}
