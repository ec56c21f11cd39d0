package codegen

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hand-lang/handc/internal/compiler/interp"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// SQLGenerator emits a SQL script from the set-based IR subset: DDL derived
// from record type declarations, plus top-level expression statements whose
// callees come from a fixed table-level vocabulary:
//
//	select(table, list(cols...), map(where...)?)
//	insert(table, map(values...))
//	update(table, map(set...), map(where...))
//	delete(table, map(where...))
//	begin_tx() / commit() / rollback()
//
// Map keys must be Text literals. Scalar arguments may be literals (inlined)
// or variable references (emitted as named parameters :name). Identifiers are
// assumed ASCII-safe and are quoted defensively.
type SQLGenerator struct {
	buf strings.Builder
}

// NewSQLGenerator creates a SQL backend instance.
func NewSQLGenerator() *SQLGenerator {
	return &SQLGenerator{}
}

// GenSQL is a convenience wrapper around SQLGenerator.Generate.
func GenSQL(doc *ir.IR) (string, []Note, error) {
	return NewSQLGenerator().Generate(doc)
}

// Generate emits the script text.
func (g *SQLGenerator) Generate(doc *ir.IR) (string, []Note, error) {
	if doc.IRVersion != ir.Version {
		return "", nil, backendErr("SQL-0001",
			fmt.Sprintf("Unsupported IR version %q.", doc.IRVersion), doc.Origin.Ref)
	}

	mod := doc.Module
	if len(mod.Functions) > 0 {
		return "", nil, backendErr("SQL-0101",
			"SQL v0.1 does not support function definitions.",
			mod.Functions[0].Origin.Ref)
	}

	g.buf.Reset()
	g.line(fmt.Sprintf("-- module %s (HAND-IR %s)", mod.Name, doc.IRVersion))

	for _, rec := range mod.Types {
		if err := g.emitDDL(rec); err != nil {
			return "", nil, err
		}
	}

	for _, st := range mod.Toplevel {
		if st.Kind != ir.StmtExpr || st.Value == nil || st.Value.Kind != ir.ExprCall {
			return "", nil, backendErr("SQL-0100",
				fmt.Sprintf("SQL v0.1 supports only table-operation calls at top level, got %s.", st.Kind),
				st.Origin.Ref)
		}
		if err := g.emitCall(st.Value); err != nil {
			return "", nil, err
		}
	}

	return g.buf.String(), []Note{}, nil
}

func (g *SQLGenerator) line(s string) {
	g.buf.WriteString(s)
	g.buf.WriteByte('\n')
}

// sqlColumnTypes maps IR scalar types to SQL column types.
var sqlColumnTypes = map[string]string{
	"Int":   "INTEGER",
	"Float": "DOUBLE PRECISION",
	"Bool":  "BOOLEAN",
	"Text":  "TEXT",
}

func (g *SQLGenerator) emitDDL(rec *ir.RecordDecl) error {
	g.line(fmt.Sprintf("CREATE TABLE %s (", pq.QuoteIdentifier(rec.Name)))
	for i, f := range rec.Fields {
		t := f.Type
		nullable := false
		if t != nil && t.Kind == "Optional" && len(t.Args) == 1 {
			nullable = true
			t = t.Args[0]
		}
		if t == nil {
			return backendErr("SQL-0300",
				fmt.Sprintf("Record field '%s.%s' has no type.", rec.Name, f.Name), rec.Origin.Ref)
		}
		colType, ok := sqlColumnTypes[t.Kind]
		if !ok {
			return backendErr("SQL-0300",
				fmt.Sprintf("Record field '%s.%s' has unsupported column type %s.", rec.Name, f.Name, t.Kind),
				rec.Origin.Ref)
		}
		constraint := " NOT NULL"
		if nullable {
			constraint = ""
		}
		comma := ","
		if i == len(rec.Fields)-1 {
			comma = ""
		}
		g.line(fmt.Sprintf("    %s %s%s%s", pq.QuoteIdentifier(f.Name), colType, constraint, comma))
	}
	g.line(");")
	g.line("")
	return nil
}

func (g *SQLGenerator) emitCall(call *ir.Expr) error {
	switch call.Callee {
	case "begin_tx":
		g.line("BEGIN;")
		return nil
	case "commit":
		g.line("COMMIT;")
		return nil
	case "rollback":
		g.line("ROLLBACK;")
		return nil
	case "select":
		return g.emitSelect(call)
	case "insert":
		return g.emitInsert(call)
	case "update":
		return g.emitUpdate(call)
	case "delete":
		return g.emitDelete(call)
	}
	return backendErr("SQL-0400",
		fmt.Sprintf("Unsupported call target: %s", call.Callee), call.Origin.Ref)
}

func (g *SQLGenerator) emitSelect(call *ir.Expr) error {
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return backendErr("SQL-0202",
			"select(table, columns, where?) takes two or three arguments.", call.Origin.Ref)
	}
	table, err := tableName(call.Args[0])
	if err != nil {
		return err
	}
	cols, err := columnList(call.Args[1])
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), pq.QuoteIdentifier(table))
	if len(call.Args) == 3 {
		where, err := wherePairs(call.Args[2])
		if err != nil {
			return err
		}
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	g.line(stmt + ";")
	return nil
}

func (g *SQLGenerator) emitInsert(call *ir.Expr) error {
	if len(call.Args) != 2 {
		return backendErr("SQL-0202",
			"insert(table, values) takes exactly two arguments.", call.Origin.Ref)
	}
	table, err := tableName(call.Args[0])
	if err != nil {
		return err
	}
	keys, vals, err := mapPairs(call.Args[1])
	if err != nil {
		return err
	}

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = pq.QuoteIdentifier(k)
	}
	g.line(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(vals, ", ")))
	return nil
}

func (g *SQLGenerator) emitUpdate(call *ir.Expr) error {
	if len(call.Args) != 3 {
		return backendErr("SQL-0202",
			"update(table, set, where) takes exactly three arguments.", call.Origin.Ref)
	}
	table, err := tableName(call.Args[0])
	if err != nil {
		return err
	}
	set, err := wherePairs(call.Args[1])
	if err != nil {
		return err
	}
	where, err := wherePairs(call.Args[2])
	if err != nil {
		return err
	}
	g.line(fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		pq.QuoteIdentifier(table), strings.Join(set, ", "), strings.Join(where, " AND ")))
	return nil
}

func (g *SQLGenerator) emitDelete(call *ir.Expr) error {
	if len(call.Args) != 2 {
		return backendErr("SQL-0202",
			"delete(table, where) takes exactly two arguments.", call.Origin.Ref)
	}
	table, err := tableName(call.Args[0])
	if err != nil {
		return err
	}
	where, err := wherePairs(call.Args[1])
	if err != nil {
		return err
	}
	g.line(fmt.Sprintf("DELETE FROM %s WHERE %s;",
		pq.QuoteIdentifier(table), strings.Join(where, " AND ")))
	return nil
}

// tableName requires a Text literal.
func tableName(e *ir.Expr) (string, error) {
	if e.Kind == ir.ExprLit && e.Type != nil && e.Type.Kind == "Text" {
		return interp.DecodeText(e.Value), nil
	}
	return "", backendErr("SQL-0200", "Table name must be a Text literal.", e.Origin.Ref)
}

// columnList requires a list(...) call of Text literals.
func columnList(e *ir.Expr) ([]string, error) {
	if e.Kind != ir.ExprCall || e.Callee != "list" {
		return nil, backendErr("SQL-0203", "Columns must be given as list(...).", e.Origin.Ref)
	}
	cols := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		if a.Kind != ir.ExprLit || a.Type == nil || a.Type.Kind != "Text" {
			return nil, backendErr("SQL-0203", "Column names must be Text literals.", a.Origin.Ref)
		}
		cols = append(cols, pq.QuoteIdentifier(interp.DecodeText(a.Value)))
	}
	if len(cols) == 0 {
		cols = append(cols, "*")
	}
	return cols, nil
}

// mapPairs requires a map(k1, v1, k2, v2, ...) call with Text-literal keys,
// returning keys and rendered scalar values in order.
func mapPairs(e *ir.Expr) ([]string, []string, error) {
	if e.Kind != ir.ExprCall || e.Callee != "map" {
		return nil, nil, backendErr("SQL-0201", "Expected map(...) of key/value pairs.", e.Origin.Ref)
	}
	if len(e.Args)%2 != 0 {
		return nil, nil, backendErr("SQL-0201", "map(...) takes an even number of arguments.", e.Origin.Ref)
	}

	keys := make([]string, 0, len(e.Args)/2)
	vals := make([]string, 0, len(e.Args)/2)
	for i := 0; i < len(e.Args); i += 2 {
		k := e.Args[i]
		if k.Kind != ir.ExprLit || k.Type == nil || k.Type.Kind != "Text" {
			return nil, nil, backendErr("SQL-0201", "Map keys must be Text literals.", k.Origin.Ref)
		}
		v, err := scalar(e.Args[i+1])
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, interp.DecodeText(k.Value))
		vals = append(vals, v)
	}
	return keys, vals, nil
}

// wherePairs renders map pairs as quoted "key" = value clauses.
func wherePairs(e *ir.Expr) ([]string, error) {
	keys, vals, err := mapPairs(e)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i := range keys {
		out[i] = fmt.Sprintf("%s = %s", pq.QuoteIdentifier(keys[i]), vals[i])
	}
	return out, nil
}

// scalar renders a literal inline or a variable reference as a named
// parameter :name.
func scalar(e *ir.Expr) (string, error) {
	switch e.Kind {
	case ir.ExprVar:
		return ":" + e.Name, nil
	case ir.ExprLit:
		kind := ""
		if e.Type != nil {
			kind = e.Type.Kind
		}
		switch kind {
		case "Text":
			return pq.QuoteLiteral(interp.DecodeText(e.Value)), nil
		case "Bool":
			return strings.ToUpper(e.Value), nil
		case "Null":
			return "NULL", nil
		default:
			return e.Value, nil
		}
	}
	return "", backendErr("SQL-0202",
		"Scalar arguments must be literals or variable references.", e.Origin.Ref)
}
