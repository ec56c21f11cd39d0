package codegen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hand-lang/handc/internal/compiler/ir"
)

func textLit(s string) *ir.Expr {
	return &ir.Expr{Kind: ir.ExprLit, Value: `"` + s + `"`, Type: ir.NewType("Text")}
}

func intLit(s string) *ir.Expr {
	return &ir.Expr{Kind: ir.ExprLit, Value: s, Type: ir.NewType("Int")}
}

func varRef(name string) *ir.Expr {
	return &ir.Expr{Kind: ir.ExprVar, Name: name}
}

func callExpr(callee string, args ...*ir.Expr) *ir.Expr {
	return &ir.Expr{Kind: ir.ExprCall, Callee: callee, Args: args}
}

func exprStmt(value *ir.Expr) *ir.Stmt {
	return &ir.Stmt{
		Kind:         ir.StmtExpr,
		Value:        value,
		Effects:      []string{},
		Capabilities: []string{},
		Origin:       ir.Origin{Actor: ir.ActorHuman, Ref: "[AST][🧩][N1].1"},
	}
}

func sqlDoc(types []*ir.RecordDecl, toplevel ...*ir.Stmt) *ir.IR {
	if types == nil {
		types = []*ir.RecordDecl{}
	}
	if toplevel == nil {
		toplevel = []*ir.Stmt{}
	}
	return &ir.IR{
		IRVersion: ir.Version,
		Origin:    ir.Origin{Actor: ir.ActorSystem, Ref: "[Lowering][🎬][N1].1"},
		Module: &ir.Module{
			Name:         "m",
			Semver:       "0.1.0",
			Functions:    []*ir.Function{},
			Toplevel:     toplevel,
			Types:        types,
			Capabilities: []string{"compute"},
			Origin:       ir.Origin{Actor: ir.ActorSystem, Ref: "[Lowering][🎬][N1].1"},
		},
	}
}

func userRecord() *ir.RecordDecl {
	return &ir.RecordDecl{
		Name: "users",
		Fields: []*ir.RecordField{
			{Name: "id", Type: ir.NewType("Int")},
			{Name: "name", Type: ir.NewType("Text")},
			{Name: "bio", Type: ir.NewType("Optional", ir.NewType("Text"))},
		},
		Origin: ir.Origin{Actor: ir.ActorHuman, Ref: "[AST][📝][N2].1"},
	}
}

func TestSQL_DDLFromRecordTypes(t *testing.T) {
	sql, notes, err := GenSQL(sqlDoc([]*ir.RecordDecl{userRecord()}))
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.Contains(t, sql, `CREATE TABLE "users" (`)
	assert.Contains(t, sql, `"id" INTEGER NOT NULL,`)
	assert.Contains(t, sql, `"name" TEXT NOT NULL,`)
	assert.Contains(t, sql, `"bio" TEXT`)
	assert.NotContains(t, sql, `"bio" TEXT NOT NULL`)
}

func TestSQL_CrudStatements(t *testing.T) {
	doc := sqlDoc(nil,
		exprStmt(callExpr("insert", textLit("users"),
			callExpr("map", textLit("id"), intLit("1"), textLit("name"), textLit("Ada")))),
		exprStmt(callExpr("select", textLit("users"),
			callExpr("list", textLit("id"), textLit("name")),
			callExpr("map", textLit("id"), intLit("1")))),
		exprStmt(callExpr("update", textLit("users"),
			callExpr("map", textLit("name"), textLit("Grace")),
			callExpr("map", textLit("id"), intLit("1")))),
		exprStmt(callExpr("delete", textLit("users"),
			callExpr("map", textLit("id"), intLit("1")))),
	)

	sql, _, err := GenSQL(doc)
	require.NoError(t, err)

	assert.Contains(t, sql, `INSERT INTO "users" ("id", "name") VALUES (1, 'Ada');`)
	assert.Contains(t, sql, `SELECT "id", "name" FROM "users" WHERE "id" = 1;`)
	assert.Contains(t, sql, `UPDATE "users" SET "name" = 'Grace' WHERE "id" = 1;`)
	assert.Contains(t, sql, `DELETE FROM "users" WHERE "id" = 1;`)
}

func TestSQL_TransactionMarkers(t *testing.T) {
	doc := sqlDoc(nil,
		exprStmt(callExpr("begin_tx")),
		exprStmt(callExpr("insert", textLit("t"), callExpr("map", textLit("a"), intLit("1")))),
		exprStmt(callExpr("commit")),
	)
	sql, _, err := GenSQL(doc)
	require.NoError(t, err)

	beginIdx := strings.Index(sql, "BEGIN;")
	insertIdx := strings.Index(sql, "INSERT INTO")
	commitIdx := strings.Index(sql, "COMMIT;")
	require.True(t, beginIdx >= 0 && insertIdx > beginIdx && commitIdx > insertIdx, sql)
}

func TestSQL_VariablesBecomeNamedParameters(t *testing.T) {
	doc := sqlDoc(nil,
		exprStmt(callExpr("select", textLit("users"),
			callExpr("list", textLit("id")),
			callExpr("map", textLit("name"), varRef("who")))),
	)
	sql, _, err := GenSQL(doc)
	require.NoError(t, err)
	assert.Contains(t, sql, `WHERE "name" = :who;`)
}

func TestSQL_TextLiteralsAreQuoted(t *testing.T) {
	doc := sqlDoc(nil,
		exprStmt(callExpr("insert", textLit("t"),
			callExpr("map", textLit("v"), textLit("O'Hara")))),
	)
	sql, _, err := GenSQL(doc)
	require.NoError(t, err)
	assert.Contains(t, sql, `'O''Hara'`)
}

func TestSQL_Refusals(t *testing.T) {
	cases := []struct {
		name string
		doc  *ir.IR
		code string
	}{
		{"non_call_toplevel", sqlDoc(nil, &ir.Stmt{
			Kind: ir.StmtShow, Value: intLit("1"),
			Effects: []string{"io.show"}, Capabilities: []string{"io.write"},
			Origin: ir.Origin{Actor: ir.ActorHuman, Ref: "[AST][📤][N1].1"},
		}), "SQL-0100"},
		{"unknown_callee", sqlDoc(nil, exprStmt(callExpr("truncate", textLit("t")))), "SQL-0400"},
		{"non_literal_table", sqlDoc(nil,
			exprStmt(callExpr("delete", varRef("t"), callExpr("map", textLit("a"), intLit("1"))))), "SQL-0200"},
		{"non_literal_map_key", sqlDoc(nil,
			exprStmt(callExpr("delete", textLit("t"), callExpr("map", varRef("k"), intLit("1"))))), "SQL-0201"},
		{"computed_scalar", sqlDoc(nil,
			exprStmt(callExpr("delete", textLit("t"),
				callExpr("map", textLit("a"),
					&ir.Expr{Kind: ir.ExprBinary, Op: "+", Left: intLit("1"), Right: intLit("2")})))), "SQL-0202"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := GenSQL(tc.doc)
			require.Error(t, err)
			assert.Equal(t, tc.code, err.(*BackendError).Note.Code)
		})
	}
}

func TestSQL_RejectsFunctions(t *testing.T) {
	doc := irFromSource(t, "🔧 f() -> Int:\n    return 1\n", "m")
	_, _, err := GenSQL(doc)
	require.Error(t, err)
	assert.Equal(t, "SQL-0101", err.(*BackendError).Note.Code)
}

// TestSQL_ScriptExecutesStatementByStatement proves the emitted script is
// well-formed by replaying every statement against a mock SQL driver in
// order.
func TestSQL_ScriptExecutesStatementByStatement(t *testing.T) {
	doc := sqlDoc([]*ir.RecordDecl{userRecord()},
		exprStmt(callExpr("begin_tx")),
		exprStmt(callExpr("insert", textLit("users"),
			callExpr("map", textLit("id"), intLit("1"), textLit("name"), textLit("Ada")))),
		exprStmt(callExpr("commit")),
	)
	sql, _, err := GenSQL(doc)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := splitStatements(sql)
	require.NotEmpty(t, stmts)
	for _, stmt := range stmts {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

// splitStatements breaks a script into executable statements, dropping
// comment lines.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	var out []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func TestSQL_Deterministic(t *testing.T) {
	doc := sqlDoc([]*ir.RecordDecl{userRecord()},
		exprStmt(callExpr("select", textLit("users"), callExpr("list", textLit("id")))))

	first, _, err := GenSQL(doc)
	require.NoError(t, err)
	second, _, err2 := GenSQL(doc)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}
