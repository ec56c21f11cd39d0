package ast

import "encoding/json"

// ToJSON renders a program as a kind-tagged JSON tree for --emit-ast.
// encoding/json sorts map keys, so the dump is deterministic.
func ToJSON(p *Program) ([]byte, error) {
	items := make([]interface{}, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, nodeJSON(item))
	}
	data, err := json.MarshalIndent(map[string]interface{}{
		"kind":  "program",
		"items": items,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func stmtsJSON(stmts []Stmt) []interface{} {
	out := make([]interface{}, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, nodeJSON(s))
	}
	return out
}

func nodeJSON(n Node) map[string]interface{} {
	switch x := n.(type) {
	case *Section:
		m := map[string]interface{}{
			"kind":      "section",
			"emoji":     x.Emoji,
			"header":    x.Header,
			"has_colon": x.HasColon,
		}
		if x.Body != nil {
			m["body"] = stmtsJSON(x.Body)
		}
		return m

	case *FuncDef:
		params := make([]interface{}, 0, len(x.Params))
		for _, p := range x.Params {
			pm := map[string]interface{}{"name": p.Name}
			if p.Type != nil {
				pm["type"] = typeJSON(p.Type)
			}
			params = append(params, pm)
		}
		m := map[string]interface{}{
			"kind":   "func",
			"name":   x.Name,
			"params": params,
			"body":   stmtsJSON(x.Body),
		}
		if x.ReturnType != nil {
			m["ret_type"] = typeJSON(x.ReturnType)
		}
		return m

	case *IfStmt:
		m := map[string]interface{}{
			"kind": "if",
			"cond": nodeJSON(x.Cond),
			"then": stmtsJSON(x.Then),
		}
		if x.Else != nil {
			m["else"] = stmtsJSON(x.Else)
		}
		return m

	case *WhileStmt:
		return map[string]interface{}{
			"kind": "while",
			"cond": nodeJSON(x.Cond),
			"body": stmtsJSON(x.Body),
		}

	case *ReturnStmt:
		m := map[string]interface{}{"kind": "return"}
		if x.Value != nil {
			m["value"] = nodeJSON(x.Value)
		}
		return m

	case *ShowStmt:
		return map[string]interface{}{"kind": "show", "value": nodeJSON(x.Value)}

	case *VerifyStmt:
		return map[string]interface{}{"kind": "verify", "expr": nodeJSON(x.Expr)}

	case *AssignStmt:
		m := map[string]interface{}{
			"kind":  "assign",
			"name":  x.Name,
			"value": nodeJSON(x.Value),
		}
		if x.DeclaredType != nil {
			m["declared_type"] = typeJSON(x.DeclaredType)
		}
		return m

	case *ExprStmt:
		return map[string]interface{}{"kind": "expr", "value": nodeJSON(x.Expr)}

	case *Literal:
		return map[string]interface{}{
			"kind":  "lit",
			"type":  x.Kind.String(),
			"value": x.Lexeme,
		}

	case *Var:
		return map[string]interface{}{"kind": "var", "name": x.Name}

	case *Unary:
		return map[string]interface{}{"kind": "unary", "op": x.Op, "expr": nodeJSON(x.Expr)}

	case *Binary:
		return map[string]interface{}{
			"kind":  "binary",
			"op":    x.Op,
			"left":  nodeJSON(x.Left),
			"right": nodeJSON(x.Right),
		}

	case *Call:
		args := make([]interface{}, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, nodeJSON(a))
		}
		return map[string]interface{}{"kind": "call", "callee": x.Callee, "args": args}

	case *Paren:
		return map[string]interface{}{"kind": "paren", "expr": nodeJSON(x.Expr)}
	}

	return map[string]interface{}{"kind": "unknown"}
}

func typeJSON(t TypeExpr) map[string]interface{} {
	switch x := t.(type) {
	case *TypeName:
		return map[string]interface{}{"kind": "name", "name": x.Name}
	case *TypeOptional:
		return map[string]interface{}{"kind": "optional", "inner": typeJSON(x.Inner)}
	case *TypeApp:
		args := make([]interface{}, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, typeJSON(a))
		}
		return map[string]interface{}{"kind": "app", "base": x.Base.Name, "args": args}
	}
	return map[string]interface{}{"kind": "unknown"}
}
