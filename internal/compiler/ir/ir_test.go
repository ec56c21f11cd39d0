package ir

import (
	"bytes"
	"testing"
)

func sampleDoc() *IR {
	return &IR{
		IRVersion: Version,
		Origin:    Origin{Actor: ActorSystem, Ref: "[Lowering][🎬][N1].1"},
		Module: &Module{
			Name:      "sample",
			Semver:    "0.1.0",
			Functions: []*Function{},
			Toplevel: []*Stmt{
				{
					Kind: StmtShow,
					Value: &Expr{
						Kind:   ExprLit,
						Value:  "1",
						Type:   NewType("Int"),
						Origin: Origin{Actor: ActorHuman, Ref: "[AST][🧩][N3].1"},
					},
					Effects:      []string{"io.show"},
					Capabilities: []string{"io.write"},
					Origin:       Origin{Actor: ActorHuman, Ref: "[AST][📤][N2].1"},
				},
			},
			Types:        []*RecordDecl{},
			Capabilities: []string{"compute", "io.write"},
			Origin:       Origin{Actor: ActorSystem, Ref: "[Lowering][🎬][N1].1"},
		},
	}
}

func TestIR_ReserializationIsByteStable(t *testing.T) {
	doc := sampleDoc()

	first, err := Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Unmarshal(first)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second, err := Marshal(parsed)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("reserialization changed bytes:\n%s\nvs\n%s", first, second)
	}
}

func TestIR_VersionMismatchIsHardError(t *testing.T) {
	doc := sampleDoc()
	doc.IRVersion = "0.2.0"

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Error("expected version mismatch error")
	}
}

func TestIR_MissingModuleRejected(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"ir_version":"0.1.0","origin":{"actor":"⭐","ref":"[Lowering][🎬][N1].1"}}`)); err == nil {
		t.Error("expected missing module error")
	}
}

func TestIR_FieldOrderIsFixed(t *testing.T) {
	data, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)

	irIdx := bytes.Index(data, []byte(`"ir_version"`))
	originIdx := bytes.Index(data, []byte(`"origin"`))
	moduleIdx := bytes.Index(data, []byte(`"module"`))
	if !(irIdx < originIdx && originIdx < moduleIdx) {
		t.Errorf("top-level key order leaked: %s", text)
	}
}
