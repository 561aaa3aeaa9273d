package directive

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"plbind/internal/diag"
	"plbind/internal/source"
)

func scanFirstDecl(t *testing.T, src string) ScanResult {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "x.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tf := fset.File(f.Pos())
	span := func(pos, end token.Pos) source.Span {
		return source.SpanFromOffsets(0, tf.Offset(pos), tf.Offset(end))
	}
	var doc *ast.CommentGroup
	switch d := f.Decls[0].(type) {
	case *ast.FuncDecl:
		doc = d.Doc
	case *ast.GenDecl:
		doc = d.Doc
	}
	return Scan(doc, "plbind", span)
}

func TestScan_ExportWithUnsafe(t *testing.T) {
	res := scanFirstDecl(t, `package x

// F does things.
//
//plbind:export
//plbind:unsafe
func F() {}
`)
	if !res.Found || res.Marker.Intent != IntentExport || !res.Marker.Unsafe {
		t.Fatalf("unexpected marker: %+v", res.Marker)
	}
	if len(res.Doc) != 1 || res.Doc[0] != "// F does things." {
		t.Fatalf("doc = %q", res.Doc)
	}
	if len(res.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diags)
	}
}

func TestScan_UnknownDirective(t *testing.T) {
	res := scanFirstDecl(t, "package x\n\n//plbind:exprot\nfunc F() {}\n")
	if len(res.Diags) != 1 || res.Diags[0].Code != diag.DirUnknown {
		t.Fatalf("expected one DirUnknown, got %v", res.Diags)
	}
	if res.Marker.Intent != IntentNone {
		t.Fatalf("intent must stay unset, got %v", res.Marker.Intent)
	}
}

func TestScan_ConflictingIntents(t *testing.T) {
	res := scanFirstDecl(t, "package x\n\n//plbind:record\n//plbind:opaque\ntype T struct{ A int }\n")
	if len(res.Diags) != 1 || res.Diags[0].Code != diag.DirConflict {
		t.Fatalf("expected DirConflict, got %v", res.Diags)
	}
	if res.Marker.Intent != IntentRecord {
		t.Fatalf("first directive must win, got %v", res.Marker.Intent)
	}
	if len(res.Diags[0].Notes) != 1 {
		t.Fatal("conflict must point at the first directive")
	}
}

func TestScan_OrphanUnsafeWarns(t *testing.T) {
	res := scanFirstDecl(t, "package x\n\n//plbind:unsafe\nfunc F() {}\n")
	if len(res.Diags) != 1 || res.Diags[0].Severity != diag.SevWarning {
		t.Fatalf("expected a warning, got %v", res.Diags)
	}
}

func TestScan_NoDirectives(t *testing.T) {
	res := scanFirstDecl(t, "package x\n\n// plain doc\nfunc F() {}\n")
	if res.Found {
		t.Fatal("plain doc must not count as a directive")
	}
	if len(res.Doc) != 1 {
		t.Fatalf("doc = %q", res.Doc)
	}
}

func TestParseIntent(t *testing.T) {
	for name, want := range map[string]Intent{
		"export":   IntentExport,
		"record":   IntentRecord,
		"opaque":   IntentOpaque,
		"platypus": IntentPlatypus,
	} {
		got, ok := ParseIntent(name)
		if !ok || got != want {
			t.Errorf("ParseIntent(%q) = %v, %v", name, got, ok)
		}
		if got.Directive() != name {
			t.Errorf("Directive() = %q, want %q", got.Directive(), name)
		}
	}
	if _, ok := ParseIntent(""); ok {
		t.Error("empty name must not parse")
	}
}
