package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"plbind/internal/diag"
	"plbind/internal/source"
)

func spanOf(t *testing.T, fs *source.FileSet, id source.FileID, needle string) source.Span {
	t.Helper()
	content := string(fs.Get(id).Content)
	for i := 0; i+len(needle) <= len(content); i++ {
		if content[i:i+len(needle)] == needle {
			return source.SpanFromOffsets(id, i, i+len(needle))
		}
	}
	t.Fatalf("%q not found", needle)
	return source.Span{}
}

func TestApply_DryRunInsertsMissingLength(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.go", []byte("func F(a array[int32]) {}\n"))
	param := spanOf(t, fs, id, "a array[int32]")
	at := source.Span{File: id, Start: param.End, End: param.End}
	d := diag.NewError(diag.PairingError, param, "'a' must be followed by a_len: uintptr").
		WithFixSuggestion(InsertText("insert a_len", at, ", a_len uintptr", Preferred()))

	res, err := Apply(fs, []*diag.Diagnostic{&d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("expected 1 file change, got %d", len(res.FileChanges))
	}
	want := "func F(a array[int32], a_len uintptr) {}\n"
	if got := string(res.FileChanges[0].Content); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestApply_VirtualFilesAreNotWritten(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.go", []byte("x"))
	d := diag.NewError(diag.ShapeError, source.Span{File: id, End: 1}, "m").
		WithFixSuggestion(ReplaceSpan("replace", source.Span{File: id, End: 1}, "y", "x"))
	_, err := Apply(fs, []*diag.Diagnostic{&d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestApply_GuardAndConflicts(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.go", []byte("abcdef"))
	first := diag.NewError(diag.ShapeError, source.Span{File: id, Start: 0, End: 3}, "first").
		WithFixSuggestion(ReplaceSpan("first", source.Span{File: id, Start: 0, End: 3}, "XYZ", "abc"))
	overlap := diag.NewError(diag.ShapeError, source.Span{File: id, Start: 2, End: 4}, "overlap").
		WithFixSuggestion(ReplaceSpan("overlap", source.Span{File: id, Start: 2, End: 4}, "--", "cd"))
	stale := diag.NewError(diag.ShapeError, source.Span{File: id, Start: 4, End: 6}, "stale").
		WithFixSuggestion(ReplaceSpan("stale", source.Span{File: id, Start: 4, End: 6}, "!!", "zz"))

	res, err := Apply(fs, []*diag.Diagnostic{&first, &overlap, &stale}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Title != "first" {
		t.Fatalf("expected only the first fix to apply, got %+v", res.Applied)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped fixes, got %+v", res.Skipped)
	}
	if got := string(res.FileChanges[0].Content); got != "XYZdef" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestApply_ModeSkipsManualReviewFixes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.go", []byte("abc"))
	d := diag.NewError(diag.VisibilityError, source.Span{File: id, End: 1}, "m").
		WithFixSuggestion(ReplaceSpan("upper", source.Span{File: id, End: 1}, "A", "a",
			WithApplicability(diag.FixApplicabilityManualReview)))
	res, err := Apply(fs, []*diag.Diagnostic{&d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected the manual fix to be reported as skipped")
	}
	res, err = Apply(fs, []*diag.Diagnostic{&d}, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil || len(res.Applied) != 1 {
		t.Fatalf("once mode should fall back to the manual fix: %v", err)
	}
}

func TestApply_WritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	d := diag.NewError(diag.ShapeError, source.Span{File: id, End: 5}, "m").
		WithFixSuggestion(ReplaceSpan("bye", source.Span{File: id, End: 5}, "bye", "hello", WithID("greet")))
	res, err := Apply(fs, []*diag.Diagnostic{&d}, ApplyOptions{Mode: ApplyModeID, TargetID: "greet"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "bye" || res.FileChanges[0].Path != "a.go" {
		t.Fatalf("unexpected result %q %+v", got, res.FileChanges)
	}
}
