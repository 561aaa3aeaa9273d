package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"plbind/internal/diag"
	"plbind/internal/fix"
	"plbind/internal/source"
)

const pairingSrc = "package p\n\n//plbind:export\nfunc Sum(a array[int32]) int32 { return 0 }\n"

// pairingDiag mirrors what the validator reports for Sum above.
func pairingDiag(id source.FileID) *diag.Diagnostic {
	param := source.Span{File: id, Start: 36, End: 50}
	d := diag.New(diag.SevError, diag.PairingError, param, "'a' must be followed by a_len: uintptr").
		WithNote(source.Span{File: id, Start: 11, End: 26}, "directive here").
		WithFixSuggestion(fix.InsertText("insert length parameter", source.Span{File: id, Start: 50, End: 50}, ", a_len uintptr",
			fix.Preferred(), fix.WithID("pair-a")))
	return &d
}

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/src/sum.go", []byte(pairingSrc))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(pairingDiag(fileID))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/sum.go:4:10"},
		{"Relative path", PathModeRelative, "src/sum.go:4:10"},
		{"Basename only", PathModeBasename, "sum.go:4:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR PLB1003: 'a' must be followed by a_len: uintptr") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Short path - as is", "sum.go", "sum.go:"},
		{"Long absolute path - basename", "/very/long/absolute/path/to/some/nested/directory/sum.go", " sum.go:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileID := fs.AddVirtual(tt.path, []byte(pairingSrc))
			bag := diag.NewBag(10)
			bag.Add(pairingDiag(fileID))

			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			output := " " + buf.String()

			if !strings.Contains(output, tt.expected) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.expected, output)
			}
		})
	}
}

func TestPrettyCaret(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("sum.go", []byte(pairingSrc))
	bag := diag.NewBag(1)
	bag.Add(pairingDiag(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "sum.go:4:10: ERROR PLB1003: 'a' must be followed by a_len: uintptr\n" +
		" 4 | func Sum(a array[int32]) int32 { return 0 }\n" +
		"   | " + strings.Repeat(" ", 9) + "^" + strings.Repeat("~", 13) + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("sum.go", []byte(pairingSrc))
	bag := diag.NewBag(4)
	bag.Add(pairingDiag(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	output := buf.String()

	if !strings.Contains(output, "note: sum.go:3:1: directive here") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #1: insert length parameter") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, `apply=", a_len uintptr"`) {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
	if !strings.Contains(output, "id=pair-a") {
		t.Fatalf("expected fix id in output, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("sum.go", []byte(pairingSrc))
	bag := diag.NewBag(2)
	bag.Add(pairingDiag(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})
	output := buf.String()
	if !strings.Contains(output, "preview:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- func Sum(a array[int32]) int32 { return 0 }") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, "+ func Sum(a array[int32], a_len uintptr) int32 { return 0 }") {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}

func TestPrettyUnknownFile(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: 42}, "cannot read 'x.go'"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 2})
	if got := buf.String(); got != "<unknown>: ERROR PLB3001: cannot read 'x.go'\n" {
		t.Fatalf("got %q", got)
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("sum.go", []byte(pairingSrc))
	bag := diag.NewBag(1)
	bag.Add(pairingDiag(fileID))

	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeBasename)
	if got := buf.String(); got != "sum.go:4:10: ERROR PLB1003: 'a' must be followed by a_len: uintptr\n" {
		t.Fatalf("got %q", got)
	}
}
