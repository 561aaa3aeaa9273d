package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"plbind/internal/abi"
	"plbind/internal/diag"
	"plbind/internal/directive"
	"plbind/internal/driver"
	"plbind/internal/source"
)

func generateVirtual(t *testing.T, opts driver.Options, files map[string]string) *driver.Result {
	t.Helper()
	fs := source.NewFileSetWithBase("/virtual")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make([]source.FileID, 0, len(names))
	for _, name := range names {
		ids = append(ids, fs.AddVirtual(name, []byte(files[name])))
	}
	return driver.GenerateFiles(context.Background(), fs, ids, opts)
}

func TestGenerateStatsGolden(t *testing.T) {
	res, err := driver.Generate(context.Background(), []string{"testdata/stats/stats.go"}, driver.Options{ABI: abi.Default()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShortDiagnostics(res.Diagnostics(), res.FileSet, true))
	}
	want, err := os.ReadFile(filepath.Join("..", "..", "examples", "stats", "stats.go"))
	if err != nil {
		t.Fatal(err)
	}
	fr := res.Files[0]
	if !fr.Changed {
		t.Fatal("expected the file to change")
	}
	if string(fr.Output) != string(want) {
		t.Fatalf("output mismatch\n--- got ---\n%s\n--- want ---\n%s", fr.Output, want)
	}
	if fr.Accepted != 5 || fr.Rejected != 0 {
		t.Fatalf("accepted=%d rejected=%d, want 5/0", fr.Accepted, fr.Rejected)
	}

	m := res.Manifest(abi.Default())
	var names []string
	for _, e := range m.Entries {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "Avg,Mean,Point,Sum,Window" {
		t.Fatalf("manifest entries = %s", got)
	}
}

func TestGenerateRejectedFileHasNoOutput(t *testing.T) {
	res := generateVirtual(t, driver.Options{ABI: abi.Default()}, map[string]string{
		"bad.go": `package p

//plbind:export
func Sum(a array[int32]) int32 { return 0 }

//plbind:export
func Ok(x int32) int32 { return x }
`,
		"good.go": `package p

//plbind:export
func Twice(x int32) int32 { return 2 * x }
`,
	})
	bad, good := res.Files[0], res.Files[1]
	if bad.OK() {
		t.Fatal("a file with a rejected declaration must not produce output")
	}
	if bad.Accepted != 1 || bad.Rejected != 1 {
		t.Fatalf("bad: accepted=%d rejected=%d", bad.Accepted, bad.Rejected)
	}
	items := bad.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.PairingError {
		t.Fatalf("bad diagnostics = %v", items)
	}
	if len(bad.Entries) != 0 {
		t.Fatal("rejected file must contribute no manifest entries")
	}
	if !good.OK() || !good.Changed {
		t.Fatal("the batch must continue past a rejected file")
	}
	if !strings.Contains(string(good.Output), "//export Twice\nfunc Twice(x int32) int32") {
		t.Fatalf("good output:\n%s", good.Output)
	}
	if n := res.Registry.Len(); n != 3 {
		t.Fatalf("registry has %d entries, want 3", n)
	}
	if got := res.Registry.Rejected()[directive.IntentExport]; got != 1 {
		t.Fatalf("rejected exports = %d, want 1", got)
	}
	if len(bad.Seen) != 2 || bad.Seen[0].Name != "Sum" || bad.Seen[0].Accepted || !bad.Seen[1].Accepted {
		t.Fatalf("seen = %+v", bad.Seen)
	}
	if len(res.Manifest(abi.Default()).Entries) != 1 {
		t.Fatal("manifest must hold only the accepted file")
	}
}

func TestGenerateUntouchedFile(t *testing.T) {
	src := "package p\n\nfunc plain() {}\n"
	res := generateVirtual(t, driver.Options{}, map[string]string{"plain.go": src})
	fr := res.Files[0]
	if !fr.OK() || fr.Changed {
		t.Fatalf("ok=%v changed=%v", fr.OK(), fr.Changed)
	}
	if string(fr.Output) != src {
		t.Fatal("file without directives must be returned verbatim")
	}
}

func TestGenerateSyntaxError(t *testing.T) {
	res := generateVirtual(t, driver.Options{}, map[string]string{"broken.go": "package p\n\nfunc {\n"})
	fr := res.Files[0]
	if fr.OK() {
		t.Fatal("syntax error must suppress output")
	}
	if items := fr.Bag.Items(); len(items) == 0 || items[0].Code != diag.IOSyntaxError {
		t.Fatalf("diagnostics = %v", items)
	}
}

func TestGenerateCgoImport(t *testing.T) {
	res := generateVirtual(t, driver.Options{CgoImport: true}, map[string]string{
		"lib.go": `package lib

//plbind:platypus
func Count(xs []byte) int {
	return len(xs)
}
`,
	})
	out := string(res.Files[0].Output)
	if !strings.Contains(out, "import \"C\"\n") {
		t.Fatalf("expected a standalone cgo import:\n%s", out)
	}
	if !strings.Contains(out, "import \"unsafe\"") {
		t.Fatalf("expected unsafe import:\n%s", out)
	}
	if !strings.Contains(out, "func Count(xs *byte, xs_len uintptr) int {") {
		t.Fatalf("unexpected signature:\n%s", out)
	}
}

func TestGenerateLoadError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.go")
	if err := os.WriteFile(good, []byte("package a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.go")
	if _, err := driver.Generate(context.Background(), []string{good, missing}, driver.Options{}); err == nil {
		t.Fatal("expected stat error for a missing input")
	}
}

func TestGenerateProgressEvents(t *testing.T) {
	ch := make(chan driver.Event, 64)
	generateVirtual(t, driver.Options{Progress: driver.ChannelSink{Ch: ch}}, map[string]string{
		"a.go": "package a\n\n//plbind:export\nfunc A() {}\n",
	})
	close(ch)
	var done bool
	for evt := range ch {
		if evt.Status == driver.StatusDone && evt.File == "a.go" {
			done = true
		}
	}
	if !done {
		t.Fatal("expected a done event for a.go")
	}
}
