package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"plbind/internal/abi"
	"plbind/internal/driver"
)

func TestWriteOutputsToDir(t *testing.T) {
	root := t.TempDir()
	pkg := filepath.Join(root, "pkg")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	src := "package pkg\n\n//plbind:export\nfunc F() {}\n"
	if err := os.WriteFile(filepath.Join(pkg, "f.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkg, "g.go"), []byte("package pkg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := driver.Generate(context.Background(), []string{pkg}, driver.Options{ABI: abi.Default(), BaseDir: root})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(root, "out")
	written, err := driver.WriteOutputs(res, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0] != filepath.Join(out, "pkg", "f.go") {
		t.Fatalf("written = %v", written)
	}
	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	if want := "package pkg\n\n//export F\nfunc F() {}\n"; string(data) != want {
		t.Fatalf("output = %q, want %q", data, want)
	}
	orig, _ := os.ReadFile(filepath.Join(pkg, "f.go"))
	if string(orig) != src {
		t.Fatal("source must stay untouched when writing to a directory")
	}
}

func TestWriteOutputsInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.go")
	if err := os.WriteFile(path, []byte("package f\n\n//plbind:opaque\ntype H struct{ p uintptr }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := driver.Generate(context.Background(), []string{dir}, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := driver.WriteOutputs(res, ""); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "package f\n\ntype H struct{ p uintptr }\n" {
		t.Fatalf("in-place output = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestCollectFilesSkipsTestsAndTestdata(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.go", "a_test.go", "testdata/x.go", "_gen/y.go", "sub/b.go"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("package x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := driver.CollectFiles(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "sub", "b.go")}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files = %v, want %v", files, want)
	}
}
