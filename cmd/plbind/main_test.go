package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the command tree with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const unpairedSrc = `package lib

//plbind:export
func Sum(a array[int32]) int32 { return 0 }
`

const acceptedSrc = `package lib

//plbind:platypus
func Count(xs []byte) int {
	return len(xs)
}
`

func TestCheckReportsPairingError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sum.go"), unpairedSrc)

	_, stderr, err := execute(t, "check", "--color", "off", "--format", "short", "--path-mode", "basename", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if !strings.Contains(stderr, "sum.go:4:10: ERROR PLB1003: 'a' must be followed by a_len: uintptr") {
		t.Fatalf("stderr:\n%s", stderr)
	}
}

func TestCheckSummary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "count.go"), acceptedSrc)
	writeFile(t, filepath.Join(dir, "sum.go"), unpairedSrc)

	_, stderr, err := execute(t, "check", "--color", "off", "--format", "pretty", "--quiet=false", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if !strings.Contains(stderr, "checked 2 files: export: 1 (1 rejected), platypus: 1") {
		t.Fatalf("stderr:\n%s", stderr)
	}
}

func TestGenWritesOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "count.go"), acceptedSrc)
	out := filepath.Join(dir, "out")

	// no plbind.toml: paths outside the working directory land flat
	if _, stderr, err := execute(t, "gen", "--quiet", "-o", out, src); err != nil {
		t.Fatalf("gen: %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(filepath.Join(out, "count.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "func Count(xs *byte, xs_len uintptr) int {") {
		t.Fatalf("output:\n%s", data)
	}
}

func TestManifestToStdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "count.go"), acceptedSrc)

	stdout, stderr, err := execute(t, "manifest", "--quiet", "-o", "-", "--manifest-format", "yaml", dir)
	if err != nil {
		t.Fatalf("manifest: %v\n%s", err, stderr)
	}
	for _, want := range []string{"name: Count", "symbol: Count", "role: pointer", "role: length", "of: xs"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("manifest missing %q:\n%s", want, stdout)
		}
	}
}

func TestFixInsertsLengthParameter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum.go")
	writeFile(t, path, unpairedSrc)

	stdout, _, err := execute(t, "fix", "--all", dir)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(stdout, "Applied 1 fix(es)") {
		t.Fatalf("stdout:\n%s", stdout)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "func Sum(a array[int32], a_len uintptr) int32") {
		t.Fatalf("file after fix:\n%s", data)
	}
}

func TestInitCreatesConfigOnce(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := execute(t, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout, "plbind.toml") {
		t.Fatalf("stdout: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "plbind.toml")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "init", dir); err == nil {
		t.Fatal("second init must fail without --force")
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `"tool": "plbind"`) || !strings.Contains(stdout, `"abi": "array|uintptr|plbind"`) {
		t.Fatalf("stdout: %s", stdout)
	}
	if strings.Contains(stdout, "git_commit") {
		t.Fatalf("commit shown without --full: %s", stdout)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("expected error for invalid mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Error("explicit modes must win")
	}
}
