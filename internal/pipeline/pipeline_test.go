package pipeline

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/diag"
	"plbind/internal/source"
)

func items(t *testing.T, src string) []*decl.Declaration {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("input.go", []byte("package p\n\n"+src))
	return decl.Parse(fs, id, abi.Default()).Items
}

func TestRun_DeclarationsAreIndependent(t *testing.T) {
	src := `//plbind:export
func bad(a int32) {}

//plbind:export
func Good(a array[int32], a_len uintptr) {}

//plbind:opaque
type handle int

//plbind:platypus
func Avg(nums []int32) int32 { return nums[0] }
`
	var accepted, rejected []string
	for _, d := range items(t, src) {
		res := Run(abi.Default(), d.Marker.Intent, d)
		if res.Accepted() {
			accepted = append(accepted, d.Name)
			continue
		}
		if res.Diag == nil {
			t.Fatalf("%s: neither accepted nor rejected", d.Name)
		}
		rejected = append(rejected, d.Name+":"+res.Diag.Code.Title())
	}
	if strings.Join(accepted, ",") != "Good,Avg" {
		t.Fatalf("unexpected accepted set %v", accepted)
	}
	want := "bad:" + diag.VisibilityError.Title() + ",handle:" + diag.VisibilityError.Title()
	if strings.Join(rejected, ",") != want {
		t.Fatalf("unexpected rejected set %v", rejected)
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	d := items(t, "//plbind:platypus\nfunc Avg(nums []int32) int32 { return nums[0] }\n")[0]
	first := Run(abi.Default(), d.Marker.Intent, d)
	second := Run(abi.Default(), d.Marker.Intent, d)
	if first.Output.Text != second.Output.Text {
		t.Fatalf("outputs differ:\n%s\n%s", first.Output.Text, second.Output.Text)
	}
}

func TestRun_NoIntent(t *testing.T) {
	if res := Run(abi.Default(), 0, nil); res.Accepted() || res.Diag != nil {
		t.Fatalf("nil declaration should yield an empty result")
	}
}

// typeCheck compiles src with go/types and returns the first error.
func typeCheck(t *testing.T, src string) error {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "out.go", src, parser.ParseComments)
	if err != nil {
		return err
	}
	conf := types.Config{Importer: importer.Default()}
	_, err = conf.Check("p", fset, []*ast.File{f}, nil)
	return err
}

func TestRun_AutoSliceOutputTypeChecks(t *testing.T) {
	const prelude = "package p\n\nimport \"unsafe\"\n\ntype K struct{ xs int }\n\n"
	tests := []struct {
		name string
		src  string
	}{
		{"unread", "//plbind:platypus\nfunc Count(xs []int32) int { return 0 }\n"},
		{"shadowed by closure", "//plbind:platypus\nfunc G(xs []int32) int {\n\tf := func(xs int) int { return xs }\n\treturn f(1)\n}\n"},
		{"composite key", "//plbind:platypus\nfunc H(xs []int32) K { return K{xs: 1} }\n"},
		{"read", "//plbind:platypus\nfunc Mean(nums []int32) int32 {\n\tif len(nums) == 0 {\n\t\treturn 0\n\t}\n\tvar total int32\n\tfor _, n := range nums {\n\t\ttotal += n\n\t}\n\treturn total / int32(len(nums))\n}\n"},
		{"two slices", "//plbind:platypus\nfunc Dot(a, b []float64) (sum float64) {\n\tfor i := range a {\n\t\tsum += a[i] * b[i]\n\t}\n\treturn\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := typeCheck(t, "package p\n\ntype K struct{ xs int }\n\n"+tt.src); err != nil {
				t.Fatalf("input does not type-check: %v", err)
			}
			ds := items(t, tt.src)
			if len(ds) != 1 {
				t.Fatalf("expected 1 item, got %d", len(ds))
			}
			res := Run(abi.Default(), ds[0].Marker.Intent, ds[0])
			if !res.Accepted() {
				t.Fatalf("rejected: %s", res.Diag.Message)
			}
			if err := typeCheck(t, prelude+res.Output.Text+"\n"); err != nil {
				t.Fatalf("output does not type-check: %v\n%s", err, res.Output.Text)
			}
		})
	}
}

func TestRun_AutoSliceRejectsResultNamedLength(t *testing.T) {
	ds := items(t, "//plbind:platypus\nfunc F(p []int32) (p_len int) { return 0 }\n")
	res := Run(abi.Default(), ds[0].Marker.Intent, ds[0])
	if res.Accepted() || res.Diag.Code != diag.PairingError {
		t.Fatalf("want PairingError, got %+v", res.Diag)
	}
}
