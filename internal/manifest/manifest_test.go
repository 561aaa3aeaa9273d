package manifest

import (
	"bytes"
	"testing"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/pipeline"
	"plbind/internal/source"
)

func build(t *testing.T, src string) *Manifest {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("stats.go", []byte("package stats\n\n"+src))
	f := decl.Parse(fs, id, abi.Default())
	m := New(abi.Default())
	for _, d := range f.Items {
		res := pipeline.Run(abi.Default(), d.Marker.Intent, d)
		if !res.Accepted() {
			t.Fatalf("%s rejected: %s", d.Name, res.Diag.Message)
		}
		m.Add(f.Package, "stats.go", d.Marker.Intent, res.Decl, abi.Default())
	}
	m.Sort()
	return m
}

const statsSrc = `//plbind:record
type Point struct{ X, Y int32 }

//plbind:opaque
type Window = uintptr

//plbind:platypus
func Avg(nums []int32) int32 { return nums[0] }

//plbind:export
func Sum(values array[int32], values_len uintptr, scale float64) int64 { return 0 }
`

func TestFromDecl_Roles(t *testing.T) {
	m := build(t, statsSrc)
	avg, err := m.Lookup("stats", "Avg")
	if err != nil {
		t.Fatal(err)
	}
	if avg.Symbol != "Avg" || !avg.Unsafe || avg.Intent != "auto-slice-conversion" {
		t.Fatalf("unexpected Avg entry %+v", avg)
	}
	if len(avg.Params) != 2 || avg.Params[0].Role != RolePointer || avg.Params[1].Role != RoleLength || avg.Params[1].Of != "nums" {
		t.Fatalf("unexpected Avg params %+v", avg.Params)
	}

	sum, _ := m.Lookup("stats", "Sum")
	roles := []string{RoleArray, RoleLength, RoleScalar}
	for i, r := range roles {
		if sum.Params[i].Role != r {
			t.Fatalf("Sum param %d: want %s, got %s", i, r, sum.Params[i].Role)
		}
	}

	point, _ := m.Lookup("stats", "Point")
	if point.Layout != "c" || len(point.Fields) != 2 || point.Fields[1].Name != "Y" {
		t.Fatalf("unexpected Point entry %+v", point)
	}
	window, _ := m.Lookup("stats", "Window")
	if window.Underlying != "uintptr" || window.Symbol != "" {
		t.Fatalf("unexpected Window entry %+v", window)
	}
	if m.Entries[0].Name != "Avg" {
		t.Fatalf("entries should be sorted by name, got %s first", m.Entries[0].Name)
	}
}

func TestCodecs(t *testing.T) {
	m := build(t, statsSrc)
	for _, format := range []Format{FormatJSON, FormatYAML, FormatMsgpack} {
		var buf bytes.Buffer
		if err := Encode(&buf, m, format); err != nil {
			t.Fatalf("%s: encode: %v", format, err)
		}
		got, err := Decode(&buf, format)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		if len(got.Entries) != len(m.Entries) || got.LengthType != "uintptr" {
			t.Fatalf("%s: entries lost", format)
		}
		sum, err := got.Lookup("stats", "Sum")
		if err != nil || len(sum.Params) != 3 || sum.Params[1].Of != "values" {
			t.Fatalf("%s: Sum did not survive: %+v %v", format, sum, err)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if FormatForPath("out.yml", FormatJSON) != FormatYAML || FormatForPath("out", FormatMsgpack) != FormatMsgpack {
		t.Fatalf("unexpected format for path")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestCollisions(t *testing.T) {
	m := &Manifest{Entries: []Entry{
		{Name: "ﬁnd", Package: "p"},
		{Name: "find", Package: "p"},
		{Name: "Other", Package: "p"},
		{Name: "find", Package: "q"},
	}}
	got := m.Collisions()
	if len(got) != 1 {
		t.Fatalf("collisions = %+v", got)
	}
	if got[0].Key != "find" || len(got[0].Names) != 2 || got[0].Names[0] != "find" || got[0].Names[1] != "ﬁnd" {
		t.Fatalf("collision = %+v", got[0])
	}
	if HostKey("Sum") != "Sum" {
		t.Fatal("ASCII names must fold to themselves")
	}
}
