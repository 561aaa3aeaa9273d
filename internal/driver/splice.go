package driver

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

// replacement swaps content[start:end] for text.
type replacement struct {
	start, end int
	text       string
}

// splice applies non-overlapping replacements to content.
func splice(content []byte, reps []replacement) []byte {
	sorted := append([]replacement(nil), reps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	var buf bytes.Buffer
	buf.Grow(len(content))
	last := 0
	for _, r := range sorted {
		buf.Write(content[last:r.start])
		buf.WriteString(r.text)
		last = r.end
	}
	buf.Write(content[last:])
	return buf.Bytes()
}

// finalize adds imports to the spliced source and formats it.
func finalize(path string, src []byte, imports []string, cgo bool) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	if cgo && !hasImport(f.Imports, "C") {
		// import "C" stays a declaration of its own so a later preamble can
		// attach to it.
		at := fset.Position(f.Name.End()).Offset
		patched := make([]byte, 0, len(src)+16)
		patched = append(patched, src[:at]...)
		patched = append(patched, "\n\nimport \"C\"\n"...)
		patched = append(patched, src[at:]...)
		fset = token.NewFileSet()
		if f, err = parser.ParseFile(fset, path, patched, parser.ParseComments); err != nil {
			return nil, err
		}
	}
	for _, imp := range imports {
		astutil.AddImport(fset, f, imp)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return buf.Bytes(), nil
}

func hasImport(specs []*ast.ImportSpec, path string) bool {
	for _, s := range specs {
		if p, err := strconv.Unquote(s.Path.Value); err == nil && p == path {
			return true
		}
	}
	return false
}
