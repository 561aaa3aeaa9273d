// Package transform rewrites validated declarations into their ABI form.
// Only auto-slice conversion changes the parameter list; the other intents
// attach attributes and pass the declaration through.
package transform

import (
	"fmt"
	"go/ast"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/directive"
	"plbind/internal/shape"
)

const (
	importUnsafe  = "unsafe"
	importStructs = "structs"
	// HostLayoutType is the marker field type fixing a struct's layout to the
	// platform C layout.
	HostLayoutType = "structs.HostLayout"
)

// Apply returns a rewritten copy of d. d must have been accepted by
// validate.Validate for the same intent.
func Apply(intent directive.Intent, d *decl.Declaration, cfg abi.Config) *decl.Declaration {
	cfg = cfg.Normalize()
	out := d.Clone()
	switch intent {
	case directive.IntentExport:
		out.Attrs.Export = true
		out.Attrs.Unsafe = d.Marker.Unsafe
	case directive.IntentRecord:
		out.Attrs.Layout = decl.LayoutC
		out.Imports = appendImport(out.Imports, importStructs)
	case directive.IntentOpaque:
		out.Attrs.Handle = true
	case directive.IntentPlatypus:
		out.Attrs.Export = true
		// Rebuilding a slice from a pointer and a length is never checked.
		out.Attrs.Unsafe = true
		lowerSlices(out.Func, cfg)
		if len(out.Func.Prologue) > 0 {
			out.Imports = appendImport(out.Imports, importUnsafe)
		}
	}
	return out
}

// lowerSlices splits every []T parameter p into `p *T, p_len <len>` and
// queues prologue statements rebinding p to the slice view. The blank
// assignment keeps the rebinding legal when the body never reads p.
func lowerSlices(fn *decl.FuncDecl, cfg abi.Config) {
	params := make([]decl.Param, 0, len(fn.Params))
	for _, p := range fn.Params {
		sh := shape.Classify(p.Type, cfg)
		if sh.Kind != shape.SliceReference {
			params = append(params, p)
			continue
		}
		lenName := abi.LengthName(p.Name)
		ptr := p
		ptr.Type = &ast.StarExpr{X: sh.Elem}
		ptr.TypeText = "*" + sh.ElemText()
		params = append(params, ptr, decl.Param{
			Name:        lenName,
			Type:        ast.NewIdent(cfg.LengthType),
			TypeText:    cfg.LengthType,
			Span:        p.Span,
			NameSpan:    p.NameSpan,
			Synthesized: true,
		})
		fn.Rewritten = true
		fn.Prologue = append(fn.Prologue,
			fmt.Sprintf("%s := unsafe.Slice(%s, %s)", p.Name, p.Name, lenName),
			"_ = "+p.Name)
	}
	fn.Params = params
}

func appendImport(imports []string, path string) []string {
	for _, p := range imports {
		if p == path {
			return imports
		}
	}
	return append(imports, path)
}
