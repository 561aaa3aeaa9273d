// Package emit renders transformed declarations back into Go source.
package emit

import (
	"strings"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/directive"
	"plbind/internal/transform"
)

// Output is the rendered replacement text of one declaration and the
// imports it needs.
type Output struct {
	Text    string
	Imports []string
}

// Emit renders d. The text replaces d.ReplaceSpan in the source file.
func Emit(d *decl.Declaration, cfg abi.Config) Output {
	cfg = cfg.Normalize()
	var b strings.Builder
	for _, line := range d.Doc {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	switch {
	case d.Func != nil:
		// gofmt separates trailing directives from doc text with a blank line.
		if len(d.Doc) > 0 && (d.Attrs.Unsafe || d.Attrs.Export) {
			b.WriteString("//\n")
		}
		if d.Attrs.Unsafe {
			b.WriteString("//" + cfg.DirectivePrefix + ":" + directive.UnsafeDirective + "\n")
		}
		if d.Attrs.Export {
			b.WriteString("//export " + d.Name + "\n")
		}
		b.WriteString(funcText(d))
	case d.Struct != nil && d.Attrs.Layout == decl.LayoutC:
		b.WriteString(recordText(d))
	default:
		b.WriteString(d.Text)
	}
	return Output{Text: b.String(), Imports: append([]string(nil), d.Imports...)}
}

func funcText(d *decl.Declaration) string {
	fn := d.Func
	if !fn.Rewritten && len(fn.Prologue) == 0 {
		return d.Text
	}
	var b strings.Builder
	b.WriteString("func ")
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(p.TypeText)
	}
	b.WriteByte(')')
	if fn.Results != "" {
		b.WriteByte(' ')
		b.WriteString(fn.Results)
	}
	b.WriteByte(' ')
	b.WriteString(body(fn))
	return b.String()
}

// body nests the original statements in an inner block so the prologue can
// shadow parameters, which share the function block.
func body(fn *decl.FuncDecl) string {
	if len(fn.Prologue) == 0 {
		return fn.Body
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(fn.Body, "{"), "}")
	var b strings.Builder
	b.WriteString("{\n{\n")
	for _, stmt := range fn.Prologue {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Trim(inner, "\n"))
	b.WriteString("\n}\n}")
	return b.String()
}

func recordText(d *decl.Declaration) string {
	for _, f := range d.Struct.Fields {
		if f.TypeText == transform.HostLayoutType {
			return d.Text
		}
	}
	at := d.Struct.BraceOffset + 1
	field := "\n\t_ " + transform.HostLayoutType
	if !strings.HasPrefix(d.Text[at:], "\n") {
		field += "\n"
	}
	return d.Text[:at] + field + d.Text[at:]
}
