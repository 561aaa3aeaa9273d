// Package decl is the typed declaration model plbind operates on. A
// Declaration is lowered once from go/ast by Parse and then flows through
// the classifier, validator, transformer and emitter. Stages never mutate a
// Declaration they receive; rewrites work on a Clone.
package decl

import (
	"go/ast"

	"plbind/internal/directive"
	"plbind/internal/source"
)

// Kind tags the Declaration variant.
type Kind uint8

const (
	KindOther Kind = iota
	KindFunction
	KindStruct
	// KindAlias covers both `type T = U` and `type T U` with a non-struct U.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindAlias:
		return "type"
	default:
		return "item"
	}
}

type Visibility uint8

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "non-public"
}

// Layout is the memory layout attribute attached to a record.
type Layout uint8

const (
	LayoutGo Layout = iota
	LayoutC
)

// Attrs are the ABI attributes attached by the transformer and rendered by
// the emitter.
type Attrs struct {
	// Export fixes the external symbol name to the declaration name and the
	// calling convention to C (cgo //export).
	Export bool
	Layout Layout
	// Handle marks an opaque boundary type.
	Handle bool
	// Unsafe marks an unchecked boundary function (//plbind:unsafe).
	Unsafe bool
}

// Declaration is one annotated top-level item.
type Declaration struct {
	Kind       Kind
	Name       string
	NameSpan   source.Span
	Visibility Visibility
	Marker     directive.Marker
	// Doc holds the doc comment lines with plbind directives removed.
	Doc []string
	// Text is the declaration source without its doc comment.
	Text string
	// Span covers Text; ReplaceSpan additionally covers the doc comment and
	// is the range the emitter output replaces.
	Span        source.Span
	ReplaceSpan source.Span
	// Grouped is set for type specs inside `type ( ... )`.
	Grouped bool

	Func   *FuncDecl
	Struct *StructDecl
	Alias  *AliasDecl

	Attrs   Attrs
	Imports []string
}

// FuncDecl is the function payload.
type FuncDecl struct {
	Params     []Param
	ParamsSpan source.Span
	Results    string
	// ResultNames lists named results in order; empty for unnamed results.
	ResultNames []string
	Body        string
	BodySpan    source.Span
	// Receiver and TypeParams hold source text when present.
	Receiver   string
	TypeParams string
	// Prologue holds statements the transformer runs before the body.
	Prologue []string
	// Rewritten is set when Params no longer mirror the source text.
	Rewritten bool
}

// Param is one parameter binding; grouped parameters are flattened.
type Param struct {
	Name     string
	NameSpan source.Span
	Type     ast.Expr
	TypeText string
	Span     source.Span
	Variadic bool
	// Synthesized marks parameters inserted by the transformer.
	Synthesized bool
}

// FieldShape is the shape of a struct field list.
type FieldShape uint8

const (
	FieldsNamed FieldShape = iota
	// FieldsPositional is a field list holding at least one embedded field.
	FieldsPositional
	FieldsUnit
)

func (s FieldShape) String() string {
	switch s {
	case FieldsNamed:
		return "named"
	case FieldsPositional:
		return "positional"
	default:
		return "unit"
	}
}

// StructDecl is the struct payload.
type StructDecl struct {
	TypeParams string
	Fields     []Field
	Shape      FieldShape
	FieldsSpan source.Span
	// BraceOffset is the offset of the opening brace inside Declaration.Text.
	BraceOffset int
}

// Field is one line of a struct field list.
type Field struct {
	Names    []string
	TypeText string
	Tag      string
	Embedded bool
	Span     source.Span
}

// AliasDecl is the payload of non-struct type declarations.
type AliasDecl struct {
	TypeParams string
	TypeText   string
	Assign     bool
}

// IsMethod reports whether the function has a receiver.
func (d *Declaration) IsMethod() bool {
	return d.Func != nil && d.Func.Receiver != ""
}

// IsGeneric reports whether the function or type declares type parameters.
func (d *Declaration) IsGeneric() bool {
	switch {
	case d.Func != nil:
		return d.Func.TypeParams != ""
	case d.Struct != nil:
		return d.Struct.TypeParams != ""
	case d.Alias != nil:
		return d.Alias.TypeParams != ""
	}
	return false
}

// Clone returns a deep copy; ast.Expr nodes are shared read-only.
func (d *Declaration) Clone() *Declaration {
	if d == nil {
		return nil
	}
	out := *d
	out.Doc = append([]string(nil), d.Doc...)
	out.Imports = append([]string(nil), d.Imports...)
	if d.Func != nil {
		f := *d.Func
		f.Params = append([]Param(nil), d.Func.Params...)
		f.Prologue = append([]string(nil), d.Func.Prologue...)
		f.ResultNames = append([]string(nil), d.Func.ResultNames...)
		out.Func = &f
	}
	if d.Struct != nil {
		s := *d.Struct
		s.Fields = make([]Field, len(d.Struct.Fields))
		for i, fl := range d.Struct.Fields {
			fl.Names = append([]string(nil), fl.Names...)
			s.Fields[i] = fl
		}
		out.Struct = &s
	}
	if d.Alias != nil {
		a := *d.Alias
		out.Alias = &a
	}
	return &out
}

// FieldNames returns the declared field names in order; embedded fields
// contribute their type text.
func (s *StructDecl) FieldNames() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Embedded {
			out = append(out, f.TypeText)
			continue
		}
		out = append(out, f.Names...)
	}
	return out
}
