// Package shape classifies parameter type expressions into the categories
// the ABI rules care about.
package shape

import (
	"go/ast"
	"go/types"

	"plbind/internal/abi"
)

// Kind is the classification tag of a type expression.
type Kind uint8

const (
	Unrecognized Kind = iota
	Scalar
	RawPointer
	SliceReference
	ArrayAlias
	Opaque
)

var kindNames = [...]string{
	Unrecognized:   "unrecognized",
	Scalar:         "scalar",
	RawPointer:     "raw pointer",
	SliceReference: "slice",
	ArrayAlias:     "array",
	Opaque:         "opaque",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Shape is the classification result. Elem is set for RawPointer,
// SliceReference and ArrayAlias; a bare alias identifier has a nil Elem.
type Shape struct {
	Kind Kind
	Elem ast.Expr
}

// ElemText renders Elem, or "" when absent.
func (s Shape) ElemText() string {
	if s.Elem == nil {
		return ""
	}
	return types.ExprString(s.Elem)
}

var scalarIdents = map[string]struct{}{
	"bool": {}, "byte": {}, "rune": {}, "uintptr": {},
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"float32": {}, "float64": {}, "complex64": {}, "complex128": {},
}

// IsScalarIdent reports whether name is a predeclared numeric or boolean type.
func IsScalarIdent(name string) bool {
	_, ok := scalarIdents[name]
	return ok
}

// Classify is total: every expression, including nil, maps to exactly one Kind.
func Classify(expr ast.Expr, cfg abi.Config) Shape {
	cfg = cfg.Normalize()
	switch e := expr.(type) {
	case *ast.ArrayType:
		if e.Len == nil {
			return Shape{Kind: SliceReference, Elem: e.Elt}
		}
	case *ast.StarExpr:
		return Shape{Kind: RawPointer, Elem: e.X}
	case *ast.Ident:
		switch {
		case e.Name == cfg.AliasIdent:
			return Shape{Kind: ArrayAlias}
		case IsScalarIdent(e.Name):
			return Shape{Kind: Scalar}
		default:
			return Shape{Kind: Opaque}
		}
	case *ast.IndexExpr:
		if id, ok := e.X.(*ast.Ident); ok && id.Name == cfg.AliasIdent {
			return Shape{Kind: ArrayAlias, Elem: e.Index}
		}
		if isTypeName(e.X) {
			return Shape{Kind: Opaque}
		}
	case *ast.IndexListExpr:
		if isTypeName(e.X) {
			return Shape{Kind: Opaque}
		}
	case *ast.SelectorExpr:
		if pkg, ok := e.X.(*ast.Ident); ok {
			if pkg.Name == "C" {
				return Shape{Kind: Scalar}
			}
			return Shape{Kind: Opaque}
		}
	case *ast.ParenExpr:
		return Classify(e.X, cfg)
	}
	return Shape{Kind: Unrecognized}
}

func isTypeName(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := e.X.(*ast.Ident)
		return ok
	}
	return false
}

// IsLengthType reports whether expr spells the configured length type, e.g.
// `uintptr` or `C.size_t`.
func IsLengthType(expr ast.Expr, cfg abi.Config) bool {
	if expr == nil {
		return false
	}
	cfg = cfg.Normalize()
	return types.ExprString(expr) == cfg.LengthType
}
