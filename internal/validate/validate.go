// Package validate enforces the ABI conventions of each intent. A
// declaration is either accepted as a whole or rejected with exactly one
// diagnostic anchored at the offending syntax.
package validate

import (
	"fmt"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/diag"
	"plbind/internal/directive"
	"plbind/internal/source"
)

// firstReporter keeps the first reported diagnostic.
type firstReporter struct {
	d *diag.Diagnostic
}

func (r *firstReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if r.d != nil {
		return
	}
	r.d = &diag.Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes, Fixes: fixes}
}

type validator struct {
	cfg      abi.Config
	intent   directive.Intent
	reporter *firstReporter
}

// Validate checks d against the rules of intent and returns nil when the
// declaration is accepted.
func Validate(intent directive.Intent, d *decl.Declaration, cfg abi.Config) *diag.Diagnostic {
	v := &validator{cfg: cfg.Normalize(), intent: intent, reporter: &firstReporter{}}
	switch intent {
	case directive.IntentExport:
		v.exportFunction(d)
	case directive.IntentRecord:
		v.exportRecord(d)
	case directive.IntentOpaque:
		v.exportOpaque(d)
	case directive.IntentPlatypus:
		v.autoSlice(d)
	}
	return v.reporter.d
}

func (v *validator) report(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(v.reporter, code, span, fmt.Sprintf(format, args...))
}

func (v *validator) directiveName() string {
	return "//" + v.cfg.DirectivePrefix + ":" + v.intent.Directive()
}

func (v *validator) unsupported(d *decl.Declaration, what string) {
	v.report(diag.UnsupportedItemError, d.NameSpan, "%s cannot be applied to %s '%s'", v.directiveName(), what, d.Name).
		WithNote(d.Marker.Span, "directive here").
		Emit()
}

func (v *validator) requirePublic(d *decl.Declaration) bool {
	if d.Visibility == decl.Public {
		return true
	}
	v.report(diag.VisibilityError, d.NameSpan, "'%s' must be exported to be used with %s", d.Name, v.directiveName()).
		WithNote(d.Marker.Span, "directive here").
		Emit()
	return false
}

// plainFunction rejects everything but a top-level, non-generic function.
func (v *validator) plainFunction(d *decl.Declaration) bool {
	switch {
	case d.Kind != decl.KindFunction:
		v.unsupported(d, d.Kind.String())
	case d.IsMethod():
		v.unsupported(d, "method")
	case d.IsGeneric():
		v.unsupported(d, "generic function")
	default:
		return true
	}
	return false
}

// plainBinding reports a ShapeError unless p is bound to a plain identifier.
func (v *validator) plainBinding(p decl.Param) bool {
	switch {
	case p.Name == "":
		v.report(diag.ShapeError, p.Span, "parameter of type %s must be named", p.TypeText).Emit()
	case p.Name == "_":
		v.report(diag.ShapeError, p.Span, "blank parameter cannot cross the C boundary; give it a name").Emit()
	case p.Variadic:
		v.report(diag.ShapeError, p.Span, "variadic parameter '%s' has no C equivalent", p.Name).Emit()
	default:
		return true
	}
	return false
}

func (v *validator) exportFunction(d *decl.Declaration) {
	if !v.plainFunction(d) || !v.requirePublic(d) {
		return
	}
	params := d.Func.Params
	var st pairState
	for i, p := range params {
		if !v.plainBinding(p) {
			return
		}
		if st.awaiting {
			if !v.closes(params, st.index, i) {
				return
			}
			st = pairState{}
			continue
		}
		if isArrayParam(p, v.cfg) {
			st = pairState{awaiting: true, name: p.Name, index: i}
		}
	}
	if st.awaiting {
		v.unclosed(params, st.index)
	}
}

func (v *validator) exportRecord(d *decl.Declaration) {
	switch {
	case d.Kind != decl.KindStruct:
		v.unsupported(d, d.Kind.String())
		return
	case d.IsGeneric():
		v.unsupported(d, "generic struct")
		return
	}
	if !v.requirePublic(d) {
		return
	}
	switch d.Struct.Shape {
	case decl.FieldsPositional:
		span := d.Struct.FieldsSpan
		for _, f := range d.Struct.Fields {
			if f.Embedded {
				span = f.Span
				break
			}
		}
		v.report(diag.ShapeError, span, "record '%s' must have named fields; embedded field %s has no stable C layout", d.Name, fieldLabel(d.Struct)).
			WithNote(d.NameSpan, fmt.Sprintf("use //%s:opaque to export it as a handle instead", v.cfg.DirectivePrefix)).
			Emit()
	case decl.FieldsUnit:
		v.report(diag.ShapeError, d.Struct.FieldsSpan, "record '%s' has no fields; empty structs have no C layout", d.Name).Emit()
	}
}

func fieldLabel(s *decl.StructDecl) string {
	for _, f := range s.Fields {
		if f.Embedded {
			return f.TypeText
		}
	}
	return ""
}

func (v *validator) exportOpaque(d *decl.Declaration) {
	if d.Kind != decl.KindStruct && d.Kind != decl.KindAlias {
		v.unsupported(d, d.Kind.String())
		return
	}
	v.requirePublic(d)
}

func (v *validator) autoSlice(d *decl.Declaration) {
	if !v.plainFunction(d) {
		return
	}
	if d.Func.Body == "" {
		v.unsupported(d, "function without body")
		return
	}
	names := make(map[string]bool, len(d.Func.Params)+len(d.Func.ResultNames))
	for _, p := range d.Func.Params {
		names[p.Name] = true
	}
	for _, r := range d.Func.ResultNames {
		names[r] = true
	}
	for _, p := range d.Func.Params {
		if p.Variadic {
			v.report(diag.ShapeError, p.Span, "variadic parameter '%s' has no C equivalent", p.Name).Emit()
			return
		}
		if !isSliceParam(p, v.cfg) {
			continue
		}
		if !v.plainBinding(p) {
			return
		}
		if lenName := abi.LengthName(p.Name); names[lenName] {
			v.report(diag.PairingError, p.NameSpan, "cannot synthesize '%s' for slice '%s': a parameter or result with that name already exists", lenName, p.Name).Emit()
			return
		}
	}
}
