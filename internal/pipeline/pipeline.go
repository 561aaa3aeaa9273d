// Package pipeline composes validation, transformation and emission for a
// single declaration. Run keeps no state between calls.
package pipeline

import (
	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/diag"
	"plbind/internal/directive"
	"plbind/internal/emit"
	"plbind/internal/transform"
	"plbind/internal/validate"
)

// Result holds either a transformed declaration with its output or the
// diagnostic that rejected it.
type Result struct {
	Decl   *decl.Declaration
	Output emit.Output
	Diag   *diag.Diagnostic
}

// Accepted reports whether the declaration was transformed.
func (r Result) Accepted() bool {
	return r.Diag == nil && r.Decl != nil
}

// Run processes d under intent.
func Run(cfg abi.Config, intent directive.Intent, d *decl.Declaration) Result {
	if d == nil || intent == directive.IntentNone {
		return Result{}
	}
	if dg := validate.Validate(intent, d, cfg); dg != nil {
		return Result{Diag: dg}
	}
	out := transform.Apply(intent, d, cfg)
	return Result{Decl: out, Output: emit.Emit(out, cfg)}
}
