// Package fix builds fix suggestions for diagnostics and applies them to
// source files.
package fix

import (
	"plbind/internal/diag"
	"plbind/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// Preferred marks the fix as the preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets a stable identifier.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func build(title string, app diag.FixApplicability, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{Title: title, Applicability: app, Edits: edits}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText inserts text at the start of at.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return build(title, diag.FixApplicabilityAlwaysSafe, []diag.TextEdit{{Span: at, NewText: text}}, opts)
}

// ReplaceSpan replaces the text under span; expect guards the edit.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(title, diag.FixApplicabilityAlwaysSafe, []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}}, opts)
}
