package diag

import "plbind/internal/source"

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the bytes under Span with NewText. OldText, when set,
// guards the edit: the fix engine refuses to apply it if the file no longer
// contains OldText at Span.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixApplicability ranks how safe it is to apply a fix without review.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// Error lets a Diagnostic travel as an error value inside the pipeline.
func (d *Diagnostic) Error() string {
	return d.Code.ID() + ": " + d.Message
}
