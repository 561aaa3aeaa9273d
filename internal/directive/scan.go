package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"plbind/internal/diag"
	"plbind/internal/source"
)

// SpanFunc converts a token range into a source span.
type SpanFunc func(pos, end token.Pos) source.Span

// Marker is the parsed set of plbind directives attached to one declaration.
type Marker struct {
	Intent     Intent
	Span       source.Span
	Unsafe     bool
	UnsafeSpan source.Span
}

// ScanResult is the outcome of scanning one doc comment group.
type ScanResult struct {
	Marker Marker
	// Found is true when the group holds at least one plbind directive.
	Found bool
	// Doc holds the remaining comment lines with plbind directives removed.
	Doc   []string
	Diags []*diag.Diagnostic
}

// IsDirective reports whether comment text is a directive of prefix and
// returns the directive name.
func IsDirective(text, prefix string) (string, bool) {
	lead := "//" + prefix + ":"
	if !strings.HasPrefix(text, lead) {
		return "", false
	}
	rest := strings.TrimSpace(text[len(lead):])
	if fields := strings.Fields(rest); len(fields) > 0 {
		return fields[0], true
	}
	return "", true
}

// Scan extracts plbind directives from doc.
func Scan(doc *ast.CommentGroup, prefix string, span SpanFunc) ScanResult {
	var res ScanResult
	if doc == nil {
		return res
	}
	for _, c := range doc.List {
		name, ok := IsDirective(c.Text, prefix)
		if !ok {
			res.Doc = append(res.Doc, c.Text)
			continue
		}
		res.Found = true
		sp := span(c.Pos(), c.End())

		if name == UnsafeDirective {
			res.Marker.Unsafe = true
			res.Marker.UnsafeSpan = sp
			continue
		}
		intent, known := ParseIntent(name)
		if !known {
			res.Diags = append(res.Diags, diag.NewError(diag.DirUnknown, sp,
				fmt.Sprintf("unknown directive //%s:%s (expected export, record, opaque, platypus or unsafe)", prefix, name)))
			continue
		}
		if res.Marker.Intent != IntentNone {
			d := diag.NewError(diag.DirConflict, sp,
				fmt.Sprintf("//%s:%s conflicts with //%s:%s on the same declaration",
					prefix, intent.Directive(), prefix, res.Marker.Intent.Directive())).
				WithNote(res.Marker.Span, "first directive here")
			res.Diags = append(res.Diags, &d)
			continue
		}
		res.Marker.Intent = intent
		res.Marker.Span = sp
	}
	if res.Found && res.Marker.Intent == IntentNone && res.Marker.Unsafe && len(res.Diags) == 0 {
		w := diag.New(diag.SevWarning, diag.DirUnsafeOrphan, res.Marker.UnsafeSpan,
			fmt.Sprintf("//%s:unsafe has no effect without export or platypus", prefix))
		res.Diags = append(res.Diags, &w)
	}
	res.Doc = trimTrailingBlank(res.Doc)
	return res
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "//" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
