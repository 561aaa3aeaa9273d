package diag

import (
	"fmt"
	"sort"
	"strings"

	"plbind/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders diagnostics one per line as
// "<SEV> <CODE> <path>:<line>:<col> <message>", sorted deterministically.
// Notes are rendered as extra entries with severity "note" when includeNotes is set.
func FormatShortDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = append(rendered, render(fs, d.Severity.String(), d.Code, d.Primary, d.Message))
		if includeNotes {
			for _, n := range d.Notes {
				rendered = append(rendered, render(fs, "note", d.Code, n.Span, n.Msg))
			}
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func render(fs *source.FileSet, sev string, code Code, sp source.Span, msg string) shortDiagnostic {
	out := shortDiagnostic{Severity: sev, Code: code.ID(), Message: msg}
	if f := fs.Get(sp.File); f != nil {
		out.Path = f.Path
		start, _ := fs.Resolve(sp)
		out.Line, out.Column = start.Line, start.Col
	}
	return out
}
