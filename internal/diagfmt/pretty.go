package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"plbind/internal/diag"
	"plbind/internal/source"
)

type palette struct {
	err, warn, info, code, path, caret, note, fix, add, del *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:   mk(color.FgRed, color.Bold),
		warn:  mk(color.FgYellow, color.Bold),
		info:  mk(color.FgCyan, color.Bold),
		code:  mk(color.Bold),
		path:  mk(color.FgWhite, color.Bold),
		caret: mk(color.FgRed),
		note:  mk(color.FgBlue),
		fix:   mk(color.FgGreen),
		add:   mk(color.FgGreen),
		del:   mk(color.FgRed),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for humans, in bag order:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline, then notes and fixes
// when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.path.Sprint(location(fs, d.Primary, opts.PathMode)),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)
	writeContext(w, fs, d.Primary, int(opts.Context), p)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
		}
	}
	if !opts.ShowFixes {
		return
	}
	for i, f := range sortedFixes(d.Fixes) {
		line := fmt.Sprintf("fix #%d: %s [%s", i+1, f.Title, f.Applicability)
		if f.IsPreferred {
			line += ", preferred"
		}
		line += "]"
		if f.ID != "" {
			line += " id=" + f.ID
		}
		fmt.Fprintf(w, "  %s\n", p.fix.Sprint(line))
		for _, e := range f.Edits {
			start, end := resolve(fs, e.Span)
			fmt.Fprintf(w, "    edit %s:%d:%d-%d:%d apply=%q\n",
				formatPath(fs, e.Span.File, opts.PathMode), start.Line, start.Col, end.Line, end.Col, e.NewText)
			if !opts.ShowPreview {
				continue
			}
			pv, err := previewEdit(fs, e)
			if err != nil {
				continue
			}
			fmt.Fprintln(w, "    preview:")
			for _, l := range pv.before {
				fmt.Fprintf(w, "      %s\n", p.del.Sprint("- "+l))
			}
			for _, l := range pv.after {
				fmt.Fprintf(w, "      %s\n", p.add.Sprint("+ "+l))
			}
		}
	}
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	path := formatPath(fs, sp.File, mode)
	if fs.Get(sp.File) == nil {
		return path
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func resolve(fs *source.FileSet, sp source.Span) (source.LineCol, source.LineCol) {
	if fs.Get(sp.File) == nil {
		return source.LineCol{}, source.LineCol{}
	}
	return fs.Resolve(sp)
}

// writeContext prints the primary line, ctx lines around it, and a caret
// line under the primary span.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, ctx int, p palette) {
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	first := max(int(start.Line)-ctx, 1)
	last := int(start.Line) + ctx
	total := len(f.LineIdx) + 1
	last = min(last, total)
	width := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := strings.TrimRight(f.GetLine(uint32(ln)), "\r\n") // #nosec G115
		if ln == last && ln != int(start.Line) && text == "" {
			break
		}
		fmt.Fprintf(w, " %*d | %s\n", width, ln, expandTabs(text))
		if ln != int(start.Line) {
			continue
		}
		col := int(start.Col)
		n := 1
		if end.Line == start.Line && end.Col > start.Col {
			n = int(end.Col - start.Col)
		} else if end.Line > start.Line {
			n = max(len(text)-col+1, 1)
		}
		prefix := expandTabs(text[:min(col-1, len(text))])
		marker := "^" + strings.Repeat("~", n-1)
		fmt.Fprintf(w, " %*s | %s%s\n", width, "", strings.Repeat(" ", len(prefix)), p.caret.Sprint(marker))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
