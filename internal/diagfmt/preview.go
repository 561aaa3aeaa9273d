package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"plbind/internal/diag"
	"plbind/internal/source"
)

// editPreview holds the whole lines an edit touches, before and after it applies.
type editPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.TextEdit) (editPreview, error) {
	var f *source.File
	if fs != nil {
		f = fs.Get(edit.Span.File)
	}
	if f == nil {
		return editPreview{}, fmt.Errorf("preview: unknown file %d", edit.Span.File)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return editPreview{}, fmt.Errorf("preview: %w", err)
	}
	if edit.Span.Start > edit.Span.End || edit.Span.End > size {
		return editPreview{}, fmt.Errorf("preview: span %d..%d outside file", edit.Span.Start, edit.Span.End)
	}

	from, to := fs.Resolve(edit.Span)
	start := lineStart(f, from.Line, size)
	end := max(lineStart(f, max(to.Line, from.Line)+1, size), start)

	block := string(f.Content[start:end])
	rel0, rel1 := int(edit.Span.Start-start), int(edit.Span.End-start)
	changed := block[:rel0] + edit.NewText + block[rel1:]
	return editPreview{before: lines(block), after: lines(changed)}, nil
}

// lineStart is the offset of the first byte of 1-based line n, or size past the end.
func lineStart(f *source.File, n, size uint32) uint32 {
	if n <= 1 {
		return 0
	}
	if i := int(n - 2); i < len(f.LineIdx) {
		return f.LineIdx[i] + 1
	}
	return size
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
