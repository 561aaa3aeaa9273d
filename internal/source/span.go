package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is a half-open byte range inside one file of a FileSet.
type Span struct {
	File  FileID
	Start uint32 // inclusive, bytes
	End   uint32 // exclusive, bytes
}

// SpanFromOffsets builds a span from int offsets as reported by go/token.
// Offsets that do not fit into uint32 collapse to an empty span at zero.
func SpanFromOffsets(file FileID, start, end int) Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{File: file}
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil || e < s {
		e = s
	}
	return Span{File: file, Start: s, End: e}
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}
