package source

import "testing"

func TestSpanFromOffsets(t *testing.T) {
	if got := SpanFromOffsets(2, 4, 9); got != (Span{File: 2, Start: 4, End: 9}) {
		t.Fatalf("SpanFromOffsets = %v", got)
	}
	if got := SpanFromOffsets(2, -1, 9); got != (Span{File: 2}) {
		t.Fatalf("negative start must collapse, got %v", got)
	}
	if got := SpanFromOffsets(2, 8, 3); got != (Span{File: 2, Start: 8, End: 8}) {
		t.Fatalf("inverted offsets must collapse to start, got %v", got)
	}
}

func TestSpanLenAndString(t *testing.T) {
	sp := Span{File: 1, Start: 3, End: 10}
	if sp.Len() != 7 {
		t.Fatalf("Len = %d", sp.Len())
	}
	if sp.String() != "1:3-10" {
		t.Fatalf("String = %q", sp.String())
	}
}
