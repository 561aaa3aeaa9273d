package ui

import (
	"errors"
	"strings"
	"testing"

	"plbind/internal/driver"
)

func TestApplyEventTracksStatus(t *testing.T) {
	m := NewProgressModel("gen", []string{"a.go", "b.go", "c.go"}, nil).(*progressModel)

	m.applyEvent(driver.Event{File: "a.go", Stage: driver.StageParse, Status: driver.StatusWorking})
	if m.items[0].status != "parsing" {
		t.Fatalf("status = %q, want parsing", m.items[0].status)
	}
	m.applyEvent(driver.Event{File: "a.go", Stage: driver.StageGenerate, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "b.go", Stage: driver.StageGenerate, Status: driver.StatusCached})
	m.applyEvent(driver.Event{File: "c.go", Stage: driver.StageGenerate, Status: driver.StatusError, Err: errors.New("boom")})
	m.applyEvent(driver.Event{File: "c.go", Stage: driver.StageFormat, Status: driver.StatusWorking})
	m.applyEvent(driver.Event{File: "zzz.go", Status: driver.StatusDone})

	got := []string{m.items[0].status, m.items[1].status, m.items[2].status}
	if strings.Join(got, ",") != "done,cached,error" {
		t.Fatalf("statuses = %v", got)
	}
	if m.failed != 1 || m.cached != 1 {
		t.Fatalf("failed=%d cached=%d", m.failed, m.cached)
	}
	if p := m.percent(); p != 1.0 {
		t.Fatalf("percent = %v, want 1", p)
	}
}

func TestViewListsFiles(t *testing.T) {
	m := NewProgressModel("gen", []string{"pkg/a.go"}, nil).(*progressModel)
	m.done = true
	view := m.View()
	if !strings.Contains(view, "pkg/a.go") || !strings.Contains(view, "done: gen") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.go", 20, "short.go"},
		{"a/very/long/path/file.go", 10, "a/ve..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
