package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltersByScope(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeDecl, false},
		{LevelDebug, ScopeDecl, true},
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(&Event{Scope: tt.scope}); got != tt.want {
			t.Fatalf("%s/%s: want %v, got %v", tt.level, tt.scope, tt.want, got)
		}
	}
	if !LevelError.ShouldEmit(&Event{Scope: ScopeDecl, Err: "boom"}) {
		t.Fatalf("error level must keep failed events")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	root := Begin(tr, ScopeDriver, "gen", 0)
	file := Begin(tr, ScopeFile, "file:a.go", root.ID())
	Begin(tr, ScopeDecl, "decl:F", file.ID()).End("")
	file.WithExtra("decls", "1").End("ok")
	root.End("")

	out := buf.String()
	if strings.Contains(out, "decl:F") {
		t.Fatalf("decl scope should be filtered at detail level:\n%s", out)
	}
	if !strings.Contains(out, "file:a.go") || !strings.Contains(out, "{decls=1}") {
		t.Fatalf("missing file span:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", n, out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Begin(tr, ScopeDriver, "gen", 0).Fail(errors.New("boom"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 events, got %d", len(lines))
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if ev["kind"] != "end" || ev["error"] != "boom" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeDriver, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer should be Nop")
	}
	r := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	s := Begin(FromContext(ctx), ScopeDriver, "gen", 0)
	ctx = WithSpan(ctx, s)
	if CurrentSpan(ctx) != s.ID() {
		t.Fatalf("span not propagated")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level should give a disabled tracer")
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatalf("expected error for bogus mode")
	}
}
