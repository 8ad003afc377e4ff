package trace_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"formc/internal/trace"
)

func TestLevelShouldEmit(t *testing.T) {
	cases := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeCommand, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeIntegral, false},
		{trace.LevelDetail, trace.ScopeIntegral, true},
		{trace.LevelDetail, trace.ScopeNode, false},
		{trace.LevelDebug, trace.ScopeNode, true},
		{trace.LevelError, trace.ScopeIntegral, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		if _, err := trace.ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := trace.ParseLevel("verbose"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestStreamTracer_SpansNest(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelDetail, Mode: trace.ModeStream, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := trace.WithTracer(context.Background(), tr)

	ctx, file := trace.StartSpan(ctx, trace.ScopeFile, "a.toml")
	pctx, pass := trace.StartSpan(ctx, trace.ScopePass, "strip")
	_, itg := trace.StartSpan(pctx, trace.ScopeIntegral, "integral:0")
	trace.Point(pctx, trace.ScopeNode, "marker", "filtered out at detail")
	itg.WithExtra("markers", "2").End("")
	pass.End("")
	file.End("ok")

	out := buf.String()
	for _, want := range []string{"→ file:a.toml", "→ pass:strip", "← integral:integral:0 {markers=2}", "← file:a.toml (ok)"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "filtered out") {
		t.Errorf("node scope leaked at detail level:\n%s", out)
	}
}

func TestRingTracer_KeepsLastEvents(t *testing.T) {
	ring := trace.NewRingTracer(2, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&trace.Event{Kind: trace.KindPoint, Scope: trace.ScopeNode, Name: name})
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected ring contents: %+v", events)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, trace.FormatNDJSON); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d", got)
	}
}

func TestNew_ErrorLevelUsesRing(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelError, Mode: trace.ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := trace.Ring(tr); !ok {
		t.Fatalf("error level should buffer in a ring, got %T", tr)
	}
	both, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeBoth, Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := trace.Ring(both); !ok {
		t.Fatalf("both mode should expose its ring")
	}
}

func TestNopTracer(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("expected disabled tracer, got %v %v", tr, err)
	}
	ctx, span := trace.StartSpan(trace.WithTracer(context.Background(), tr), trace.ScopeCommand, "check")
	if span.End("") != 0 || trace.CurrentSpan(ctx).SpanID != 0 {
		t.Fatalf("disabled span should be inert")
	}
	if trace.StartHeartbeat(tr, 1) != nil {
		t.Fatalf("heartbeat should not start when tracing is off")
	}
}
