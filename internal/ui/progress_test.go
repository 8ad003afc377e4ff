package ui

import (
	"errors"
	"strings"
	"testing"

	"formc/internal/pipeline"
)

func TestProgressModel_TracksStages(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("check", pipeline.ModeCheck, []string{"a.toml", "b.yaml"}, events).(*progressModel)

	feed := []pipeline.Event{
		{File: "a.toml", Stage: pipeline.StageRead, Status: pipeline.StatusWorking},
		{File: "a.toml", Stage: pipeline.StageRead, Status: pipeline.StatusDone},
		{File: "a.toml", Stage: pipeline.StageStrip, Status: pipeline.StatusDone},
		{File: "b.yaml", Stage: pipeline.StageRead, Status: pipeline.StatusError, Err: errors.New("boom")},
		{File: "unknown.toml", Stage: pipeline.StageRead, Status: pipeline.StatusDone},
	}
	for _, ev := range feed {
		m.applyEvent(ev)
	}

	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("unexpected statuses: %+v", m.items)
	}
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}
	ok, failed := m.counts()
	if ok != 1 || failed != 1 {
		t.Fatalf("counts = %d ok, %d failed", ok, failed)
	}
	if view := m.View(); !strings.Contains(view, "1 ok, 1 failed, 2 total") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestProgressModel_PartialProgress(t *testing.T) {
	m := NewProgressModel("strip", pipeline.ModeStrip, []string{"a.toml"}, nil).(*progressModel)
	m.applyEvent(pipeline.Event{File: "a.toml", Stage: pipeline.StageRead, Status: pipeline.StatusDone})
	m.applyEvent(pipeline.Event{File: "a.toml", Stage: pipeline.StageStrip, Status: pipeline.StatusWorking})
	if m.items[0].status != "stripping" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if got := m.percent(); got < 0.33 || got > 0.34 {
		t.Fatalf("percent = %v, want 1/3", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("forms/very/long/path.toml", 10); got != "forms/v..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
