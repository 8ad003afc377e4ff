package observ_test

import (
	"strings"
	"sync"
	"testing"

	"formc/internal/observ"
)

func TestTimer_ConcurrentTrack(t *testing.T) {
	timer := observ.NewTimer()
	var wg sync.WaitGroup
	for _, name := range []string{"read:a", "read:b", "read:c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := timer.Track(name)
			done("ok")
		}()
	}
	wg.Wait()

	report := timer.Report()
	if len(report.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(report.Phases))
	}
	var sum float64
	for _, p := range report.Phases {
		sum += p.DurationMS
		if p.Note != "ok" {
			t.Fatalf("note lost: %+v", p)
		}
	}
	if report.TotalMS > sum+1 {
		t.Fatalf("wall-clock total %f exceeds phase sum %f", report.TotalMS, sum)
	}
	summary := timer.Summary()
	if !strings.HasPrefix(summary, "timings:\n") || !strings.Contains(summary, "total") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestTimer_Empty(t *testing.T) {
	timer := observ.NewTimer()
	timer.End(3, "ignored")
	if got := timer.Report(); got.TotalMS != 0 || len(got.Phases) != 0 {
		t.Fatalf("unexpected report %+v", got)
	}
}
