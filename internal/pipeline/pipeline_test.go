package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formc/internal/diag"
	"formc/internal/form"
	"formc/internal/observ"
	"formc/internal/pipeline"
	"formc/internal/snapshot"
	"formc/internal/testkit"
	"formc/internal/trace"
)

const goodTOML = `
[[integral]]
type = "cell"
domain = "mesh"
integrand = "(coordinate_derivative (inner (grad u) (grad v)) w _ _)"

[[integral]]
type = "exterior_facet"
domain = "mesh"
integrand = "(coordinate_derivative (* u v) w _ _)"
`

const inconsistentYAML = `
integral:
  - {type: cell, domain: mesh, integrand: "(coordinate_derivative u w _ _)"}
  - {type: cell, domain: mesh, integrand: "(coordinate_derivative u x _ _)"}
`

const innerMarkerYAML = `
integral:
  - {type: cell, domain: mesh, integrand: "(neg (coordinate_derivative u w _ _))"}
`

const brokenTOML = `
[[integral]]
type = "cell"
domain = "mesh"
integrand = "(grad u"
`

func writeForms(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func resultFor(t *testing.T, res *pipeline.Result, suffix string) *pipeline.FileResult {
	t.Helper()
	for _, fr := range res.Files {
		if strings.HasSuffix(fr.Path, suffix) {
			return fr
		}
	}
	t.Fatalf("no result for %s", suffix)
	return nil
}

func errorCodes(bag *diag.Bag) []diag.Code {
	var codes []diag.Code
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

func TestRun_Check(t *testing.T) {
	paths := writeForms(t, map[string]string{
		"good.toml":     goodTOML,
		"mismatch.yaml": inconsistentYAML,
		"inner.yaml":    innerMarkerYAML,
		"broken.toml":   brokenTOML,
	})
	sink := &pipeline.RecordingSink{}
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:    paths,
		Mode:     pipeline.ModeCheck,
		Jobs:     2,
		Progress: sink,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Failed(); got != 3 {
		t.Fatalf("expected 3 failed files, got %d", got)
	}

	good := resultFor(t, res, "good.toml")
	if good.Failed() || good.Chain.Len() != 1 || good.Stripped == nil {
		t.Fatalf("good file: failed=%v chain=%v", good.Failed(), good.Chain)
	}
	if err := testkit.CheckBuilderInvariants(good.Builder); err != nil {
		t.Fatalf("builder invariants: %v", err)
	}
	if err := testkit.CheckForm(good.Builder, good.Stripped); err != nil {
		t.Fatalf("stripped form: %v", err)
	}

	cases := []struct {
		file     string
		code     diag.Code
		integral int
	}{
		{"mismatch.yaml", diag.MarkChainMismatch, 1},
		{"inner.yaml", diag.MarkNotOutermost, 0},
		{"broken.toml", diag.ReadExprSyntax, 0},
	}
	for _, tc := range cases {
		fr := resultFor(t, res, tc.file)
		codes := errorCodes(fr.Bag)
		if len(codes) != 1 || codes[0] != tc.code {
			t.Errorf("%s: codes %v, want [%s]", tc.file, codes, tc.code.ID())
			continue
		}
		for _, d := range fr.Bag.Items() {
			if d.Severity == diag.SevError && d.Location.Integral != tc.integral {
				t.Errorf("%s: integral %d, want %d", tc.file, d.Location.Integral, tc.integral)
			}
		}
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("merged bag lost errors")
	}

	var done, failed int
	for _, ev := range sink.Events() {
		switch ev.Status {
		case pipeline.StatusDone:
			done++
		case pipeline.StatusError:
			failed++
		}
	}
	// good: read+strip, mismatch/inner: read done, strip failed, broken: read failed
	if done != 4 || failed != 3 {
		t.Fatalf("done=%d failed=%d", done, failed)
	}
}

func TestRun_StripWritesSnapshots(t *testing.T) {
	paths := writeForms(t, map[string]string{"good.toml": goodTOML})
	store, err := snapshot.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	timer := observ.NewTimer()
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:     paths,
		Mode:      pipeline.ModeStrip,
		Snapshots: store,
		Timer:     timer,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	fr := res.Files[0]
	if fr.Failed() || fr.Snapshot == nil || fr.SnapshotPath == "" {
		t.Fatalf("no snapshot written: %+v", fr.Bag.Items())
	}
	if !fr.Timings.Has(pipeline.StageSnapshot) {
		t.Fatalf("snapshot stage not timed")
	}
	if got := len(timer.Report().Phases); got != 3 {
		t.Fatalf("expected 3 timer phases, got %d", got)
	}

	snap, err := store.Load(fr.Snapshot.ID.String())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, restored, err := pipeline.Attach(context.Background(), snap)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if b.Format(restored.Integral(0).Integrand()) != "(coordinate_derivative (inner (grad u) (grad v)) w _ _)" {
		t.Fatalf("unexpected restored integrand %s", b.Format(restored.Integral(0).Integrand()))
	}
}

func TestRun_RoundTrip(t *testing.T) {
	paths := writeForms(t, map[string]string{"good.toml": goodTOML, "plain.yaml": "integral:\n  - {type: cell, domain: mesh, integrand: \"(grad u)\"}\n"})
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelDebug, Mode: trace.ModeStream, Output: &buf})
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	ctx := trace.WithTracer(context.Background(), tr)
	res, err := pipeline.Run(ctx, &pipeline.Request{Files: paths, Mode: pipeline.ModeRoundTrip, Strict: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, fr := range res.Files {
		if fr.Failed() {
			t.Fatalf("%s: %+v", fr.Path, fr.Bag.Items())
		}
		if !form.Equal(fr.Builder, fr.Restored, fr.Form) {
			t.Fatalf("%s: round trip changed the form", fr.Path)
		}
		if fr.Chain.Len() > 0 && fr.Restored.Integral(0).Integrand() == fr.Form.Integral(0).Integrand() {
			t.Fatalf("%s: restored form should be rebuilt, not the input", fr.Path)
		}
	}
	plain := resultFor(t, res, "plain.yaml")
	if plain.Chain.IsNone() || plain.Chain.Len() != 0 {
		t.Fatalf("plain form should carry an empty chain")
	}
	out := buf.String()
	for _, want := range []string{"command:roundtrip", "pass:attach", "integral:integral:0", "node:marker:0"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q", want)
		}
	}
}

func TestRun_EmptyAndCancelled(t *testing.T) {
	res, err := pipeline.Run(context.Background(), &pipeline.Request{})
	if err != nil || len(res.Files) != 0 {
		t.Fatalf("empty run: %v %v", res, err)
	}
	if _, err := pipeline.Run(context.Background(), &pipeline.Request{Mode: "explode"}); err == nil {
		t.Fatalf("expected unknown mode error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths := writeForms(t, map[string]string{"good.toml": goodTOML})
	if _, err := pipeline.Run(ctx, &pipeline.Request{Files: paths}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestModeStages(t *testing.T) {
	if got := pipeline.ModeStrip.Stages(); len(got) != 3 || got[2] != pipeline.StageSnapshot {
		t.Fatalf("strip stages = %v", got)
	}
	if got := pipeline.ModeCheck.Stages(); len(got) != 2 {
		t.Fatalf("check stages = %v", got)
	}
}
