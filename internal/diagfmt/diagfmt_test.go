package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"formc/internal/diag"
	"formc/internal/diagfmt"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.MarkChainMismatch, diag.Location{File: "/tmp/forms/a.toml", Integral: 1},
		"not all integrals received the same coordinate derivative").WithNote("compare with integral 0").Emit()
	diag.ReportInfo(r, diag.MarkChainCount, diag.Location{File: "/tmp/forms/b.toml", Integral: diag.NoIntegral},
		"2 integral(s), chain []").Emit()
	bag.Sort()
	return bag
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := diagfmt.Pretty(&buf, sampleBag(), diagfmt.PrettyOpts{PathMode: diagfmt.PathModeBasename, ShowNotes: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := "a.toml#1: ERROR CD2002: not all integrals received the same coordinate derivative\n" +
		"  note: compare with integral 0\n"
	if got := buf.String(); got != want {
		t.Fatalf("Pretty output:\n%q\nwant:\n%q", got, want)
	}

	buf.Reset()
	if err := diagfmt.Pretty(&buf, sampleBag(), diagfmt.PrettyOpts{PathMode: diagfmt.PathModeBasename, ShowInfo: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "b.toml: INFO CD2005") || strings.Contains(buf.String(), "note:") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := diagfmt.Short(&buf, sampleBag(), diagfmt.PathModeBasename); err != nil {
		t.Fatalf("Short: %v", err)
	}
	if got := buf.String(); got != "a.toml:1: CD2002\n" {
		t.Fatalf("Short = %q", got)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, sampleBag(), diagfmt.JSONOpts{PathMode: diagfmt.PathModeAbsolute, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Errors != 1 {
		t.Fatalf("count=%d errors=%d", out.Count, out.Errors)
	}
	first := out.Diagnostics[0]
	if first.Code != "CD2002" || first.Location.Integral == nil || *first.Location.Integral != 1 || len(first.Notes) != 1 {
		t.Fatalf("unexpected first diagnostic: %+v", first)
	}
	if out.Diagnostics[1].Location.Integral != nil {
		t.Fatalf("form-level diagnostic should omit integral")
	}

	limited := diagfmt.BuildDiagnosticsOutput(sampleBag(), diagfmt.JSONOpts{Max: 1})
	if limited.Count != 1 || limited.Errors != 1 {
		t.Fatalf("Max not applied: %+v", limited)
	}
}
