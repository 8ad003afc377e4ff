// Package pipeline runs the coordinate derivative pass over many form files
// concurrently, one expression builder per file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"formc/internal/cdpass"
	"formc/internal/diag"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/formfile"
	"formc/internal/observ"
	"formc/internal/snapshot"
	"formc/internal/trace"
)

// Request configures one pipeline run.
type Request struct {
	Files          []string
	Mode           Mode
	Jobs           int  // <= 0 means GOMAXPROCS
	Strict         bool // confirm chain hashes structurally
	MaxDiagnostics int
	Progress       ProgressSink
	// Snapshots receives stripped forms in ModeStrip; nil skips saving.
	Snapshots *snapshot.Store
	// Timer, when set, records one phase per file and stage.
	Timer *observ.Timer
}

// FileResult is everything the run learned about one file. Fields past the
// failing stage are left nil.
type FileResult struct {
	Path         string
	Builder      *expr.Builder
	Form         *form.Form
	Stripped     *form.Form
	Chain        *cdpass.Chain
	Restored     *form.Form
	Snapshot     *snapshot.Snapshot
	SnapshotPath string
	Bag          *diag.Bag
	Timings      *Timings
}

// Failed reports whether the file produced error diagnostics.
func (r *FileResult) Failed() bool {
	return r.Bag.HasErrors()
}

type Result struct {
	Files []*FileResult
	// Bag holds the diagnostics of all files, sorted.
	Bag *diag.Bag
}

// Failed returns the number of files with errors.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Failed() {
			n++
		}
	}
	return n
}

// Run processes req.Files. Problems in a file are reported as diagnostics in
// its FileResult; the returned error is reserved for a bad request or a
// cancelled context.
func Run(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("missing pipeline request")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeCheck
	}
	switch mode {
	case ModeCheck, ModeStrip, ModeRoundTrip:
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", mode)
	}

	result := &Result{
		Files: make([]*FileResult, len(req.Files)),
		Bag:   diag.NewBag(req.MaxDiagnostics),
	}
	if len(req.Files) == 0 {
		return result, nil
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeCommand, string(mode))
	defer span.End("")
	span.WithExtra("files", strconv.Itoa(len(req.Files)))

	emitQueued(req.Progress, req.Files, StageRead)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Files)))
	for i, path := range req.Files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			w := &worker{req: req, mode: mode}
			result.Files[i] = w.process(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for _, fr := range result.Files {
		result.Bag.Merge(fr.Bag)
	}
	result.Bag.Sort()
	return result, nil
}

type worker struct {
	req  *Request
	mode Mode
	res  *FileResult
	rep  diag.Reporter
}

// stage runs fn as one named stage of the current file: progress events,
// a pass span, stage timings and the optional phase timer.
func (w *worker) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	path := w.res.Path
	emit(w.req.Progress, path, stage, StatusWorking, nil)
	sctx, span := trace.StartSpan(ctx, trace.ScopePass, string(stage))
	var done func(string)
	if w.req.Timer != nil {
		done = w.req.Timer.Track(string(stage) + ":" + path)
	}

	start := time.Now()
	err := fn(sctx)
	elapsed := time.Since(start)

	w.res.Timings.Add(stage, elapsed)
	status, note := StatusDone, "ok"
	if err != nil {
		status, note = StatusError, "error"
	}
	if done != nil {
		done(note)
	}
	span.End(note)
	if w.req.Progress != nil {
		w.req.Progress.OnEvent(Event{File: path, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
	return err
}

func (w *worker) process(ctx context.Context, path string) *FileResult {
	w.res = &FileResult{
		Path:    path,
		Builder: expr.NewBuilder(0),
		Bag:     diag.NewBag(w.req.MaxDiagnostics),
		Timings: &Timings{},
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopeFile, path)
	defer func() {
		if w.res.Failed() {
			span.End("error")
			return
		}
		span.End("ok")
	}()

	var raw []byte
	err := w.stage(ctx, StageRead, func(context.Context) (err error) {
		raw, err = w.read(path)
		return err
	})
	if err != nil {
		return w.res
	}

	if err := w.stage(ctx, StageStrip, w.strip); err != nil {
		return w.res
	}

	switch w.mode {
	case ModeStrip:
		_ = w.stage(ctx, StageSnapshot, func(context.Context) error { return w.snapshot(raw) })
	case ModeRoundTrip:
		_ = w.stage(ctx, StageAttach, w.attach)
	}
	return w.res
}

func (w *worker) read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		err = &formfile.Error{Code: diag.ReadIO, Path: path, Integral: diag.NoIntegral, Msg: "failed to read file", Err: err}
		w.report(err)
		return nil, err
	}
	format := formfile.DetectFormat(path)
	if format == formfile.FormatUnknown {
		format = formfile.FormatTOML
	}
	f, err := formfile.Decode(w.res.Builder, path, format, raw)
	if err != nil {
		w.report(err)
		return nil, err
	}
	w.res.Form = f
	return raw, nil
}

func (w *worker) strip(ctx context.Context) error {
	b := w.res.Builder
	stripped, chain, err := cdpass.StripForm(b, w.res.Form, cdpass.Strict(w.req.Strict))
	if err != nil {
		w.report(err)
		return err
	}
	w.res.Stripped, w.res.Chain = stripped, chain

	for i, itg := range w.res.Form.Integrals() {
		trace.Point(ctx, trace.ScopeIntegral, "integral:"+strconv.Itoa(i), itg.IntegralType()+" "+itg.Domain())
	}
	if chain != nil {
		for depth, p := range chain.Params {
			trace.Point(ctx, trace.ScopeNode, "marker:"+strconv.Itoa(depth),
				b.Format(p.Direction)+" "+b.Format(p.Coefficient)+" "+b.Format(p.Relation))
		}
	}
	diag.ReportInfo(w.reporter(), diag.MarkChainCount, w.location(diag.NoIntegral),
		fmt.Sprintf("%d integral(s), chain %s", w.res.Form.Len(), chain.Format(b))).Emit()
	return nil
}

func (w *worker) snapshot(raw []byte) error {
	if w.req.Snapshots == nil {
		return nil
	}
	snap, err := snapshot.New(w.res.Builder, w.res.Path, raw, w.res.Stripped, w.res.Chain)
	if err == nil {
		w.res.SnapshotPath, err = w.req.Snapshots.Save(snap)
	}
	if err != nil {
		diag.ReportError(w.reporter(), diag.SnapIO, w.location(diag.NoIntegral), err.Error()).Emit()
		return err
	}
	w.res.Snapshot = snap
	diag.ReportInfo(w.reporter(), diag.SnapInfo, w.location(diag.NoIntegral),
		"snapshot "+snap.ID.String()+" written to "+w.res.SnapshotPath).Emit()
	return nil
}

// attach runs the full strip, identity transform, attach cycle on the input
// and compares the result with it.
func (w *worker) attach(context.Context) error {
	b := w.res.Builder
	restored, err := cdpass.RoundTrip(b, w.res.Form, nil, cdpass.Strict(w.req.Strict))
	if err != nil {
		w.report(err)
		return err
	}
	w.res.Restored = restored
	if restored.Len() != w.res.Form.Len() {
		return w.roundTripMismatch(diag.NoIntegral, "integral count changed")
	}
	for i := range restored.Len() {
		got, want := restored.Integral(i), w.res.Form.Integral(i)
		if !got.SameTags(want) || !b.Equal(got.Integrand(), want.Integrand()) {
			return w.roundTripMismatch(i, fmt.Sprintf("got %s, want %s", b.Format(got.Integrand()), b.Format(want.Integrand())))
		}
	}
	return nil
}

func (w *worker) roundTripMismatch(integral int, detail string) error {
	err := fmt.Errorf("strip and attach did not reproduce the form: %s", detail)
	diag.ReportError(w.reporter(), diag.MarkRoundTripMismatch, w.location(integral), err.Error()).Emit()
	return err
}

// reporter drops exact repeats, which a
// failing stage and its caller may both report.
func (w *worker) reporter() diag.Reporter {
	if w.rep == nil {
		w.rep = diag.NewDedupReporter(diag.BagReporter{Bag: w.res.Bag})
	}
	return w.rep
}

func (w *worker) location(integral int) diag.Location {
	return diag.Location{File: w.res.Path, Integral: integral}
}

// report turns a read or pass error into an error diagnostic.
func (w *worker) report(err error) {
	r := w.reporter()
	var fe *formfile.Error
	if errors.As(err, &fe) {
		b := diag.ReportError(r, fe.Code, fe.Location(), fe.Error())
		var se *formfile.SyntaxError
		if errors.As(err, &se) {
			b.WithNote("at byte " + strconv.FormatUint(uint64(se.Offset), 10) + " of the integrand")
		}
		b.Emit()
		return
	}
	if code := cdpass.GetCode(err); code != "" {
		diag.ReportError(r, PassCode(code), w.location(cdpass.IntegralIndex(err)), err.Error()).Emit()
		return
	}
	diag.ReportError(r, diag.UnknownCode, w.location(diag.NoIntegral), err.Error()).Emit()
}

// PassCode maps a cdpass error code to its diagnostic code.
func PassCode(code cdpass.Code) diag.Code {
	switch code {
	case cdpass.CodeInvariantViolation:
		return diag.MarkNotOutermost
	case cdpass.CodeConsistencyViolation:
		return diag.MarkChainMismatch
	case cdpass.CodeInvalidInputType:
		return diag.MarkInvalidTarget
	}
	return diag.UnknownCode
}
