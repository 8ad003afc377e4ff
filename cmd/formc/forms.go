package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"formc/internal/pipeline"
	"formc/internal/snapshot"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|dir>...",
	Short: "Check coordinate derivative placement and consistency",
	Long: `Check reads every form, verifies that coordinate derivatives only
appear outermost in integrands and that all integrals of a form carry the
same chain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runForms(cmd, args, pipeline.ModeCheck)
	},
}

var stripCmd = &cobra.Command{
	Use:   "strip [flags] <file|dir>...",
	Short: "Strip coordinate derivatives and store snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runForms(cmd, args, pipeline.ModeStrip)
	},
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip [flags] <file|dir>...",
	Short: "Strip, reattach and compare every form with its input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runForms(cmd, args, pipeline.ModeRoundTrip)
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, stripCmd, roundtripCmd} {
		c.Flags().Bool("strict", false, "confirm equal chain hashes structurally")
		c.Flags().IntP("jobs", "j", 0, "files processed in parallel (0 = config or GOMAXPROCS)")
	}
	stripCmd.Flags().String("snapshot-dir", "", "directory for snapshots (default: config or user cache)")
}

func runForms(cmd *cobra.Command, args []string, mode pipeline.Mode) error {
	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	logger := s.logger

	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if !cmd.Flags().Changed("jobs") {
		jobs = s.cfg.Pipeline.Jobs
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	format, err := readDiagFormat(cmd)
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	ui, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	files, err := collectFormFiles(args)
	if err != nil {
		return err
	}

	req := &pipeline.Request{
		Files:          files,
		Mode:           mode,
		Jobs:           jobs,
		Strict:         strict || s.cfg.Check.Strict,
		MaxDiagnostics: maxDiagnostics,
		Timer:          s.timer,
	}
	if mode == pipeline.ModeStrip {
		dir, err := cmd.Flags().GetString("snapshot-dir")
		if err != nil {
			return fmt.Errorf("failed to get snapshot-dir flag: %w", err)
		}
		if dir == "" {
			dir = s.cfg.Snapshot.Dir
		}
		store, err := snapshot.Open(dir)
		if err != nil {
			return err
		}
		req.Snapshots = store
		logger.Debug("snapshot store", "dir", store.Dir())
	}
	logger.Debug("running pipeline", "mode", mode, "files", len(files), "jobs", req.Jobs, "strict", req.Strict)

	p := newProgress(logger)
	var res *pipeline.Result
	if shouldUseTUI(ui, len(files), s.quiet) {
		res, err = runPipelineWithUI(cmd.Context(), string(mode), req)
	} else {
		res, err = pipeline.Run(cmd.Context(), req)
	}
	if err != nil {
		dumpTraceRing(cmd.ErrOrStderr(), s.tracer)
		return err
	}

	out := cmd.OutOrStdout()
	if err := printDiagnostics(out, res.Bag, format, s.color, s.verbose, maxDiagnostics); err != nil {
		return err
	}
	if !s.quiet && format == diagFormatPretty {
		printFileSummary(out, res, mode)
	}
	if s.timings {
		printStageTimings(cmd.ErrOrStderr(), totalTimings(res), mode)
		if s.timer != nil {
			fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
		}
	}

	failed := res.Failed()
	p.done(string(mode)+" finished", "files", len(res.Files), "failed", failed)
	if failed > 0 {
		dumpTraceRing(cmd.ErrOrStderr(), s.tracer)
		return fmt.Errorf("%d of %d file(s) failed", failed, len(res.Files))
	}
	return nil
}

// printFileSummary prints one line per successfully processed file.
func printFileSummary(out io.Writer, res *pipeline.Result, mode pipeline.Mode) {
	for _, fr := range res.Files {
		if fr.Failed() {
			continue
		}
		chain := fr.Chain.Format(fr.Builder)
		switch mode {
		case pipeline.ModeStrip:
			fmt.Fprintf(out, "%s: %s chain %s\n", fr.Path, fr.Snapshot.ID, chain)
		case pipeline.ModeRoundTrip:
			fmt.Fprintf(out, "%s: ok, chain %s restored\n", fr.Path, chain)
		default:
			fmt.Fprintf(out, "%s: ok, chain %s\n", fr.Path, chain)
		}
	}
}

func totalTimings(res *pipeline.Result) *pipeline.Timings {
	total := &pipeline.Timings{}
	for _, fr := range res.Files {
		for _, stage := range []pipeline.Stage{pipeline.StageRead, pipeline.StageStrip, pipeline.StageSnapshot, pipeline.StageAttach} {
			if fr.Timings.Has(stage) {
				total.Add(stage, fr.Timings.Duration(stage))
			}
		}
	}
	return total
}
