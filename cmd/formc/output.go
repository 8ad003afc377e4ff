package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"formc/internal/diag"
	"formc/internal/diagfmt"
	"formc/internal/pipeline"
)

type diagFormat string

const (
	diagFormatPretty diagFormat = "pretty"
	diagFormatJSON   diagFormat = "json"
	diagFormatShort  diagFormat = "short"
)

func readDiagFormat(cmd *cobra.Command) (diagFormat, error) {
	value, err := cmd.Root().PersistentFlags().GetString("diag-format")
	if err != nil {
		return "", fmt.Errorf("failed to get diag-format flag: %w", err)
	}
	switch f := diagFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case diagFormatPretty, diagFormatJSON, diagFormatShort:
		return f, nil
	default:
		return "", fmt.Errorf("invalid --diag-format value %q (expected pretty|json|short)", value)
	}
}

// printDiagnostics renders bag in the requested format. Info diagnostics are
// only shown in verbose pretty output.
func printDiagnostics(out io.Writer, bag *diag.Bag, format diagFormat, useColor, showInfo bool, maxDiagnostics int) error {
	switch format {
	case diagFormatJSON:
		return diagfmt.JSON(out, bag, diagfmt.JSONOpts{
			Max:          maxDiagnostics,
			IncludeNotes: true,
		})
	case diagFormatShort:
		return diagfmt.Short(out, bag, diagfmt.PathModeAuto)
	default:
		return diagfmt.Pretty(out, bag, diagfmt.PrettyOpts{
			Color:     useColor,
			ShowNotes: true,
			ShowInfo:  showInfo,
		})
	}
}

func printStageTimings(out io.Writer, timings *pipeline.Timings, mode pipeline.Mode) {
	if out == nil || timings == nil {
		return
	}
	for _, stage := range mode.Stages() {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
