package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"formc/internal/diag"
	"formc/internal/formfile"
	"formc/internal/pipeline"
	"formc/internal/snapshot"
)

var attachCmd = &cobra.Command{
	Use:   "attach [flags] <snapshot-id|path>",
	Short: "Reattach the coordinate derivatives stored in a snapshot",
	Long: `Attach restores the stripped form of a snapshot written by "formc strip",
wraps every integrand in the stored chain again and prints the form.`,
	Args: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list")
		if list {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().String("snapshot-dir", "", "directory for snapshots (default: config or user cache)")
	attachCmd.Flags().StringP("output", "o", "", "write the form to file instead of stdout")
	attachCmd.Flags().String("format", "", "output format (toml|yaml; default: from --output or toml)")
	attachCmd.Flags().Bool("list", false, "list stored snapshots")
}

func runAttach(cmd *cobra.Command, args []string) error {
	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	dir, err := cmd.Flags().GetString("snapshot-dir")
	if err != nil {
		return fmt.Errorf("failed to get snapshot-dir flag: %w", err)
	}
	if dir == "" {
		dir = s.cfg.Snapshot.Dir
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	diagFmt, err := readDiagFormat(cmd)
	if err != nil {
		return err
	}

	store, err := snapshot.Open(dir)
	if err != nil {
		return err
	}
	if list {
		return listSnapshots(cmd.OutOrStdout(), store)
	}

	format, err := outputFormat(formatStr, output)
	if err != nil {
		return err
	}

	ref := args[0]
	snap, err := store.Load(ref)
	if err != nil {
		bag := diag.NewBag(1)
		diag.ReportError(diag.BagReporter{Bag: bag}, snapshotCode(err),
			diag.Location{File: ref, Integral: diag.NoIntegral}, err.Error()).Emit()
		if perr := printDiagnostics(cmd.ErrOrStderr(), bag, diagFmt, s.color, s.verbose, 1); perr != nil {
			return perr
		}
		return fmt.Errorf("cannot load snapshot %s", ref)
	}
	s.logger.Debug("loaded snapshot", "id", snap.ID, "source", snap.Source, "digest", snap.Digest.Short())

	p := newProgress(s.logger)
	b, restored, err := pipeline.Attach(cmd.Context(), snap)
	if err != nil {
		dumpTraceRing(cmd.ErrOrStderr(), s.tracer)
		return err
	}

	if output == "" {
		if err := formfile.Encode(cmd.OutOrStdout(), b, restored, format); err != nil {
			return err
		}
	} else if err := writeFormFile(output, func(w io.Writer) error {
		return formfile.Encode(w, b, restored, format)
	}); err != nil {
		return err
	}
	p.done("attach finished", "snapshot", snap.ID, "integrals", restored.Len())
	return nil
}

// outputFormat resolves --format, then the extension of --output, then TOML.
func outputFormat(flag, output string) (formfile.Format, error) {
	if flag != "" {
		return formfile.ParseFormat(flag)
	}
	if output != "" {
		if f := formfile.DetectFormat(output); f != formfile.FormatUnknown {
			return f, nil
		}
	}
	return formfile.FormatTOML, nil
}

func snapshotCode(err error) diag.Code {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return diag.SnapNotFound
	case errors.Is(err, snapshot.ErrSchemaMismatch):
		return diag.SnapSchemaMismatch
	case errors.Is(err, snapshot.ErrDigestMismatch):
		return diag.SnapDigestMismatch
	default:
		return diag.SnapIO
	}
}

func writeFormFile(path string, encode func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f)
}

func listSnapshots(out io.Writer, store *snapshot.Store) error {
	ids, err := store.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		snap, err := store.Load(id.String())
		if err != nil {
			fmt.Fprintf(out, "%s  <unreadable: %v>\n", id, err)
			continue
		}
		chain := "none"
		if snap.HasChain {
			chain = fmt.Sprintf("%d marker(s)", len(snap.Chain))
		}
		fmt.Fprintf(out, "%s  %s  %s  %d integral(s), chain %s\n",
			id, snap.Created.Format("2006-01-02 15:04:05"), snap.Source, len(snap.Integrals), chain)
	}
	return nil
}
