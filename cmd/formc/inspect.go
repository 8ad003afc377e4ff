package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"formc/internal/diag"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/formfile"
)

var infoCmd = &cobra.Command{
	Use:   "info <file|dir>...",
	Short: "Summarize the integrals of each form",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectForms(cmd, args, func(b *expr.Builder, f *form.Form) string {
			return form.FormInfo(b, f)
		})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree [flags] <file|dir>...",
	Short: "Print the integrands of each form as indented trees",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indent, err := cmd.Flags().GetInt("indent")
		if err != nil {
			return fmt.Errorf("failed to get indent flag: %w", err)
		}
		parens, err := cmd.Flags().GetBool("parens")
		if err != nil {
			return fmt.Errorf("failed to get parens flag: %w", err)
		}
		if indent < 0 {
			return fmt.Errorf("--indent must be non-negative, got %d", indent)
		}
		return inspectForms(cmd, args, func(b *expr.Builder, f *form.Form) string {
			return form.TreeFormat(b, f, indent, parens)
		})
	},
}

func init() {
	treeCmd.Flags().Int("indent", 0, "initial indentation level")
	treeCmd.Flags().Bool("parens", false, "wrap operator operands in parentheses")
}

// inspectForms loads each file into its own builder and prints render's
// output under a header line. Read errors become diagnostics.
func inspectForms(cmd *cobra.Command, args []string, render func(*expr.Builder, *form.Form) string) error {
	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	diagFmt, err := readDiagFormat(cmd)
	if err != nil {
		return err
	}
	files, err := collectFormFiles(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	for _, path := range files {
		b := expr.NewBuilder(0)
		ff, err := formfile.Load(b, path)
		if err != nil {
			var ferr *formfile.Error
			if errors.As(err, &ferr) {
				diag.ReportError(reporter, ferr.Code, ferr.Location(), ferr.Error()).Emit()
			} else {
				diag.ReportError(reporter, diag.ReadIO, diag.Location{File: path, Integral: diag.NoIntegral}, err.Error()).Emit()
			}
			continue
		}
		text := render(b, ff.Form)
		if len(files) > 1 {
			fmt.Fprintf(out, "== %s (%s)\n", path, ff.Format)
		}
		fmt.Fprintln(out, text)
	}

	bag.Sort()
	if err := printDiagnostics(cmd.ErrOrStderr(), bag, diagFmt, s.color, s.verbose, maxDiagnostics); err != nil {
		return err
	}
	if bag.HasErrors() {
		return fmt.Errorf("failed to read %d file(s)", bag.Len())
	}
	return nil
}
