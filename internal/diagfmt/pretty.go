package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"formc/internal/diag"
)

// Pretty writes diagnostics in a human-readable form, one per line:
//
//	<path>[#integral]: <SEV> <CODE>: <message>
//	  note: <note>
//
// The bag is expected to be sorted already.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	sevColors := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	pathColor := color.New(color.Bold)
	noteColor := color.New(color.FgBlue)
	for _, c := range []*color.Color{sevColors[diag.SevError], sevColors[diag.SevWarning], sevColors[diag.SevInfo], pathColor, noteColor} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, d := range bag.Items() {
		if d.Severity == diag.SevInfo && !opts.ShowInfo {
			continue
		}
		loc := displayPath(d.Location.File, opts.PathMode)
		if d.Location.Integral != diag.NoIntegral {
			loc = fmt.Sprintf("%s#%d", loc, d.Location.Integral)
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			pathColor.Sprint(loc),
			sevColors[d.Severity].Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message,
		); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s\n", noteColor.Sprint("note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Short writes one "<path>:<integral>: <CODE>" line per error.
func Short(w io.Writer, bag *diag.Bag, mode PathMode) error {
	if bag == nil {
		return nil
	}
	for _, d := range bag.Items() {
		if d.Severity < diag.SevError {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:%d: %s\n", displayPath(d.Location.File, mode), d.Location.Integral, d.Code.ID()); err != nil {
			return err
		}
	}
	return nil
}
