package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"mdref/internal/diag"
)

// Pretty writes one block per diagnostic:
//
//	warning[RES1001]: type not found: [A]N.T
//	  --> request-id
//	  note: ...
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan, color.Bold),
	}
	arrow := color.New(color.FgBlue, color.Bold)
	for _, c := range sevColor {
		setColor(c, opts.Color)
	}
	setColor(arrow, opts.Color)

	for _, d := range bag.Items() {
		head := fmt.Sprintf("%s[%s]", d.Severity, d.Code.ID())
		if c, ok := sevColor[d.Severity]; ok {
			head = c.Sprint(head)
		}
		fmt.Fprintf(w, "%s: %s\n", head, d.Message)
		if d.Subject != "" {
			fmt.Fprintf(w, "  %s %s\n", arrow.Sprint("-->"), d.Subject)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s %s\n", arrow.Sprint("note:"), n)
			}
		}
	}
}

// Summary renders "N errors, M warnings", or "" for an empty bag. Diagnostics
// beyond the bag limit are mentioned but not counted by severity.
func Summary(bag *diag.Bag) string {
	if bag == nil || bag.Len() == 0 {
		return ""
	}
	s := fmt.Sprintf("%s, %s",
		plural(bag.Count(diag.SevError), "error"),
		plural(bag.Count(diag.SevWarning), "warning"))
	if n := bag.Dropped(); n > 0 {
		s += fmt.Sprintf(" (%d more not shown)", n)
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func setColor(c *color.Color, on bool) {
	if on {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}
