// Package diagfmt renders diagnostics for the CLI.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"tsl/internal/diag"
	"tsl/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	posColor     = color.New(color.Bold)
)

// Write renders every diagnostic in the bag as
// `path:line:col: SEVERITY[code]: message`, sorted.
func Write(w io.Writer, fs *source.FileSet, bag *diag.Bag, colorize bool) {
	if !colorize {
		color.NoColor = true
	}
	bag.Sort()
	for _, d := range bag.Items() {
		pos := ""
		if f := fs.Get(d.Primary.File); f != nil {
			if lc, ok := fs.Resolve(d.Primary); ok {
				pos = fmt.Sprintf("%s:%d:%d: ", f.Path, lc.Line, lc.Col)
			}
		}
		sev := d.Severity.String()
		switch d.Severity {
		case diag.SevError:
			sev = errorColor.Sprint(sev)
		case diag.SevWarning:
			sev = warningColor.Sprint(sev)
		default:
			sev = infoColor.Sprint(sev)
		}
		fmt.Fprintf(w, "%s%s[%s]: %s\n", posColor.Sprint(pos), sev, d.Code, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s\n", n.Msg)
		}
	}
}
