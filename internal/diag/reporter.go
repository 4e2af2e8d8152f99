package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"nwnsc/internal/source"
)

// Reporter is the caller-supplied sink spec.md §7 requires: the compiler
// never writes diagnostics directly, it only ever calls Report.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// TextReporter renders diagnostics as one line of human-readable text per
// diagnostic, optionally colorized, prefixed by the caller's configured
// error prefix (spec.md §6 set_error_prefix).
type TextReporter struct {
	Out    io.Writer
	Files  *source.FileSet
	Prefix string
	Color  bool
}

// NewTextReporter returns a TextReporter writing to out.
func NewTextReporter(out io.Writer, files *source.FileSet) *TextReporter {
	return &TextReporter{Out: out, Files: files}
}

// Report writes a single "prefix: file(line,col): SEVERITY CODE: message" line.
func (r *TextReporter) Report(d Diagnostic) {
	loc := "?"
	if r.Files != nil {
		if f := r.Files.Get(d.Primary.File); f != nil {
			pos := r.Files.Position(d.Primary.File, d.Primary.Start)
			loc = fmt.Sprintf("%s(%d,%d)", f.Name, pos.Line, pos.Col)
		}
	}
	label := d.Severity.String()
	if r.Color {
		switch d.Severity {
		case SevError:
			label = color.RedString(label)
		case SevWarning:
			label = color.YellowString(label)
		default:
			label = color.CyanString(label)
		}
	}
	prefix := r.Prefix
	if prefix == "" {
		prefix = "nwnsc"
	}
	fmt.Fprintf(r.Out, "%s: %s: %s %s: %s\n", prefix, loc, label, d.Code.ID(), d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(r.Out, "%s:   note: %s\n", prefix, n.Msg)
	}
}
