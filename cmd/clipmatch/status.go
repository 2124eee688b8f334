package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type printer struct {
	out   io.Writer
	ok    *color.Color
	warn  *color.Color
	label *color.Color
}

func newPrinter(out io.Writer) *printer {
	p := &printer{
		out:   out,
		ok:    color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow),
		label: color.New(color.FgCyan, color.Bold),
	}
	if !shouldColorize(out) {
		p.ok.DisableColor()
		p.warn.DisableColor()
		p.label.DisableColor()
	}
	return p
}

func (p *printer) OK(format string, args ...any) {
	fmt.Fprintln(p.out, p.ok.Sprint("✓ ")+fmt.Sprintf(format, args...))
}

func (p *printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.warn.Sprint("! "+fmt.Sprintf(format, args...)))
}

func (p *printer) Field(label string, value any) {
	fmt.Fprintf(p.out, "  %s %v\n", p.label.Sprintf("%-10s", label+":"), value)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
