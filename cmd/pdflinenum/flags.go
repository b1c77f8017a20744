package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/pyhub-apps/pdflinenum"
	"github.com/pyhub-apps/pdflinenum/pkg/extractors"
)

const usageText = `Add line numbers to a PDF file based on its actual text lines

Usage:
  pdflinenum [flags] input_pdf output_pdf

Examples:
  pdflinenum input.pdf output.pdf
  pdflinenum input.pdf output.pdf --continuous
  pdflinenum input.pdf output.pdf --font-size 10 --x-position 20
  pdflinenum input.pdf output.pdf --start 100

Flags:
`

type ErrUsage struct {
	msg string
}

func (e ErrUsage) Error() string {
	return e.msg
}

type cmdFlags struct {
	input      string
	output     string
	fontSize   int
	xPosition  int
	continuous bool
	start      int
	tolerance  float64
	userSpace  bool
	quiet      bool
}

func (f cmdFlags) options() []pdflinenum.Option {
	return []pdflinenum.Option{
		pdflinenum.WithFontSize(float64(f.fontSize)),
		pdflinenum.WithXPosition(float64(f.xPosition)),
		pdflinenum.WithContinuous(f.continuous),
		pdflinenum.WithStart(f.start),
		pdflinenum.WithTolerance(f.tolerance),
		pdflinenum.WithUserSpace(f.userSpace),
	}
}

// readCMDFlags parses args. Flags may come before, between or after the two
// positional paths; "--" ends flag parsing.
func readCMDFlags(args []string, usageOut io.Writer) (cmdFlags, error) {
	var f cmdFlags

	fs := flag.NewFlagSet("pdflinenum", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.Usage = func() {
		fmt.Fprint(usageOut, usageText)
		fs.PrintDefaults()
	}

	fs.IntVar(&f.fontSize, "font-size", pdflinenum.DefaultFontSize, "font size for line numbers")
	fs.IntVar(&f.xPosition, "x-position", pdflinenum.DefaultXPosition, "x position for line numbers in points")
	fs.BoolVar(&f.continuous, "continuous", false, "continue line numbering across pages (default: restart each page)")
	fs.IntVar(&f.start, "start", pdflinenum.DefaultStart, "starting line number")
	fs.Float64Var(&f.tolerance, "tolerance", extractors.DefaultLineTolerance, "vertical tolerance in points for grouping text into lines")
	fs.BoolVar(&f.userSpace, "user-space", false, "map text positions through the page transformation matrix")
	fs.BoolVar(&f.quiet, "quiet", false, "only report errors")

	// Everything after "--" is positional even if it looks like a flag
	var rest []string
	for i, arg := range args {
		if arg == "--" {
			args, rest = args[:i], args[i+1:]
			break
		}
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return cmdFlags{}, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	positional = append(positional, rest...)

	if len(positional) != 2 {
		fs.Usage()
		return cmdFlags{}, ErrUsage{msg: fmt.Sprintf("expected input_pdf and output_pdf, got %d argument(s)", len(positional))}
	}

	f.input, f.output = positional[0], positional[1]

	return f, nil
}

func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
