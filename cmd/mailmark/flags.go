package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// marginSentinel detects if --margin was explicitly set.
// Since 0 is a valid margin, we use an out-of-range sentinel.
// Valid range is 0 to 5 centimeters; -1 is safely outside this range.
const marginSentinel = -1.0

// annotateFlags holds all flags for the annotate run.
type annotateFlags struct {
	config      string
	output      string
	workers     int
	timeout     string
	quiet       bool
	verbose     bool
	pageSize    string
	orientation string
	marginCm    float64
	noJSON      bool
	noPreview   bool
	noPDF       bool
}

// parseAnnotateFlags parses CLI flags and returns positional args.
func parseAnnotateFlags(args []string) (*annotateFlags, []string, error) {
	fs := flag.NewFlagSet("mailmark", flag.ContinueOnError)
	f := &annotateFlags{}

	// I/O flags
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")

	// Page flags
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.marginCm, "margin", marginSentinel, "page margin in centimeters (0-5)")

	// Output mode flags
	fs.BoolVar(&f.noJSON, "no-json", false, "skip <name>.annotations.json output")
	fs.BoolVar(&f.noPreview, "no-preview", false, "skip <name>.preview.html output")
	fs.BoolVar(&f.noPDF, "no-pdf", false, "skip annotated PDF output")

	// Output control
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")

	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
