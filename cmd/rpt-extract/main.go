// Command rpt-extract parses an RPT spool file, resolves a page or
// section selection rule, and writes a text output plus a filtered
// binary (PDF/AFP/opaque) output — or drives a resumable export over a
// single file or a whole directory.
package main

import (
	"fmt"
	"os"

	"github.com/VantageDataChat/rpt-extract/internal/cliargs"
	"github.com/VantageDataChat/rpt-extract/internal/export"
	"github.com/VantageDataChat/rpt-extract/internal/extractor"
	"github.com/VantageDataChat/rpt-extract/internal/rptx"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := cliargs.Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return rptx.ExitCode(err)
	}

	switch args.Mode {
	case cliargs.ModeStandard:
		return runStandard(args)
	case cliargs.ModeExport:
		return runExport(args)
	default:
		fmt.Fprintln(os.Stderr, "ERROR: unrecognized invocation mode")
		return rptx.ExitInvalidArgs
	}
}

func runStandard(args cliargs.Args) int {
	res, err := extractor.Run(args.RptPath, args.Rule, args.TextPath, args.BinaryPath, args.Watermark)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return rptx.ExitCode(err)
	}
	fmt.Printf("SUCCESS: Extracted %d pages (%s)\n", res.PageCount, res.DetectedFormat)
	return rptx.ExitSuccess
}

func runExport(args cliargs.Args) int {
	info, err := os.Stat(args.ExportTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return rptx.ExitFileNotFound
	}

	if info.IsDir() {
		res, err := export.Directory(args.ExportTarget, args.Watermark)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return rptx.ExitCode(err)
		}
		fmt.Printf("SUCCESS: processed %d, skipped %d, failed %d (of %d)\n",
			res.Processed, res.Skipped, res.Failed, res.Total)
		return rptx.ExitSuccess
	}

	res, err := export.File(args.ExportTarget, args.Watermark)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return rptx.ExitCode(err)
	}
	fmt.Printf("SUCCESS: Extracted %d pages (%s)\n", res.PageCount, res.DetectedFormat)
	return rptx.ExitSuccess
}
