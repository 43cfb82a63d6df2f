// Package extractor implements the standard-mode pipeline that turns
// one RPT file plus a selection rule into a text output and a binary
// (PDF/AFP/opaque) output. It wires together the parsing, selection,
// PDF, and AFP packages into a single multi-stage run.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VantageDataChat/rpt-extract/internal/afpfilter"
	"github.com/VantageDataChat/rpt-extract/internal/formatdetect"
	"github.com/VantageDataChat/rpt-extract/internal/pdffilter"
	"github.com/VantageDataChat/rpt-extract/internal/pdftoolkit"
	"github.com/VantageDataChat/rpt-extract/internal/rpt"
	"github.com/VantageDataChat/rpt-extract/internal/rptx"
	"github.com/VantageDataChat/rpt-extract/internal/selection"
	"github.com/VantageDataChat/rpt-extract/internal/watermarkpdf"
)

const minRptFileSize = 0x200

// Result summarizes a successful run for the caller's stdout line.
type Result struct {
	PageCount      int
	DetectedFormat formatdetect.Format
}

// Run executes the standard-mode pipeline: load, parse, resolve
// selection, write text output, and (if present) filter the binary
// object into outBinaryPath.
func Run(inRptPath, rule, outTextPath, outBinaryPath string, watermark watermarkpdf.Config) (Result, error) {
	data, err := os.ReadFile(inRptPath)
	if err != nil {
		return Result{}, rptx.New(rptx.KindFileNotFound, "read rpt", err)
	}
	if len(data) < minRptFileSize {
		return Result{}, rptx.Newf(rptx.KindReadError, "read rpt", "file too small to be a valid RPT")
	}

	doc, err := rpt.Parse(data)
	if err != nil {
		return Result{}, rptx.New(rptx.KindInvalidRptFile, "parse rpt", err)
	}

	parsedRule, err := selection.Parse(rule)
	if err != nil {
		return Result{}, rptx.New(rptx.KindInvalidSelectionRule, "parse selection rule", err)
	}

	pages := selection.Resolve(parsedRule, doc)
	if len(pages) == 0 {
		return Result{}, rptx.Newf(rptx.KindNoPagesSelected, "resolve selection", "selection rule matched zero pages")
	}

	if err := writeTextOutput(doc, pages, outTextPath); err != nil {
		return Result{}, err
	}

	format := formatdetect.Opaque
	if len(doc.BinaryObjects) > 0 {
		format, err = writeBinaryOutput(doc, pages, parsedRule.Kind == selection.All, outBinaryPath, watermark)
		if err != nil {
			return Result{}, err
		}
	} else {
		fmt.Fprintln(os.Stderr, "NOTE: No binary objects present in this RPT; skipping binary output.")
	}

	return Result{PageCount: len(pages), DetectedFormat: format}, nil
}

func writeTextOutput(doc *rpt.Document, pages []rpt.PageTableEntry, outTextPath string) error {
	f, err := os.Create(outTextPath)
	if err != nil {
		return rptx.New(rptx.KindWriteError, "open text output", err)
	}
	defer f.Close()

	for _, p := range pages {
		chunk, err := doc.DecompressPage(p)
		if err != nil {
			return rptx.New(rptx.KindDecompressionError, "decompress page", err)
		}
		if _, err := f.Write(chunk); err != nil {
			return rptx.New(rptx.KindWriteError, "write text output", err)
		}
	}
	return nil
}

func writeBinaryOutput(doc *rpt.Document, pages []rpt.PageTableEntry, isAll bool, outBinaryPath string, watermark watermarkpdf.Config) (formatdetect.Format, error) {
	concatenated, err := doc.ConcatenateBinaryObjects()
	if err != nil {
		return formatdetect.Opaque, rptx.New(rptx.KindDecompressionError, "decompress binary objects", err)
	}

	format := formatdetect.Detect(concatenated)
	tmpDir := filepath.Dir(outBinaryPath)

	switch format {
	case formatdetect.PDF:
		if err := filterPDF(concatenated, pages, tmpDir, outBinaryPath, watermark); err != nil {
			return format, err
		}
	case formatdetect.AFP:
		filterAFP(concatenated, pages, isAll, outBinaryPath)
	default:
		if err := os.WriteFile(outBinaryPath, concatenated, 0o644); err != nil {
			return format, rptx.New(rptx.KindWriteError, "write binary output", err)
		}
	}
	return format, nil
}

func filterPDF(concatenated []byte, pages []rpt.PageTableEntry, tmpDir, outBinaryPath string, watermark watermarkpdf.Config) error {
	sourcePDF := tempPath(tmpDir, "source", "pdf")
	if err := os.WriteFile(sourcePDF, concatenated, 0o644); err != nil {
		return rptx.New(rptx.KindWriteError, "write temp source pdf", err)
	}
	defer removeQuiet(sourcePDF)

	toolkit := pdftoolkit.New()
	filter := pdffilter.New(toolkit)

	pageNumbers := make([]int, len(pages))
	for i, p := range pages {
		pageNumbers[i] = int(p.PageNumber)
	}

	subsetPDF := tempPath(tmpDir, "subset", "pdf")
	if err := filter.SubsetPages(sourcePDF, pageNumbers, subsetPDF); err != nil {
		if !pdftoolkit.FileExistsNonEmpty(subsetPDF) {
			return rptx.New(rptx.KindWriteError, "subset pdf", err)
		}
		fmt.Fprintf(os.Stderr, "WARNING: pdf toolkit raised an error during teardown, but the page subset was written: %v\n", err)
	}
	defer removeQuiet(subsetPDF)

	current := subsetPDF
	if watermark.Enabled() {
		w, h, err := filter.ProbePageSize(subsetPDF)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: failed to probe page size for watermark, skipping watermark: %v\n", err)
		} else {
			watermarkedPDF := tempPath(tmpDir, "watermarked", "pdf")
			err := applyWatermark(toolkit, filter, subsetPDF, w, h, watermark, tmpDir, watermarkedPDF)
			if err != nil && !pdftoolkit.FileExistsNonEmpty(watermarkedPDF) {
				fmt.Fprintf(os.Stderr, "WARNING: watermark application failed, continuing without it: %v\n", err)
			} else {
				if err != nil {
					fmt.Fprintf(os.Stderr, "WARNING: pdf toolkit raised an error during teardown, but the watermarked output was written: %v\n", err)
				}
				current = watermarkedPDF
				defer removeQuiet(watermarkedPDF)
			}
		}
	}

	if err := filter.StampInfo(current, outBinaryPath); err != nil {
		if pdftoolkit.FileExistsNonEmpty(outBinaryPath) {
			fmt.Fprintf(os.Stderr, "WARNING: pdf toolkit raised an error during teardown, but output was written successfully: %v\n", err)
			return nil
		}
		return rptx.New(rptx.KindWriteError, "stamp pdf info", err)
	}
	return nil
}

func applyWatermark(toolkit *pdftoolkit.Toolkit, filter *pdffilter.Filter, subsetPDF string, w, h float64, watermark watermarkpdf.Config, tmpDir, outPath string) error {
	builder := watermarkpdf.NewBuilder(toolkit)

	spec, err := builder.BuildSpec(watermark, w, h)
	if err != nil {
		return fmt.Errorf("build watermark: %w", err)
	}

	watermarkPDFPath := tempPath(tmpDir, "watermark", "pdf")
	if err := os.WriteFile(watermarkPDFPath, spec.PDFBytes, 0o644); err != nil {
		return fmt.Errorf("write watermark pdf: %w", err)
	}
	defer removeQuiet(watermarkPDFPath)

	return filter.Overlay(subsetPDF, watermarkPDFPath, spec.Placement, outPath)
}

// filterAFP extracts the selected pages from an AFP stream. A rule
// that resolved to the whole page table (isAll) is passed through as
// an untouched byte-for-byte copy rather than a reordered explicit
// page list, since afpfilter.Extract treats an empty selection as
// "all pages, unchanged".
func filterAFP(concatenated []byte, pages []rpt.PageTableEntry, isAll bool, outBinaryPath string) {
	doc, err := afpfilter.Parse(concatenated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: AFP parse failed, writing unfiltered binary: %v\n", err)
		_ = os.WriteFile(outBinaryPath, concatenated, 0o644)
		return
	}

	var pageNumbers []int
	if !isAll {
		pageNumbers = make([]int, len(pages))
		for i, p := range pages {
			pageNumbers[i] = int(p.PageNumber)
		}
	}
	out := afpfilter.Extract(doc, pageNumbers)
	if err := os.WriteFile(outBinaryPath, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to write AFP output: %v\n", err)
	}
}

// tempPath builds a parallel-safe temp-file name: process id plus a
// millisecond-resolution timestamp, so concurrent invocations against
// distinct output directories never collide.
func tempPath(dir, label, ext string) string {
	name := fmt.Sprintf(".%s-%d-%d.%s", label, os.Getpid(), time.Now().UnixMilli(), ext)
	return filepath.Join(dir, name)
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to remove temp file %s: %v\n", path, err)
	}
}
