// Package export implements the single-file and batch-directory
// export modes layered on top of extractor.Run, which it always
// drives with a fixed "All" rule.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/extractor"
	"github.com/VantageDataChat/rpt-extract/internal/formatdetect"
	"github.com/VantageDataChat/rpt-extract/internal/rpt"
	"github.com/VantageDataChat/rpt-extract/internal/rptx"
	"github.com/VantageDataChat/rpt-extract/internal/watermarkpdf"
)

const progressFileName = "export_progress.txt"

// SingleFileResult summarizes one export for the caller's stdout line.
type SingleFileResult struct {
	PageCount      int
	DetectedFormat formatdetect.Format
	BinaryPath     string
}

// File runs the standard extraction pipeline against rptPath with rule
// "All", writing its text/binary/CSV outputs under
// <rptPath's directory>/export/.
func File(rptPath string, watermark watermarkpdf.Config) (SingleFileResult, error) {
	dir := filepath.Dir(rptPath)
	exportDir := filepath.Join(dir, "export")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return SingleFileResult{}, rptx.New(rptx.KindWriteError, "create export dir", err)
	}

	stem := strings.TrimSuffix(filepath.Base(rptPath), filepath.Ext(rptPath))
	textPath := filepath.Join(exportDir, stem+".txt")
	tentativeBinaryPath := filepath.Join(exportDir, stem+".bin")
	csvPath := filepath.Join(exportDir, stem+".csv")

	res, err := extractor.Run(rptPath, "All", textPath, tentativeBinaryPath, watermark)
	if err != nil {
		return SingleFileResult{}, err
	}

	finalBinaryPath := tentativeBinaryPath
	if ext := binaryExtension(res.DetectedFormat); ext != ".bin" {
		finalBinaryPath = filepath.Join(exportDir, stem+ext)
		if err := os.Rename(tentativeBinaryPath, finalBinaryPath); err != nil {
			return SingleFileResult{}, rptx.New(rptx.KindWriteError, "rename binary output", err)
		}
	}

	if err := writeSectionCSV(rptPath, csvPath); err != nil {
		return SingleFileResult{}, err
	}

	return SingleFileResult{
		PageCount:      res.PageCount,
		DetectedFormat: res.DetectedFormat,
		BinaryPath:     finalBinaryPath,
	}, nil
}

func binaryExtension(f formatdetect.Format) string {
	switch f {
	case formatdetect.PDF:
		return ".pdf"
	case formatdetect.AFP:
		return ".afp"
	default:
		return ".bin"
	}
}

// writeSectionCSV reparses rptPath (cheap relative to the Extractor
// pass, and keeps Extractor's signature free of CSV concerns) and
// writes one row per section in table order:
// SPECIES_ID,SECTION_ID,START_PAGE,PAGES.
func writeSectionCSV(rptPath, csvPath string) error {
	data, err := os.ReadFile(rptPath)
	if err != nil {
		return rptx.New(rptx.KindFileNotFound, "read rpt for csv", err)
	}
	doc, err := rpt.Parse(data)
	if err != nil {
		return rptx.New(rptx.KindInvalidRptFile, "parse rpt for csv", err)
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return rptx.New(rptx.KindWriteError, "create csv output", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "SPECIES_ID,SECTION_ID,START_PAGE,PAGES")
	for _, s := range doc.Sections {
		fmt.Fprintf(w, "%d,%d,%d,%d\n", doc.Header.SpeciesID, s.SectionID, s.StartPage, s.PageCount)
	}
	if err := w.Flush(); err != nil {
		return rptx.New(rptx.KindWriteError, "flush csv output", err)
	}
	return nil
}

// BatchResult summarizes a batch-directory export run.
type BatchResult struct {
	Total, Processed, Skipped, Failed int
}

// Directory runs File over every *.rpt file directly inside dir,
// resuming from dir/export/export_progress.txt.
func Directory(dir string, watermark watermarkpdf.Config) (BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchResult{}, rptx.New(rptx.KindFileNotFound, "read batch directory", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".rpt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	exportDir := filepath.Join(dir, "export")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return BatchResult{}, rptx.New(rptx.KindWriteError, "create export dir", err)
	}
	progressPath := filepath.Join(exportDir, progressFileName)

	completed, err := loadProgress(progressPath)
	if err != nil {
		return BatchResult{}, err
	}

	progressFile, err := os.OpenFile(progressPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return BatchResult{}, rptx.New(rptx.KindWriteError, "open progress ledger", err)
	}
	defer progressFile.Close()

	result := BatchResult{Total: len(names)}
	for _, name := range names {
		if completed[name] {
			result.Skipped++
			fmt.Fprintf(os.Stderr, "SKIP: %s (already completed)\n", name)
			continue
		}

		rptPath := filepath.Join(dir, name)
		if _, err := File(rptPath, watermark); err != nil {
			result.Failed++
			fmt.Fprintf(os.Stderr, "FAIL: %s (exit %d): %v\n", name, rptx.ExitCode(err), err)
			continue
		}

		if _, err := fmt.Fprintln(progressFile, name); err != nil {
			return result, rptx.New(rptx.KindWriteError, "append progress ledger", err)
		}
		if err := progressFile.Sync(); err != nil {
			return result, rptx.New(rptx.KindWriteError, "flush progress ledger", err)
		}
		result.Processed++
	}

	fmt.Fprintf(os.Stderr, "SUMMARY: total=%d processed=%d skipped=%d failed=%d\n",
		result.Total, result.Processed, result.Skipped, result.Failed)

	if result.Failed > 0 {
		return result, rptx.Newf(rptx.KindUnknown, "batch export", "one or more files failed")
	}
	return result, nil
}

// loadProgress reads the bare completed filenames already recorded in
// the ledger, creating an empty ledger if one doesn't exist yet.
func loadProgress(path string) (map[string]bool, error) {
	completed := make(map[string]bool)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, nil, 0o644); werr != nil {
			return nil, rptx.New(rptx.KindWriteError, "create progress ledger", werr)
		}
		return completed, nil
	}
	if err != nil {
		return nil, rptx.New(rptx.KindReadError, "open progress ledger", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			completed[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, rptx.New(rptx.KindReadError, "scan progress ledger", err)
	}
	return completed, nil
}
