// Package pdffilter implements the PDF operations layered on top of
// the toolkit facade: page subsetting, overlay composition, page-size
// probing, and Info-dictionary stamping.
//
// Page-size probing is a hybrid: width and height come from the
// toolkit's MediaBox lookup, but the toolkit has no way to surface a
// page's raw /Rotate entry, so that one field is read directly off the
// PDF bytes with a regexp scan.
package pdffilter

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/pdftoolkit"
)

// Filter bundles the toolkit dependency every operation needs.
type Filter struct {
	Toolkit *pdftoolkit.Toolkit
}

func New(toolkit *pdftoolkit.Toolkit) *Filter {
	return &Filter{Toolkit: toolkit}
}

// CoalesceRanges sorts pages ascending, dedups, and folds runs of
// consecutive integers into inclusive ranges, e.g. [1,3,4,5,8] ->
// "1,3-5,8". Nothing in this module calls it: SubsetPages hands the
// toolkit the deduped ascending int slice (DedupSorted) instead.
func CoalesceRanges(pages []int) string {
	sorted := DedupSorted(pages)
	if len(sorted) == 0 {
		return ""
	}

	var parts []string
	start := sorted[0]
	prev := sorted[0]
	flush := func(end int) {
		if start == end {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, end))
		}
	}
	for _, p := range sorted[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush(prev)
		start, prev = p, p
	}
	flush(prev)
	return strings.Join(parts, ",")
}

// DedupSorted returns pages sorted ascending with duplicates removed.
func DedupSorted(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	sorted := append([]int{}, pages...)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// SubsetPages writes a new PDF at outPath containing only pages
// (ascending, deduped) from inPath. An empty pages list copies the
// file unchanged.
func (f *Filter) SubsetPages(inPath string, pages []int, outPath string) error {
	if len(pages) == 0 {
		return copyFile(inPath, outPath)
	}
	return f.Toolkit.SelectSubset(inPath, DedupSorted(pages), outPath)
}

// Overlay composites the watermark image described by spec onto every
// page of inPath, writing the result to outPath.
func (f *Filter) Overlay(inPath, watermarkPath string, spec pdftoolkit.WatermarkPageSpec, outPath string) error {
	return f.Toolkit.Overlay(inPath, watermarkPath, spec, outPath)
}

// StampInfo rewrites the Info dictionary's Producer/Creator fields.
func (f *Filter) StampInfo(inPath, outPath string) error {
	return f.Toolkit.StampInfo(inPath, outPath)
}

var reRotate = regexp.MustCompile(`/Rotate\s+(-?\d+)`)

const defaultWidth, defaultHeight = 612, 792

// ProbePageSize returns the first page's MediaBox width/height via the
// toolkit, swapped if the raw PDF bytes declare /Rotate 90 or 270 (or
// their negatives). Falls back to 612x792 (US Letter) if the toolkit
// can't resolve a size for page 1.
func (f *Filter) ProbePageSize(pdfPath string) (w, h float64, err error) {
	sizes, err := f.Toolkit.SourcePageSizes(pdfPath)
	if err != nil {
		return 0, 0, fmt.Errorf("probe page size: %w", err)
	}
	info, ok := sizes[1]
	if !ok || info.Width <= 0 || info.Height <= 0 {
		return defaultWidth, defaultHeight, nil
	}
	w, h = info.Width, info.Height

	data, rerr := os.ReadFile(pdfPath)
	if rerr == nil {
		if rm := reRotate.FindSubmatch(data); rm != nil {
			angle, _ := strconv.Atoi(string(rm[1]))
			switch angle {
			case 90, -90, 270, -270:
				w, h = h, w
			}
		}
	}

	return w, h, nil
}

func copyFile(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("copy pdf: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}
