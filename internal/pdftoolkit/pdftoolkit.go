// Package pdftoolkit is the thin adapter between rpt-extract and
// github.com/VantageDataChat/GoPDF2, the concrete PDF engine: open,
// page-size probing, subsetting, overlay compositing, Info-dict
// stamping, and serialization. Every operation recovers from panics
// and turns them into errors, since PDF libraries built on gofpdi are
// known to panic on certain malformed inputs instead of returning one.
package pdftoolkit

import (
	"fmt"
	"os"

	gopdf "github.com/VantageDataChat/GoPDF2"
)

// Producer/Creator values StampInfo writes into every output PDF's
// Info dictionary.
const (
	InfoProducer = "ISIS Papyrus"
	InfoCreator  = "Papyrus Content Governance"
)

// Toolkit is a stateless facade; every operation opens its own
// documents so concurrent invocations never share toolkit state.
type Toolkit struct{}

func New() *Toolkit { return &Toolkit{} }

// SourcePageSizes returns each page's MediaBox width/height (in PDF
// points), keyed by 1-based page number, for the PDF at path, without
// importing page content.
func (t *Toolkit) SourcePageSizes(path string) (sizes map[int]gopdf.PageInfo, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("probe page sizes: %v", r)
		}
	}()
	return gopdf.GetSourcePDFPageSizes(path)
}

// SelectSubset builds a new PDF from path containing only the 1-based
// pages in order (may repeat), writing it to outPath.
func (t *Toolkit) SelectSubset(inPath string, pages []int, outPath string) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("select pages: %v", r)
		}
	}()
	result, err := gopdf.SelectPagesFromFile(inPath, pages, nil)
	if err != nil {
		return fmt.Errorf("select pages: %w", err)
	}
	return result.WritePdf(outPath)
}

// Overlay opens inPath, draws spec.ImagePNG on top of every page at
// spec's position and size (tiled across the page when spec.Tiling is
// set), and writes the result to outPath. The one-page watermarkPath
// PDF (produced by SynthesizeWatermarkPage) is only checked to embed
// at least one image; its page is not imported. GoPDF2's public
// surface has no page-into-page template import (gofpdi's importer is
// unexported on GoPdf), so compositing re-draws the source pixels
// directly via ImageByHolder rather than importing the watermark page
// as a form XObject — otherwise the same
// "loop every page, save state, draw, restore state" shape as
// AddWatermarkImageAllPages in watermark.go.
func (t *Toolkit) Overlay(inPath, watermarkPath string, spec WatermarkPageSpec, outPath string) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("overlay watermark: %v", r)
		}
	}()

	images, err := gopdf.ExtractImagesFromPage(mustReadFile(watermarkPath), 0)
	if err != nil || len(images) == 0 {
		return fmt.Errorf("extract watermark image: %w", err)
	}

	doc := &gopdf.GoPdf{}
	if err := doc.OpenPDF(inPath, nil); err != nil {
		return fmt.Errorf("open pdf for overlay: %w", err)
	}

	holder, err := gopdf.ImageHolderByBytes(spec.ImagePNG)
	if err != nil {
		return fmt.Errorf("load watermark image bytes: %w", err)
	}

	numPages := doc.GetNumberOfPages()
	for i := 1; i <= numPages; i++ {
		if err := doc.SetPage(i); err != nil {
			return fmt.Errorf("select page %d: %w", i, err)
		}
		doc.SaveGraphicsState()
		placeErr := placeWatermark(doc, holder, spec)
		doc.RestoreGraphicsState()
		if placeErr != nil {
			return fmt.Errorf("overlay page %d: %w", i, placeErr)
		}
	}

	return doc.WritePdf(outPath)
}

func placeWatermark(doc *gopdf.GoPdf, holder gopdf.ImageHolder, spec WatermarkPageSpec) error {
	if !spec.Tiling {
		return doc.ImageByHolder(holder, spec.X, spec.Y, &gopdf.Rect{W: spec.ImageW, H: spec.ImageH})
	}
	for y := 0.0; y < spec.PageHeight; y += spec.ImageH {
		for x := 0.0; x < spec.PageWidth; x += spec.ImageW {
			if err := doc.ImageByHolder(holder, x, y, &gopdf.Rect{W: spec.ImageW, H: spec.ImageH}); err != nil {
				return err
			}
		}
	}
	return nil
}

func mustReadFile(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// WatermarkPageSpec describes the single content image to place on a
// synthesized watermark page (see SynthesizeWatermarkPage).
type WatermarkPageSpec struct {
	PageWidth, PageHeight float64
	ImagePNG              []byte
	ImageW, ImageH        float64
	X, Y                  float64
	Tiling                bool
}

// SynthesizeWatermarkPage builds a one-page PDF exactly spec.PageWidth
// x spec.PageHeight with spec.ImagePNG placed at (spec.X, spec.Y), or
// tiled across the page when spec.Tiling is set.
func (t *Toolkit) SynthesizeWatermarkPage(spec WatermarkPageSpec) (pdfBytes []byte, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("synthesize watermark page: %v", r)
		}
	}()

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: gopdf.Rect{W: spec.PageWidth, H: spec.PageHeight}})
	doc.AddPage()

	holder, err := gopdf.ImageHolderByBytes(spec.ImagePNG)
	if err != nil {
		return nil, fmt.Errorf("load watermark image bytes: %w", err)
	}

	doc.SaveGraphicsState()
	if spec.Tiling {
		for y := 0.0; y < spec.PageHeight; y += spec.ImageH {
			for x := 0.0; x < spec.PageWidth; x += spec.ImageW {
				if err := doc.ImageByHolder(holder, x, y, &gopdf.Rect{W: spec.ImageW, H: spec.ImageH}); err != nil {
					doc.RestoreGraphicsState()
					return nil, fmt.Errorf("tile watermark image: %w", err)
				}
			}
		}
	} else {
		if err := doc.ImageByHolder(holder, spec.X, spec.Y, &gopdf.Rect{W: spec.ImageW, H: spec.ImageH}); err != nil {
			doc.RestoreGraphicsState()
			return nil, fmt.Errorf("place watermark image: %w", err)
		}
	}
	doc.RestoreGraphicsState()

	return doc.GetBytesPdfReturnErr()
}

// StampInfo rewrites the Info dictionary's Producer/Creator fields
// (preserving other keys) and writes the result to outPath. Stamping
// an already-stamped PDF is a no-op on those two fields.
func (t *Toolkit) StampInfo(inPath, outPath string) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("stamp info: %v", r)
		}
	}()

	doc := &gopdf.GoPdf{}
	if err := doc.OpenPDF(inPath, nil); err != nil {
		return fmt.Errorf("open pdf for stamping: %w", err)
	}

	info := doc.GetInfo()
	info.Producer = InfoProducer
	info.Creator = InfoCreator
	doc.SetInfo(info)

	return doc.WritePdf(outPath)
}

// FileExistsNonEmpty reports whether path exists and has non-zero
// size, distinguishing a toolkit panic during teardown from one that
// happened before the output was actually written.
func FileExistsNonEmpty(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}
