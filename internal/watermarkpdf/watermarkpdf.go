// Package watermarkpdf holds the watermark configuration value type
// and the builder that synthesizes a single-page watermark PDF sized
// to a target page. Page synthesis itself is delegated to
// internal/pdftoolkit rather than reimplemented here.
package watermarkpdf

import (
	"strconv"
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/imageops"
	"github.com/VantageDataChat/rpt-extract/internal/pdftoolkit"
)

// Position names a watermark placement on the target page.
type Position int

const (
	Center Position = iota
	TopLeft
	TopCenter
	TopRight
	MiddleLeft
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
	Repeat
	Tiling
)

var positionNames = map[string]Position{
	"center":       Center,
	"topleft":      TopLeft,
	"topcenter":    TopCenter,
	"topright":     TopRight,
	"middleleft":   MiddleLeft,
	"middleright":  MiddleRight,
	"bottomleft":   BottomLeft,
	"bottomcenter": BottomCenter,
	"bottomright":  BottomRight,
	"repeat":       Repeat,
	"tiling":       Tiling,
}

// ParsePosition parses a position name case-insensitively, ignoring
// any spaces or underscores a caller might include ("Top Left",
// "top_left", "TopLeft" are all accepted).
func ParsePosition(s string) (Position, bool) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	p, ok := positionNames[key]
	return p, ok
}

// Config is the watermark configuration, with clamped setters so CLI
// values out of range are coerced rather than rejected. OpacityPercent
// and ScaleFactor track whether a setter actually ran, so an
// explicitly-requested zero opacity isn't confused with "unset" and
// silently overwritten by defaults().
type Config struct {
	ImagePath       string
	Position        Position
	RotationDegrees float64
	OpacityPercent  int
	ScaleFactor     float64

	opacitySet bool
	scaleSet   bool
}

// defaults fills in Config's unset fields with their stated defaults.
func (c *Config) defaults() {
	if !c.opacitySet && c.OpacityPercent == 0 {
		c.OpacityPercent = 30
	}
	if !c.scaleSet && c.ScaleFactor == 0 {
		c.ScaleFactor = 1.0
	}
}

// SetRotation clamps degrees to [-180, 180].
func (c *Config) SetRotation(degrees int) {
	if degrees < -180 {
		degrees = -180
	}
	if degrees > 180 {
		degrees = 180
	}
	c.RotationDegrees = float64(degrees)
}

// SetOpacity clamps percent to [0, 100].
func (c *Config) SetOpacity(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	c.OpacityPercent = percent
	c.opacitySet = true
}

// SetScale clamps factor to [0.5, 2.0].
func (c *Config) SetScale(factor float64) {
	if factor < 0.5 {
		factor = 0.5
	}
	if factor > 2.0 {
		factor = 2.0
	}
	c.ScaleFactor = factor
	c.scaleSet = true
}

// Enabled reports whether a watermark image has been configured.
func (c Config) Enabled() bool {
	return c.ImagePath != ""
}

// ParseIntField parses a watermark CLI value that should be an
// integer, returning ok=false on malformed input so the caller can
// decide whether to warn and fall back to the default.
func ParseIntField(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil
}

// ParseFloatField parses a watermark CLI value that should be a float.
func ParseFloatField(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return f, err == nil
}

// Builder synthesizes the one-page watermark PDF for a given target
// page size, placing the processed image per Config's position anchor.
type Builder struct {
	Toolkit *pdftoolkit.Toolkit
}

// NewBuilder constructs a Builder backed by toolkit.
func NewBuilder(toolkit *pdftoolkit.Toolkit) *Builder {
	return &Builder{Toolkit: toolkit}
}

// Spec bundles the synthesized watermark PDF's bytes with the
// placement PdfFilter's Overlay operation needs to recomposite the
// same image onto every page of the subset PDF.
type Spec struct {
	PDFBytes  []byte
	Placement pdftoolkit.WatermarkPageSpec
}

// BuildSpec processes cfg.ImagePath through ImageOps and lays the
// result out on a synthesized page of size pageW x pageH (PDF
// points), returning both the standalone watermark PDF's bytes and
// the placement Overlay needs to composite it onto another document.
func (b *Builder) BuildSpec(cfg Config, pageW, pageH float64) (Spec, error) {
	cfg.defaults()

	targetLongest := minF(pageW, pageH) * 0.3 * cfg.ScaleFactor
	pngBytes, imgW, imgH, err := imageops.Process(cfg.ImagePath, targetLongest, cfg.RotationDegrees, cfg.OpacityPercent)
	if err != nil {
		return Spec{}, err
	}

	x, y := anchor(cfg.Position, pageW, pageH, float64(imgW), float64(imgH))
	placement := pdftoolkit.WatermarkPageSpec{
		PageWidth:  pageW,
		PageHeight: pageH,
		ImagePNG:   pngBytes,
		ImageW:     float64(imgW),
		ImageH:     float64(imgH),
		X:          x,
		Y:          y,
		Tiling:     cfg.Position == Tiling,
	}

	pdfBytes, err := b.Toolkit.SynthesizeWatermarkPage(placement)
	if err != nil {
		return Spec{}, err
	}
	return Spec{PDFBytes: pdfBytes, Placement: placement}, nil
}

// anchor computes the bottom-left placement (x, y) of an imgW x imgH
// image on a pageW x pageH page for the given position. Coordinates
// have origin bottom-left.
func anchor(p Position, pageW, pageH, imgW, imgH float64) (x, y float64) {
	switch p {
	case TopLeft:
		return 0, pageH - imgH
	case TopCenter:
		return pageW/2 - imgW/2, pageH - imgH
	case TopRight:
		return pageW - imgW, pageH - imgH
	case MiddleLeft:
		return 0, pageH/2 - imgH/2
	case MiddleRight:
		return pageW - imgW, pageH/2 - imgH/2
	case BottomLeft:
		return 0, 0
	case BottomCenter:
		return pageW/2 - imgW/2, 0
	case BottomRight:
		return pageW - imgW, 0
	case Center, Repeat, Tiling:
		return pageW/2 - imgW/2, pageH/2 - imgH/2
	default:
		return pageW/2 - imgW/2, pageH/2 - imgH/2
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
