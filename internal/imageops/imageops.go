// Package imageops loads a watermark source image (PNG/JPG/BMP/GIF),
// scales it to fit the target page, rotates it by an arbitrary angle,
// and applies opacity before it gets positioned on a synthesized PDF
// page. Opacity, scale, and rotation are independent knobs applied in
// sequence.
package imageops

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Load decodes an image file of any supported format (PNG, JPEG, BMP,
// GIF) into an image.Image.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watermark image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode watermark image: %w", err)
	}
	_ = format
	return img, nil
}

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// ScaleToFit scales img so its longest side equals targetLongestSide,
// preserving aspect ratio, using nearest-neighbor resampling.
func ScaleToFit(img image.Image, targetLongestSide float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || targetLongestSide <= 0 {
		return img
	}

	var newW, newH int
	if w >= h {
		newW = int(math.Round(targetLongestSide))
		newH = int(math.Round(targetLongestSide * float64(h) / float64(w)))
	} else {
		newH = int(math.Round(targetLongestSide))
		newW = int(math.Round(targetLongestSide * float64(w) / float64(h)))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Rotate rotates img by degrees around its center, expanding the canvas
// and filling new pixels transparent.
func Rotate(img image.Image, degrees float64) image.Image {
	if degrees == 0 {
		return img
	}
	return imaging.Rotate(img, degrees, color.Transparent)
}

// ApplyOpacity multiplies the alpha channel of every pixel by
// opacityPercent/100.
func ApplyOpacity(img image.Image, opacityPercent int) image.Image {
	if opacityPercent >= 100 {
		return imaging.Clone(img)
	}
	factor := float64(opacityPercent) / 100.0
	if factor < 0 {
		factor = 0
	}

	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			na := uint8(float64(a>>8) * factor)
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(bl >> 8),
				A: na,
			})
		}
	}
	return out
}

// EncodePNG re-encodes img as PNG bytes, the form WatermarkPdfBuilder
// embeds in the synthesized watermark page.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode watermark PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Process runs the full pipeline: load, scale to fit targetLongestSide,
// rotate by degrees, apply opacityPercent, and return PNG bytes plus
// the resulting pixel dimensions.
func Process(path string, targetLongestSide float64, degrees float64, opacityPercent int) (pngBytes []byte, width, height int, err error) {
	img, err := Load(path)
	if err != nil {
		return nil, 0, 0, err
	}
	img = ScaleToFit(img, targetLongestSide)
	img = Rotate(img, degrees)
	img = ApplyOpacity(img, opacityPercent)

	b := img.Bounds()
	data, err := EncodePNG(img)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, b.Dx(), b.Dy(), nil
}
