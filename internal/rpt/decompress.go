package rpt

import (
	"bytes"
	"fmt"

	"github.com/VantageDataChat/rpt-extract/internal/inflate"
)

// DecompressPage returns the decompressed bytes of a single text page.
func (d *Document) DecompressPage(p PageTableEntry) ([]byte, error) {
	out, err := decompressAt(d.Data, p.AbsoluteOffset(), p.CompressedSize, p.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("decompress page %d: %w", p.PageNumber, err)
	}
	return out, nil
}

// DecompressBinaryObject returns the decompressed bytes of a single
// binary-object table entry.
func (d *Document) DecompressBinaryObject(b BinaryObjectEntry) ([]byte, error) {
	out, err := decompressAt(d.Data, b.AbsoluteOffset(), b.CompressedSize, b.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("decompress binary object %d: %w", b.Index, err)
	}
	return out, nil
}

// ConcatenateBinaryObjects decompresses every binary-object entry in
// table order and concatenates the results into a single byte slice —
// the document-level blob FormatDetector classifies.
func (d *Document) ConcatenateBinaryObjects() ([]byte, error) {
	var buf bytes.Buffer
	for _, b := range d.BinaryObjects {
		chunk, err := d.DecompressBinaryObject(b)
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

func decompressAt(data []byte, offset int64, compressedSize, uncompressedSize uint32) ([]byte, error) {
	end := offset + int64(compressedSize)
	if offset < 0 || end > int64(len(data)) {
		return nil, fmt.Errorf("compressed block [%d:%d] out of range (file length %d)", offset, end, len(data))
	}
	return inflate.Bytes(data[offset:end], uncompressedSize)
}
