// Package inflate decompresses the zlib-framed page and binary-object
// payloads embedded in an RPT file.
package inflate

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Bytes decompresses a zlib-framed blob already held in memory.
func Bytes(compressed []byte, uncompressedSize uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("zlib open: %w", err)
	}
	defer zr.Close()

	out := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("zlib inflate: %w", err)
	}
	return out, nil
}
