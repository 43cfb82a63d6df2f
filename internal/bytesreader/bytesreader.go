// Package bytesreader provides the small set of little-endian and
// big-endian integer reads and needle searches the RPT and AFP
// parsers build on. Every read assumes the caller has already checked
// the slice is long enough; out-of-bounds protection is the caller's
// job (see internal/rpt and internal/afpfilter).
package bytesreader

import "bytes"

// U16LE reads a little-endian uint16 at off. The caller must ensure
// off+2 <= len(data).
func U16LE(data []byte, off int) uint16 {
	return uint16(data[off]) | uint16(data[off+1])<<8
}

// U32LE reads a little-endian uint32 at off. The caller must ensure
// off+4 <= len(data).
func U32LE(data []byte, off int) uint32 {
	return uint32(data[off]) | uint32(data[off+1])<<8 |
		uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}

// U16BE reads a big-endian uint16 at off, used by the AFP structured
// field framing (carriage-control byte + 2-byte BE length).
func U16BE(data []byte, off int) uint16 {
	return uint16(data[off])<<8 | uint16(data[off+1])
}

// Find returns the index of the first occurrence of needle in data at
// or after from, or -1 if absent.
func Find(data []byte, needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(data) {
		return -1
	}
	idx := bytes.Index(data[from:], needle)
	if idx < 0 {
		return -1
	}
	return idx + from
}

// IndexAny returns the earliest index in data[0:bound) holding any byte
// in targets, or -1 if none appear within bound.
func IndexAny(data []byte, bound int, targets ...byte) int {
	if bound > len(data) {
		bound = len(data)
	}
	for i := 0; i < bound; i++ {
		for _, t := range targets {
			if data[i] == t {
				return i
			}
		}
	}
	return -1
}
