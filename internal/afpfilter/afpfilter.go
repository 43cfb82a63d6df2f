// Package afpfilter walks an AFP structured-field stream, locates
// page boundaries, and extracts a selected subset of pages plus any
// shared resources.
//
// Each field is a carriage-control byte followed by a 2-byte
// big-endian length and a 3-byte type ID; the walk tracks byte ranges
// field by field and stops cleanly at the first truncated or
// malformed record rather than failing the whole parse.
package afpfilter

import (
	"fmt"
	"sort"

	"github.com/VantageDataChat/rpt-extract/internal/bytesreader"
)

const carriageControl = 0x5A

// fieldIDOffset/fieldIDLen locate the 3-byte structured-field ID
// that begins at byte 3 of every field (after CC + length).
const (
	headerLen     = 3
	fieldIDLen    = 3
	fieldIDOffset = headerLen
)

// Well-known structured-field IDs this filter must recognize.
var (
	beginPage = [3]byte{0xD3, 0xA8, 0xAF}
	endPage   = [3]byte{0xD3, 0xA9, 0xAF}
)

// Field is one structured field's type and byte range within the
// original stream (end is exclusive).
type Field struct {
	ID         [3]byte
	Start, End int
}

// Page is the byte range [Start, End) spanning a Begin Page through
// its matching End Page field, inclusive of both.
type Page struct {
	Number     int
	Start, End int
}

// Document is the result of walking an AFP stream.
type Document struct {
	Data      []byte
	Fields    []Field
	Pages     []Page
	Resources []Field // fields outside any page, in stream order
}

// Parse walks data field by field. Malformed trailing bytes (fewer
// than headerLen remaining, or a declared length that overruns the
// buffer) stop the walk without error — the already-parsed prefix is
// returned rather than failing the whole parse.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 || data[0] != carriageControl {
		return nil, fmt.Errorf("invalid AFP stream: missing 0x5A introducer")
	}

	doc := &Document{Data: data}
	offset := 0
	var curPageStart = -1
	var curPageNumber int

	for offset+headerLen <= len(data) {
		if data[offset] != carriageControl {
			break
		}
		length := int(bytesreader.U16BE(data, offset+1))
		total := headerLen + length
		if total < headerLen+fieldIDLen || offset+total > len(data) {
			break
		}

		var id [3]byte
		copy(id[:], data[offset+fieldIDOffset:offset+fieldIDOffset+fieldIDLen])
		field := Field{ID: id, Start: offset, End: offset + total}
		doc.Fields = append(doc.Fields, field)

		switch id {
		case beginPage:
			curPageStart = offset
			curPageNumber = len(doc.Pages) + 1
		case endPage:
			if curPageStart >= 0 {
				doc.Pages = append(doc.Pages, Page{
					Number: curPageNumber,
					Start:  curPageStart,
					End:    offset + total,
				})
				curPageStart = -1
			}
		default:
			if curPageStart < 0 {
				doc.Resources = append(doc.Resources, field)
			}
		}

		offset += total
	}

	return doc, nil
}

// Extract builds an output stream containing, in order: all shared
// resources, then each requested page (1-based, ascending) in full.
// An empty pageNumbers means "all pages" and degenerates to a
// byte-for-byte copy of doc.Data; doc must not be nil.
func Extract(doc *Document, pageNumbers []int) []byte {
	if len(pageNumbers) == 0 {
		return append([]byte{}, doc.Data...)
	}

	wanted := append([]int{}, pageNumbers...)
	sort.Ints(wanted)

	var out []byte
	for _, f := range doc.Resources {
		out = append(out, doc.Data[f.Start:f.End]...)
	}
	for _, n := range wanted {
		if n < 1 || n > len(doc.Pages) {
			continue
		}
		p := doc.Pages[n-1]
		out = append(out, doc.Data[p.Start:p.End]...)
	}
	return out
}
