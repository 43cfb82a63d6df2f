// Package rpt parses the proprietary RPT spool-file format: header,
// page table, section table, and optional binary-object table. Each
// table is found by its marker and walked as fixed-stride records
// until a sentinel or end-of-file.
package rpt

// InstanceHeaderOffset is the constant added to every relative offset
// in the file to yield an absolute offset.
const InstanceHeaderOffset = 0xF0

// Signature is the fixed 10-byte leader every valid RPT file starts with.
const Signature = "RPTFILEHDR"

// Header is the fixed-layout leader of every RPT file.
type Header struct {
	DomainID          int32
	SpeciesID         int32
	Timestamp         string
	PageCount         uint32
	SectionCount      uint32
	BinaryObjectCount uint32
	SectionDataOffset uint32 // read at 0x1E8; never consumed, kept for diagnostics
}

// PageTableEntry is one per text page; total count equals Header.PageCount.
type PageTableEntry struct {
	PageNumber       int32  // 1-based, assigned by position in the table
	PageOffset       uint32 // relative; absolute = PageOffset + InstanceHeaderOffset
	LineWidth        uint16
	LinesPerPage     uint16
	UncompressedSize uint32
	CompressedSize   uint32
}

// AbsoluteOffset returns the file-absolute offset of this page's
// compressed payload.
func (p PageTableEntry) AbsoluteOffset() int64 {
	return int64(p.PageOffset) + InstanceHeaderOffset
}

// SectionEntry groups a contiguous page range into a logical section.
type SectionEntry struct {
	SectionID uint32
	StartPage uint32 // 1-based inclusive
	PageCount uint32
}

// EndPage returns the inclusive last page of this section's range.
func (s SectionEntry) EndPage() uint32 {
	return s.StartPage + s.PageCount - 1
}

// BinaryObjectEntry is a compressed chunk contributing to the
// concatenated binary payload (PDF or AFP).
type BinaryObjectEntry struct {
	Index            int32 // 1-based
	PageOffset       uint32
	UncompressedSize uint32
	CompressedSize   uint32
}

// AbsoluteOffset returns the file-absolute offset of this object's
// compressed payload.
func (b BinaryObjectEntry) AbsoluteOffset() int64 {
	return int64(b.PageOffset) + InstanceHeaderOffset
}

// Document is the fully-parsed, in-memory representation of one RPT
// file: the header plus its three tables. Every field here borrows
// nothing — the caller owns Data for the lifetime of the Document.
type Document struct {
	Header        Header
	Pages         []PageTableEntry
	Sections      []SectionEntry
	BinaryObjects []BinaryObjectEntry
	Data          []byte // the full file image; page/object payloads are read from it by offset
}

// SectionByID builds a lookup map once; callers needing repeated
// lookups (SelectionEngine's Sections rule) should build this once
// rather than scanning Sections per id.
func (d *Document) SectionByID() map[uint32]SectionEntry {
	m := make(map[uint32]SectionEntry, len(d.Sections))
	for _, s := range d.Sections {
		m[s.SectionID] = s
	}
	return m
}
