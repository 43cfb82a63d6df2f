package rpt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/bytesreader"
)

const (
	pageTableMarker   = "PAGETBLHDR"
	sectionMarker     = "SECTIONHDR"
	binaryTableMarker = "BPAGETBLHDR"
	endDataMarker     = "ENDDATA"

	headerMinLen       = 0x1F0
	binaryCountMinLen  = 0x200
	pageCountOffset    = 0x1D4
	sectionCountOffset = 0x1E4
	sectionDataOffset  = 0x1E8
	binaryCountOffset  = 0x1F4

	pageEntrySize    = 24
	sectionEntrySize = 12
	binaryEntrySize  = 16
	tablePad         = 13
)

// Parse parses a fully-loaded RPT file image into a Document.
func Parse(data []byte) (*Document, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	pages, err := parsePageTable(data, header.PageCount)
	if err != nil {
		return nil, err
	}

	sections := parseSectionTable(data)

	var objects []BinaryObjectEntry
	if header.BinaryObjectCount > 0 {
		objects, err = parseBinaryObjectTable(data, header.BinaryObjectCount)
		if err != nil {
			return nil, err
		}
	}

	return &Document{
		Header:        header,
		Pages:         pages,
		Sections:      sections,
		BinaryObjects: objects,
		Data:          data,
	}, nil
}

func parseHeader(data []byte) (Header, error) {
	if len(data) < headerMinLen || !strings.HasPrefix(string(data[:min(10, len(data))]), Signature) {
		return Header{}, fmt.Errorf("invalid RPT file: missing %q signature", Signature)
	}

	leaderEnd := bytesreader.IndexAny(data, min(192, len(data)), 0x1A, 0x00)
	if leaderEnd < 0 {
		leaderEnd = min(192, len(data))
	}
	leader := string(data[:leaderEnd])
	tokens := strings.Split(leader, "\t")

	var domainID, speciesID int32
	var timestamp string
	if len(tokens) >= 2 {
		domainID, speciesID = parseDomainSpecies(tokens[1])
	}
	if len(tokens) >= 3 {
		timestamp = strings.TrimRight(tokens[2], " \t\r\n")
	}

	h := Header{
		DomainID:          domainID,
		SpeciesID:         speciesID,
		Timestamp:         timestamp,
		PageCount:         bytesreader.U32LE(data, pageCountOffset),
		SectionCount:      bytesreader.U32LE(data, sectionCountOffset),
		SectionDataOffset: bytesreader.U32LE(data, sectionDataOffset),
	}
	if len(data) >= binaryCountMinLen {
		h.BinaryObjectCount = bytesreader.U32LE(data, binaryCountOffset)
	}
	return h, nil
}

func parseDomainSpecies(field string) (domain, species int32) {
	parts := strings.SplitN(field, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	d, _ := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
	s, _ := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
	return int32(d), int32(s)
}

func parsePageTable(data []byte, pageCount uint32) ([]PageTableEntry, error) {
	markerIdx := bytesreader.Find(data, []byte(pageTableMarker), 0)
	if markerIdx < 0 {
		return nil, fmt.Errorf("invalid RPT file: missing %s marker", pageTableMarker)
	}

	start := markerIdx + len(pageTableMarker) + tablePad
	entries := make([]PageTableEntry, 0, pageCount)
	for i := uint32(0); i < pageCount; i++ {
		off := start + int(i)*pageEntrySize
		if off+pageEntrySize > len(data) {
			break
		}
		entries = append(entries, PageTableEntry{
			PageNumber:       int32(i) + 1,
			PageOffset:       bytesreader.U32LE(data, off+0),
			LineWidth:        bytesreader.U16LE(data, off+8),
			LinesPerPage:     bytesreader.U16LE(data, off+10),
			UncompressedSize: bytesreader.U32LE(data, off+12),
			CompressedSize:   bytesreader.U32LE(data, off+16),
		})
	}
	return entries, nil
}

func parseSectionTable(data []byte) []SectionEntry {
	markerIdx := bytesreader.Find(data, []byte(sectionMarker), 0)
	if markerIdx < 0 {
		return nil
	}

	start := markerIdx + len(sectionMarker) + tablePad
	end := len(data)
	if endIdx := bytesreader.Find(data, []byte(endDataMarker), start); endIdx >= 0 {
		end = endIdx
	}

	var sections []SectionEntry
	for off := start; off+sectionEntrySize <= end; off += sectionEntrySize {
		id := bytesreader.U32LE(data, off+0)
		startPage := bytesreader.U32LE(data, off+4)
		pageCount := bytesreader.U32LE(data, off+8)
		if id == 0 && startPage == 0 && pageCount == 0 {
			break
		}
		if startPage < 1 || pageCount < 1 {
			continue
		}
		sections = append(sections, SectionEntry{
			SectionID: id,
			StartPage: startPage,
			PageCount: pageCount,
		})
	}
	return sections
}

func parseBinaryObjectTable(data []byte, count uint32) ([]BinaryObjectEntry, error) {
	markerIdx := bytesreader.Find(data, []byte(binaryTableMarker), 0)
	if markerIdx < 0 {
		return nil, fmt.Errorf("invalid RPT file: missing %s marker", binaryTableMarker)
	}

	start := markerIdx + len(binaryTableMarker) + tablePad
	entries := make([]BinaryObjectEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := start + int(i)*binaryEntrySize
		if off+binaryEntrySize > len(data) {
			break
		}
		entries = append(entries, BinaryObjectEntry{
			Index:            int32(i) + 1,
			PageOffset:       bytesreader.U32LE(data, off+0),
			UncompressedSize: bytesreader.U32LE(data, off+8),
			CompressedSize:   bytesreader.U32LE(data, off+12),
		})
	}
	return entries, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
