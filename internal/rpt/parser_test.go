package rpt

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

const fixtureHeaderSize = 0x200

// buildFixture assembles a minimal but structurally valid RPT image
// with nPages text pages (each containing its own letter repeated,
// zlib-compressed), one section covering all pages, and optionally a
// binary-object table wrapping a single blob.
func buildFixture(t *testing.T, nPages int, binaryBlob []byte) []byte {
	t.Helper()

	compress := func(plain []byte) []byte {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		w.Write(plain)
		w.Close()
		return buf.Bytes()
	}

	// Layout: [fixed header region, 0x200 bytes][page payloads][binary
	// object payload][PAGETBLHDR + pad + entries][SECTIONHDR + pad +
	// entries + ENDDATA][BPAGETBLHDR + pad + entries (opt)].
	payloadArea := make([]byte, 0)
	type pagePayload struct {
		absOffset        uint32
		compressedSize   uint32
		uncompressedSize uint32
	}
	var pages []pagePayload
	for i := 1; i <= nPages; i++ {
		plain := []byte{byte('A' + i - 1), byte('A' + i - 1), byte('A' + i - 1)}
		c := compress(plain)
		pages = append(pages, pagePayload{
			absOffset:        uint32(fixtureHeaderSize + len(payloadArea)),
			compressedSize:   uint32(len(c)),
			uncompressedSize: uint32(len(plain)),
		})
		payloadArea = append(payloadArea, c...)
	}

	var binAbs uint32
	var binCompressed, binUncompressed uint32
	if binaryBlob != nil {
		c := compress(binaryBlob)
		binAbs = uint32(fixtureHeaderSize + len(payloadArea))
		binCompressed = uint32(len(c))
		binUncompressed = uint32(len(binaryBlob))
		payloadArea = append(payloadArea, c...)
	}

	buf := make([]byte, fixtureHeaderSize)
	copy(buf, Signature)
	buf[10] = '\t'
	domainSpecies := []byte("7:9\tts \t")
	copy(buf[11:], domainSpecies)

	binary.LittleEndian.PutUint32(buf[pageCountOffset:], uint32(nPages))
	binary.LittleEndian.PutUint32(buf[sectionCountOffset:], 1)
	if binaryBlob != nil {
		binary.LittleEndian.PutUint32(buf[binaryCountOffset:], 1)
	}

	buf = append(buf, payloadArea...)

	// Page table. Stored relative offset = absolute - InstanceHeaderOffset,
	// per the format's contract (Parser adds InstanceHeaderOffset back).
	buf = append(buf, []byte(pageTableMarker)...)
	buf = append(buf, make([]byte, tablePad)...)
	for _, p := range pages {
		entry := make([]byte, pageEntrySize)
		binary.LittleEndian.PutUint32(entry[0:], p.absOffset-InstanceHeaderOffset)
		binary.LittleEndian.PutUint16(entry[8:], 132)
		binary.LittleEndian.PutUint16(entry[10:], 66)
		binary.LittleEndian.PutUint32(entry[12:], p.uncompressedSize)
		binary.LittleEndian.PutUint32(entry[16:], p.compressedSize)
		buf = append(buf, entry...)
	}

	// Section table: one section covering all pages.
	buf = append(buf, []byte(sectionMarker)...)
	buf = append(buf, make([]byte, tablePad)...)
	sec := make([]byte, sectionEntrySize)
	binary.LittleEndian.PutUint32(sec[0:], 100)
	binary.LittleEndian.PutUint32(sec[4:], 1)
	binary.LittleEndian.PutUint32(sec[8:], uint32(nPages))
	buf = append(buf, sec...)
	buf = append(buf, []byte(endDataMarker)...)

	if binaryBlob != nil {
		buf = append(buf, []byte(binaryTableMarker)...)
		buf = append(buf, make([]byte, tablePad)...)
		entry := make([]byte, binaryEntrySize)
		binary.LittleEndian.PutUint32(entry[0:], binAbs-InstanceHeaderOffset)
		binary.LittleEndian.PutUint32(entry[8:], binUncompressed)
		binary.LittleEndian.PutUint32(entry[12:], binCompressed)
		buf = append(buf, entry...)
	}

	return buf
}

func TestParseHeaderAndTables(t *testing.T) {
	data := buildFixture(t, 5, nil)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Header.PageCount != 5 {
		t.Fatalf("PageCount = %d, want 5", doc.Header.PageCount)
	}
	if doc.Header.DomainID != 7 || doc.Header.SpeciesID != 9 {
		t.Fatalf("DomainID/SpeciesID = %d/%d, want 7/9", doc.Header.DomainID, doc.Header.SpeciesID)
	}
	if doc.Header.Timestamp != "ts" {
		t.Fatalf("Timestamp = %q, want %q", doc.Header.Timestamp, "ts")
	}
	if len(doc.Pages) != 5 {
		t.Fatalf("len(Pages) = %d, want 5", len(doc.Pages))
	}
	for i, p := range doc.Pages {
		if p.PageNumber != int32(i+1) {
			t.Fatalf("page %d has PageNumber %d", i, p.PageNumber)
		}
	}
	if len(doc.Sections) != 1 || doc.Sections[0].SectionID != 100 {
		t.Fatalf("unexpected sections: %+v", doc.Sections)
	}
	if doc.Sections[0].EndPage() != 5 {
		t.Fatalf("EndPage = %d, want 5", doc.Sections[0].EndPage())
	}
}

func TestParseInvalidSignature(t *testing.T) {
	data := make([]byte, 0x200)
	copy(data, "NOTARPTFILE")
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for invalid signature")
	}
}

func TestDecompressPage(t *testing.T) {
	data := buildFixture(t, 3, nil)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := doc.DecompressPage(doc.Pages[1])
	if err != nil {
		t.Fatalf("DecompressPage: %v", err)
	}
	if string(out) != "BBB" {
		t.Fatalf("got %q, want %q", out, "BBB")
	}
}

func TestConcatenateBinaryObjects(t *testing.T) {
	blob := []byte("%PDF-1.4 fake content")
	data := buildFixture(t, 2, blob)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := doc.ConcatenateBinaryObjects()
	if err != nil {
		t.Fatalf("ConcatenateBinaryObjects: %v", err)
	}
	if !bytes.Equal(out, blob) {
		t.Fatalf("got %q, want %q", out, blob)
	}
}
