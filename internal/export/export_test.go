package export

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VantageDataChat/rpt-extract/internal/watermarkpdf"
)

const (
	fixtureHeaderSize     = 0x200
	fixturePageCountOff   = 0x1D4
	fixtureSectionCntOff  = 0x1E4
	fixtureInstHdrOffset  = 0xF0
	fixturePageEntrySize  = 24
	fixtureSectionEntSize = 12
	fixtureTablePad       = 13
)

// buildFixture assembles a minimal but structurally valid RPT image
// with nPages text pages across a single section, no binary objects.
// Mirrors internal/rpt's own test fixture builder since that helper is
// unexported to its package.
func buildFixture(t *testing.T, nPages int, speciesID int32) []byte {
	t.Helper()

	compress := func(plain []byte) []byte {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		w.Write(plain)
		w.Close()
		return buf.Bytes()
	}

	type pagePayload struct {
		absOffset        uint32
		compressedSize   uint32
		uncompressedSize uint32
	}
	var payloadArea []byte
	var pages []pagePayload
	for i := 1; i <= nPages; i++ {
		plain := []byte{byte('A' + i - 1), byte('A' + i - 1)}
		c := compress(plain)
		pages = append(pages, pagePayload{
			absOffset:        uint32(fixtureHeaderSize + len(payloadArea)),
			compressedSize:   uint32(len(c)),
			uncompressedSize: uint32(len(plain)),
		})
		payloadArea = append(payloadArea, c...)
	}

	buf := make([]byte, fixtureHeaderSize)
	copy(buf, "RPTFILEHDR")
	buf[10] = '\t'
	copy(buf[11:], []byte("3:"+itoa(speciesID)+"\tts \t"))

	binary.LittleEndian.PutUint32(buf[fixturePageCountOff:], uint32(nPages))
	binary.LittleEndian.PutUint32(buf[fixtureSectionCntOff:], 1)

	buf = append(buf, payloadArea...)

	buf = append(buf, []byte("PAGETBLHDR")...)
	buf = append(buf, make([]byte, fixtureTablePad)...)
	for _, p := range pages {
		entry := make([]byte, fixturePageEntrySize)
		binary.LittleEndian.PutUint32(entry[0:], p.absOffset-fixtureInstHdrOffset)
		binary.LittleEndian.PutUint16(entry[8:], 132)
		binary.LittleEndian.PutUint16(entry[10:], 66)
		binary.LittleEndian.PutUint32(entry[12:], p.uncompressedSize)
		binary.LittleEndian.PutUint32(entry[16:], p.compressedSize)
		buf = append(buf, entry...)
	}

	buf = append(buf, []byte("SECTIONHDR")...)
	buf = append(buf, make([]byte, fixtureTablePad)...)
	sec := make([]byte, fixtureSectionEntSize)
	binary.LittleEndian.PutUint32(sec[0:], 100)
	binary.LittleEndian.PutUint32(sec[4:], 1)
	binary.LittleEndian.PutUint32(sec[8:], uint32(nPages))
	buf = append(buf, sec...)
	buf = append(buf, []byte("ENDDATA")...)

	return buf
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestFileExportWritesTextAndCSV(t *testing.T) {
	dir := t.TempDir()
	rptPath := filepath.Join(dir, "sample.rpt")
	if err := os.WriteFile(rptPath, buildFixture(t, 3, 9), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := File(rptPath, watermarkpdf.Config{})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if res.PageCount != 3 {
		t.Fatalf("PageCount = %d, want 3", res.PageCount)
	}

	exportDir := filepath.Join(dir, "export")
	textBytes, err := os.ReadFile(filepath.Join(exportDir, "sample.txt"))
	if err != nil {
		t.Fatalf("read text output: %v", err)
	}
	if string(textBytes) != "AABBCC" {
		t.Fatalf("text output = %q, want %q", textBytes, "AABBCC")
	}

	csvBytes, err := os.ReadFile(filepath.Join(exportDir, "sample.csv"))
	if err != nil {
		t.Fatalf("read csv output: %v", err)
	}
	csv := string(csvBytes)
	if !strings.HasPrefix(csv, "SPECIES_ID,SECTION_ID,START_PAGE,PAGES\n") {
		t.Fatalf("csv header missing: %q", csv)
	}
	if !strings.Contains(csv, "9,100,1,3") {
		t.Fatalf("csv missing section row: %q", csv)
	}
}

func TestDirectoryBatchSkipsCompletedAndRecordsProgress(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.rpt", "b.rpt"} {
		if err := os.WriteFile(filepath.Join(dir, name), buildFixture(t, 1, 1), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// a non-.rpt file must be ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Directory(dir, watermarkpdf.Config{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if res.Total != 2 || res.Processed != 2 || res.Skipped != 0 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	progress, err := os.ReadFile(filepath.Join(dir, "export", progressFileName))
	if err != nil {
		t.Fatalf("read progress ledger: %v", err)
	}
	if !strings.Contains(string(progress), "a.rpt") || !strings.Contains(string(progress), "b.rpt") {
		t.Fatalf("progress ledger missing entries: %q", progress)
	}

	// Second run should skip both, now that they're recorded.
	res2, err := Directory(dir, watermarkpdf.Config{})
	if err != nil {
		t.Fatalf("Directory (resume): %v", err)
	}
	if res2.Skipped != 2 || res2.Processed != 0 {
		t.Fatalf("resume run should skip all: %+v", res2)
	}
}
