package sdj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
)

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report_ocr.json"},
		{"scan.PNG", "scan_ocr.json"},
		{"archive.tar.gz", "archive.tar_ocr.json"},
		{"noext", "noext_ocr.json"},
		{"sub/dir/doc.pdf", "doc_ocr.json"},
	}
	for _, tt := range tests {
		if got := OutputFilename(tt.in); got != tt.want {
			t.Errorf("OutputFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAndReadDocument(t *testing.T) {
	dir := t.TempDir()
	doc := NormalizeLocalPDF(
		extract.PDFResult{Pages: []extract.PDFPage{{Text: "hello", Width: 612, Height: 792}}},
		Provenance{SourceFile: "hello.pdf", SourceType: SourcePDF, Language: "en"},
	)

	name, err := WriteDocument(dir, doc)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if name != "hello_ocr.json" {
		t.Errorf("output name = %q", name)
	}

	got, err := ReadDocument(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got.SourceFile != "hello.pdf" || got.Processor != ProcessorLocalPDF {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Pages) != 1 || got.Pages[0].Text != "hello" {
		t.Errorf("pages = %+v", got.Pages)
	}
}

func TestReadDocumentRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"schema_version":"9.9"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDocument(path); err == nil {
		t.Fatal("expected version rejection")
	} else if !strings.Contains(err.Error(), "schema_version") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteDocumentRejectsContractViolation(t *testing.T) {
	dir := t.TempDir()
	// hand-built document skipping the normalizers: nil slices serialize as
	// null and fail validation
	doc := &Document{
		SchemaVersion: SchemaVersion,
		SourceFile:    "x.pdf",
		SourceType:    SourcePDF,
		Processor:     ProcessorLocalPDF,
		Pages:         []Page{{PageNumber: 1}},
	}
	_, err := WriteDocument(dir, doc)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !errors.Is(err, common.ErrNormalization) {
		t.Errorf("want ErrNormalization, got %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Error("invalid document was still written")
	}
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"schema_version":"1.0"}`)); err == nil {
		t.Error("incomplete document passed validation")
	}
	if err := ValidateJSON([]byte(`not json`)); err == nil {
		t.Error("non-JSON input passed validation")
	}
}

func TestWriteDocumentOverwrites(t *testing.T) {
	dir := t.TempDir()
	prov := Provenance{SourceFile: "dup.pdf", SourceType: SourcePDF}

	first := NormalizeLocalPDF(extract.PDFResult{Pages: []extract.PDFPage{{Text: "one"}}}, prov)
	second := NormalizeLocalPDF(extract.PDFResult{Pages: []extract.PDFPage{{Text: "two"}}}, prov)

	if _, err := WriteDocument(dir, first); err != nil {
		t.Fatal(err)
	}
	name, err := WriteDocument(dir, second)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadDocument(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if got.Pages[0].Text != "two" {
		t.Errorf("last write did not win: %q", got.Pages[0].Text)
	}
}
