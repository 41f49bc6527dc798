package sdj

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
	"github.com/joseph-ayodele/shortcut-bridge/internal/mistral"
)

func TestNormalizeLocalPDF(t *testing.T) {
	res := extract.PDFResult{
		Pages: []extract.PDFPage{
			{Text: "first page", Width: 612, Height: 792},
			{
				Text:   "Region  Q1\nNorth   100",
				Width:  612,
				Height: 792,
				Tables: []extract.PDFTable{{Header: []string{"Region", "Q1"}, Rows: [][]string{{"North", "100"}}}},
			},
		},
	}
	prov := Provenance{SourceFile: "report.pdf", SourceType: SourcePDF, Language: "en", RuntimeMS: 42}

	doc := NormalizeLocalPDF(res, prov)

	if doc.SchemaVersion != SchemaVersion {
		t.Errorf("schema_version = %q", doc.SchemaVersion)
	}
	if doc.Processor != ProcessorLocalPDF {
		t.Errorf("processor = %q", doc.Processor)
	}
	if doc.Metadata.PageCount != 2 {
		t.Errorf("page_count = %d, want 2", doc.Metadata.PageCount)
	}
	if doc.Metadata.OCRRuntimeMS != 42 {
		t.Errorf("ocr_runtime_ms = %d, want 42", doc.Metadata.OCRRuntimeMS)
	}
	if doc.Metadata.Model != "pdftotext" {
		t.Errorf("model = %q", doc.Metadata.Model)
	}
	if doc.Raw.Provider != "local" {
		t.Errorf("raw.provider = %q", doc.Raw.Provider)
	}
	if len(doc.Raw.Response) == 0 {
		t.Error("raw.response is empty")
	}

	p1 := doc.Pages[0]
	if p1.PageNumber != 1 || p1.Markdown != p1.Text {
		t.Errorf("page 1 = %+v", p1)
	}
	if p1.Tables == nil || p1.Images == nil || p1.Hyperlinks == nil || p1.Blocks == nil {
		t.Error("page 1 has nil array fields")
	}

	p2 := doc.Pages[1]
	if len(p2.Tables) != 1 {
		t.Fatalf("page 2 tables = %d, want 1", len(p2.Tables))
	}
	table := p2.Tables[0]
	if table.TableID != "t1" || table.Format != "markdown" {
		t.Errorf("table = %+v", table)
	}
	if !strings.Contains(table.Content, "| Region | Q1 |") {
		t.Errorf("table content missing header row: %q", table.Content)
	}
	if !strings.Contains(table.Content, "| North | 100 |") {
		t.Errorf("table content missing body row: %q", table.Content)
	}
}

func TestNormalizeLocalImage(t *testing.T) {
	res := extract.ImageResult{Text: "receipt total 12.99", Width: 800, Height: 600}
	prov := Provenance{SourceFile: "scan.png", SourceType: SourceImage, Language: "en"}

	doc := NormalizeLocalImage(res, "tesseract", prov)

	if doc.Processor != ProcessorLocalImage {
		t.Errorf("processor = %q", doc.Processor)
	}
	if doc.Metadata.Model != "tesseract" {
		t.Errorf("model = %q", doc.Metadata.Model)
	}
	if len(doc.Pages) != 1 || doc.Metadata.PageCount != 1 {
		t.Fatalf("pages = %d, page_count = %d", len(doc.Pages), doc.Metadata.PageCount)
	}
	page := doc.Pages[0]
	if page.Width != 800 || page.Height != 600 {
		t.Errorf("dimensions = %v x %v", page.Width, page.Height)
	}
	if page.Text != res.Text || page.Markdown != res.Text {
		t.Errorf("text = %q, markdown = %q", page.Text, page.Markdown)
	}
}

func TestNormalizeRemote(t *testing.T) {
	rawBody := []byte(`{"pages":[],"model":"mistral-ocr-2505","extra_field":true}`)
	resp := mistral.Response{
		Model: "mistral-ocr-2505",
		Pages: []mistral.ResponsePage{
			{
				Index:      0,
				Markdown:   "# Invoice\nTotal: 12.99",
				Dimensions: mistral.ResponseDims{Width: 612, Height: 792},
				Tables:     []mistral.ResponseTable{{Content: "| a |", BBox: []float64{1, 2, 3, 4}}},
			},
			{Index: 1, Markdown: "second"},
		},
		UsageInfo: json.RawMessage(`{"pages_processed":2}`),
		Raw:       rawBody,
	}
	prov := Provenance{SourceFile: "invoice.pdf", SourceType: SourcePDF, Language: "en", Warnings: []string{"w1"}}

	doc := NormalizeRemote(resp, prov)

	if doc.Processor != ProcessorRemoteOCR {
		t.Errorf("processor = %q", doc.Processor)
	}
	if doc.Metadata.Model != "mistral-ocr-2505" {
		t.Errorf("model = %q", doc.Metadata.Model)
	}
	if string(doc.Raw.Response) != string(rawBody) {
		t.Errorf("raw.response not verbatim: %s", doc.Raw.Response)
	}
	if doc.Raw.Provider != "mistral" {
		t.Errorf("raw.provider = %q", doc.Raw.Provider)
	}
	if string(doc.Metadata.UsageInfo) != `{"pages_processed":2}` {
		t.Errorf("usage_info = %s", doc.Metadata.UsageInfo)
	}
	if len(doc.Metadata.Warnings) != 1 || doc.Metadata.Warnings[0] != "w1" {
		t.Errorf("warnings = %v", doc.Metadata.Warnings)
	}

	// 0-based response indices become 1-based page numbers
	if doc.Pages[0].PageNumber != 1 || doc.Pages[1].PageNumber != 2 {
		t.Errorf("page numbers = %d, %d", doc.Pages[0].PageNumber, doc.Pages[1].PageNumber)
	}
	if doc.Pages[0].Markdown != "# Invoice\nTotal: 12.99" {
		t.Errorf("markdown altered: %q", doc.Pages[0].Markdown)
	}
	if doc.Pages[0].Text != "Invoice Total: 12.99" {
		t.Errorf("text = %q", doc.Pages[0].Text)
	}

	table := doc.Pages[0].Tables[0]
	if table.TableID != "t1" || table.Format != "markdown" {
		t.Errorf("table defaults not applied: %+v", table)
	}
	if table.BBox != [4]float64{1, 2, 3, 4} {
		t.Errorf("bbox = %v", table.BBox)
	}
}

func TestNormalizeRemoteModelFallback(t *testing.T) {
	doc := NormalizeRemote(mistral.Response{}, Provenance{SourceFile: "a.pdf", SourceType: SourcePDF})
	if doc.Metadata.Model != mistral.DefaultModel {
		t.Errorf("model = %q, want %q", doc.Metadata.Model, mistral.DefaultModel)
	}
	if doc.Pages == nil || len(doc.Pages) != 0 {
		t.Errorf("pages should be an empty slice, got %v", doc.Pages)
	}
	if string(doc.Raw.Response) != "{}" {
		t.Errorf("raw.response = %s", doc.Raw.Response)
	}
}

func TestPageCountAlwaysRecomputed(t *testing.T) {
	res := extract.PDFResult{Pages: []extract.PDFPage{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	doc := NormalizeLocalPDF(res, Provenance{SourceFile: "x.pdf", SourceType: SourcePDF})
	if doc.Metadata.PageCount != len(doc.Pages) {
		t.Errorf("page_count = %d, pages = %d", doc.Metadata.PageCount, len(doc.Pages))
	}
}

func TestSerializedArraysNeverNull(t *testing.T) {
	doc := NormalizeLocalImage(extract.ImageResult{Text: "x"}, "tesseract",
		Provenance{SourceFile: "a.png", SourceType: SourceImage})
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, needle := range []string{`"blocks":[]`, `"tables":[]`, `"images":[]`, `"hyperlinks":[]`, `"warnings":[]`} {
		if !strings.Contains(string(b), needle) {
			t.Errorf("serialized document missing %s:\n%s", needle, b)
		}
	}
	if strings.Contains(string(b), "null") {
		t.Errorf("serialized document contains null:\n%s", b)
	}
}
