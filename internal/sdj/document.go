// Package sdj defines the Standardized Document JSON schema: the canonical
// normalized output for any extracted document, independent of which
// extractor produced it.
package sdj

import (
	"encoding/json"
	"time"
)

// SchemaVersion identifies the current schema revision. Consumers must
// reject documents carrying an unknown version.
const SchemaVersion = "1.0"

// Processor identifiers recorded in Document.Processor.
const (
	ProcessorRemoteOCR  = "remote_ocr"
	ProcessorLocalPDF   = "local_pdf"
	ProcessorLocalImage = "local_image"
)

// Source types recorded in Document.SourceType.
const (
	SourcePDF   = "pdf"
	SourceImage = "image"
)

// Document is one normalized extraction result. It is assembled fully in
// memory, persisted once, and never mutated after write; reprocessing a file
// produces a new document.
type Document struct {
	SchemaVersion string   `json:"schema_version"`
	SourceFile    string   `json:"source_file"`
	SourceType    string   `json:"source_type"`
	Processor     string   `json:"processor"`
	Pages         []Page   `json:"pages"`
	Metadata      Metadata `json:"metadata"`
	Raw           Raw      `json:"raw"`
}

// Metadata holds aggregate facts about the document.
type Metadata struct {
	PageCount    int             `json:"page_count"`
	Language     string          `json:"language"`
	CreatedAt    time.Time       `json:"created_at"`
	OCRRuntimeMS int64           `json:"ocr_runtime_ms"`
	Model        string          `json:"model"`
	UsageInfo    json.RawMessage `json:"usage_info"`
	Warnings     []string        `json:"warnings"`
}

// Raw is the provenance container: the complete, unmodified extractor or API
// response, kept for audit and regression comparison.
type Raw struct {
	Provider string          `json:"provider"`
	Response json.RawMessage `json:"response"`
}

// Page is one physical page, 1-based. Every array field is present (empty,
// not null) even when the extractor yields nothing.
type Page struct {
	PageNumber int               `json:"page_number"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Text       string            `json:"text"`
	Markdown   string            `json:"markdown"`
	Blocks     []json.RawMessage `json:"blocks"`
	Tables     []Table           `json:"tables"`
	Images     []json.RawMessage `json:"images"`
	Hyperlinks []json.RawMessage `json:"hyperlinks"`
}

// Table is one detected table on a page.
type Table struct {
	TableID string     `json:"table_id"`
	Format  string     `json:"format"` // "markdown" | "html"
	Content string     `json:"content"`
	BBox    [4]float64 `json:"bbox"` // zeroed when unknown, never absent
}

// fill replaces nil slices/messages so the serialized page always carries
// empty arrays rather than nulls.
func (p *Page) fill() {
	if p.Blocks == nil {
		p.Blocks = []json.RawMessage{}
	}
	if p.Tables == nil {
		p.Tables = []Table{}
	}
	if p.Images == nil {
		p.Images = []json.RawMessage{}
	}
	if p.Hyperlinks == nil {
		p.Hyperlinks = []json.RawMessage{}
	}
}

func (m *Metadata) fill() {
	if m.UsageInfo == nil {
		m.UsageInfo = json.RawMessage(`{}`)
	}
	if m.Warnings == nil {
		m.Warnings = []string{}
	}
}
