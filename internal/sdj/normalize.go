package sdj

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
	"github.com/joseph-ayodele/shortcut-bridge/internal/mistral"
)

// Provenance carries the facts about an extraction run that the raw result
// itself does not know: which file it came from, what it cost, and any
// routing warnings to surface.
type Provenance struct {
	SourceFile string
	SourceType string // SourcePDF | SourceImage
	Language   string
	RuntimeMS  int64
	Warnings   []string
}

// NormalizeLocalPDF maps a local text/table extraction result into the
// canonical document: one page per source page, markdown equal to text (no
// richer formatting is available locally), tables rendered as markdown with
// structure preserved, and empty image/hyperlink sequences.
func NormalizeLocalPDF(res extract.PDFResult, prov Provenance) *Document {
	pages := make([]Page, 0, len(res.Pages))
	for i, p := range res.Pages {
		page := Page{
			PageNumber: i + 1,
			Width:      p.Width,
			Height:     p.Height,
			Text:       p.Text,
			Markdown:   p.Text,
			Tables:     mapLocalTables(p.Tables),
		}
		page.fill()
		pages = append(pages, page)
	}
	return assemble(ProcessorLocalPDF, "pdftotext", "local", rawOf(res), pages, prov)
}

// NormalizeLocalImage maps a local OCR transcription into a single-page
// document with the source image's pixel dimensions.
func NormalizeLocalImage(res extract.ImageResult, model string, prov Provenance) *Document {
	page := Page{
		PageNumber: 1,
		Width:      float64(res.Width),
		Height:     float64(res.Height),
		Text:       res.Text,
		Markdown:   res.Text,
	}
	page.fill()
	return assemble(ProcessorLocalImage, model, "local", rawOf(res), []Page{page}, prov)
}

// NormalizeRemote maps an OCR API response: response markdown carries over
// verbatim, page text is derived by stripping markdown markers, and
// tables/images/hyperlinks map structurally. Unknown response fields survive
// only inside raw.
func NormalizeRemote(resp mistral.Response, prov Provenance) *Document {
	pages := make([]Page, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		page := Page{
			PageNumber: p.Index + 1,
			Width:      p.Dimensions.Width,
			Height:     p.Dimensions.Height,
			Text:       StripMarkdown(p.Markdown),
			Markdown:   p.Markdown,
			Tables:     mapRemoteTables(p.Tables),
			Images:     p.Images,
			Hyperlinks: p.Hyperlinks,
		}
		page.fill()
		pages = append(pages, page)
	}

	model := resp.Model
	if model == "" {
		model = mistral.DefaultModel
	}
	raw := resp.Raw
	if raw == nil {
		raw = []byte(`{}`)
	}
	doc := assemble(ProcessorRemoteOCR, model, "mistral", raw, pages, prov)
	if resp.UsageInfo != nil {
		doc.Metadata.UsageInfo = resp.UsageInfo
	}
	return doc
}

func assemble(processor, model, provider string, rawResponse json.RawMessage, pages []Page, prov Provenance) *Document {
	meta := Metadata{
		PageCount:    len(pages), // always recomputed, never trusted from the source
		Language:     prov.Language,
		CreatedAt:    time.Now().UTC(),
		OCRRuntimeMS: prov.RuntimeMS,
		Model:        model,
		Warnings:     append([]string{}, prov.Warnings...),
	}
	meta.fill()
	if pages == nil {
		pages = []Page{}
	}
	return &Document{
		SchemaVersion: SchemaVersion,
		SourceFile:    prov.SourceFile,
		SourceType:    prov.SourceType,
		Processor:     processor,
		Pages:         pages,
		Metadata:      meta,
		Raw:           Raw{Provider: provider, Response: rawResponse},
	}
}

// rawOf serializes a library-native local result for the audit container.
func rawOf(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func mapLocalTables(tables []extract.PDFTable) []Table {
	out := make([]Table, 0, len(tables))
	for i, t := range tables {
		out = append(out, Table{
			TableID: fmt.Sprintf("t%d", i+1),
			Format:  "markdown",
			Content: tableToMarkdown(t.Header, t.Rows),
		})
	}
	return out
}

func mapRemoteTables(tables []mistral.ResponseTable) []Table {
	out := make([]Table, 0, len(tables))
	for i, t := range tables {
		mapped := Table{
			TableID: t.ID,
			Format:  t.Format,
			Content: t.Content,
		}
		if mapped.TableID == "" {
			mapped.TableID = fmt.Sprintf("t%d", i+1)
		}
		if mapped.Format == "" {
			mapped.Format = "markdown"
		}
		for j := 0; j < len(t.BBox) && j < 4; j++ {
			mapped.BBox[j] = t.BBox[j]
		}
		out = append(out, mapped)
	}
	return out
}

// tableToMarkdown renders a header row plus body rows as a markdown table.
func tableToMarkdown(header []string, rows [][]string) string {
	if len(header) == 0 {
		return ""
	}
	row := func(cells []string) string {
		trimmed := make([]string, len(cells))
		for i, c := range cells {
			trimmed[i] = strings.TrimSpace(c)
		}
		return "| " + strings.Join(trimmed, " | ") + " |"
	}

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}

	lines := []string{row(header), "| " + strings.Join(sep, " | ") + " |"}
	for _, r := range rows {
		lines = append(lines, row(r))
	}
	return strings.Join(lines, "\n")
}
