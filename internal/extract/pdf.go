package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

// PDFConfig configures the local PDF extractor.
type PDFConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdfimages string // binary name or absolute path; if empty -> "pdfimages"
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"
}

// PDFExtractor reads digital PDFs via poppler tools and emits per-page text
// plus detected tables. Pages with no extractable text yield an empty
// string, not a failure.
type PDFExtractor struct {
	cfg    PDFConfig
	runner Runner
	logger *slog.Logger
}

func NewPDFExtractor(cfg PDFConfig, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdfimages == "" {
		cfg.Pdfimages = "pdfimages"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	return &PDFExtractor{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

// WithRunner swaps the command runner; tests use this to avoid real binaries.
func (e *PDFExtractor) WithRunner(r Runner) *PDFExtractor {
	e.runner = r
	return e
}

// Extract runs pdftotext in layout mode, splits the output on form feeds
// into physical pages, and scans each page for table-like regions.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (PDFResult, error) {
	start := time.Now()

	texts, err := e.pageTexts(ctx, path)
	if err != nil {
		return PDFResult{}, err
	}
	dims := e.pageDimensions(ctx, path, len(texts))

	pages := make([]PDFPage, 0, len(texts))
	for i, raw := range texts {
		page := PDFPage{
			Text:   strings.TrimSpace(raw),
			Tables: detectTables(raw),
		}
		if i < len(dims) {
			page.Width, page.Height = dims[i][0], dims[i][1]
		}
		pages = append(pages, page)
	}

	res := PDFResult{Pages: pages, Duration: time.Since(start)}
	e.logger.Debug("pdf.extract.ok", "path", path, "pages", len(pages), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// pageTexts returns the raw layout text of every page, in order.
func (e *PDFExtractor) pageTexts(ctx context.Context, path string) ([]string, error) {
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext: %v", common.ErrExtraction, err)
	}
	texts := strings.Split(string(out), "\f")
	// pdftotext terminates every page with a form feed; drop the empty tail
	if n := len(texts); n > 1 && strings.TrimSpace(texts[n-1]) == "" {
		texts = texts[:n-1]
	}
	return texts, nil
}

var rePageSize = regexp.MustCompile(`Page\s+(\d+)\s+size:\s+([\d.]+)\s+x\s+([\d.]+)`)

// pageDimensions asks pdfinfo for per-page media box sizes in points.
// Dimension lookup is best-effort; a page without a match stays zeroed.
func (e *PDFExtractor) pageDimensions(ctx context.Context, path string, pageCount int) [][2]float64 {
	dims := make([][2]float64, pageCount)
	out, _, err := e.runner.Run(ctx, e.cfg.Pdfinfo, "-f", "1", "-l", strconv.Itoa(pageCount), path)
	if err != nil {
		e.logger.Warn("pdf.pageinfo.failed", "path", path, "error", err)
		return dims
	}
	for _, m := range rePageSize.FindAllStringSubmatch(string(out), -1) {
		idx, _ := strconv.Atoi(m[1])
		if idx < 1 || idx > pageCount {
			continue
		}
		w, _ := strconv.ParseFloat(m[2], 64)
		h, _ := strconv.ParseFloat(m[3], 64)
		dims[idx-1] = [2]float64{w, h}
	}
	return dims
}

var reColumnGap = regexp.MustCompile(` {2,}`)

// detectTables scans layout text for runs of aligned columns. Two or more
// consecutive lines splitting into the same number (>=2) of cells form a
// table; the first line is the header row.
func detectTables(pageText string) []PDFTable {
	var tables []PDFTable
	var block [][]string

	flush := func() {
		if len(block) >= 2 {
			tables = append(tables, PDFTable{Header: block[0], Rows: block[1:]})
		}
		block = nil
	}

	for _, line := range strings.Split(pageText, "\n") {
		cells := splitColumns(line)
		if len(cells) >= 2 && (len(block) == 0 || len(cells) == len(block[0])) {
			block = append(block, cells)
			continue
		}
		flush()
		// a line with a different column count can still start a new block
		if len(cells) >= 2 {
			block = append(block, cells)
		}
	}
	flush()
	return tables
}

func splitColumns(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cells := reColumnGap.Split(line, -1)
	if len(cells) < 2 {
		return nil
	}
	return cells
}
