// Package excel converts workbooks to clean JSON for script consumption.
package excel

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

// Result is the serialized workbook: every sheet as column names plus row
// records, empty cells rendered as empty strings.
type Result struct {
	SourceFile string               `json:"source_file"`
	SheetCount int                  `json:"sheet_count"`
	Sheets     map[string]SheetData `json:"sheets"`
}

type SheetData struct {
	Columns  []string            `json:"columns"`
	RowCount int                 `json:"row_count"`
	Data     []map[string]string `json:"data"`
}

type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Process reads the workbook and writes the converted output into outputDir,
// returning the output filename. Format "json" serializes every sheet;
// "csv" exports the first sheet only. An empty format means json.
func (p *Processor) Process(ctx context.Context, inputPath, outputDir, format string) (string, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return "", fmt.Errorf("%w: unsupported output format %q", common.ErrInvalidInput, format)
	}

	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: open workbook: %v", common.ErrExtraction, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("excel.close_error", "path", inputPath, "error", cerr)
		}
	}()

	var name string
	if format == "csv" {
		name, err = p.writeCSV(f, inputPath, outputDir)
	} else {
		name, err = p.writeJSON(f, inputPath, outputDir)
	}
	if err != nil {
		return "", err
	}

	p.logger.Info("excel.process.ok",
		"input", filepath.Base(inputPath),
		"format", format,
		"output", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return name, nil
}

func (p *Processor) writeJSON(f *excelize.File, inputPath, outputDir string) (string, error) {
	sheets := f.GetSheetList()
	result := Result{
		SourceFile: filepath.Base(inputPath),
		SheetCount: len(sheets),
		Sheets:     make(map[string]SheetData, len(sheets)),
	}

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: read sheet %q: %v", common.ErrExtraction, sheet, err)
		}
		result.Sheets[sheet] = mapSheet(rows)
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	name := stemOf(inputPath) + ".json"
	if err := os.WriteFile(filepath.Join(outputDir, name), b, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return name, nil
}

// writeCSV exports the first sheet, padding short rows to the header width.
func (p *Processor) writeCSV(f *excelize.File, inputPath, outputDir string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", common.ErrExtraction)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("%w: read sheet %q: %v", common.ErrExtraction, sheets[0], err)
	}

	name := stemOf(inputPath) + ".csv"
	out, err := os.Create(filepath.Join(outputDir, name))
	if err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write result: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return name, nil
}

func stemOf(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mapSheet(rows [][]string) SheetData {
	if len(rows) == 0 {
		return SheetData{Columns: []string{}, Data: []map[string]string{}}
	}
	columns := rows[0]
	data := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		data = append(data, record)
	}
	return SheetData{Columns: columns, RowCount: len(data), Data: data}
}
