// Package export writes datasets received from the scripting runtime into
// the exports directory as JSON, CSV, or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

type Service struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewService(dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dir: dir, logger: logger, now: time.Now}
}

// Write persists the payload under a timestamped filename and returns it.
// JSON takes any payload; CSV and XLSX require an array of flat objects.
func (s *Service) Write(name string, data json.RawMessage, format string) (string, error) {
	if name == "" {
		name = "export"
	}
	stamp := s.now().Format("2006-01-02_150405")

	switch format {
	case "", "json":
		filename := fmt.Sprintf("%s_%s.json", name, stamp)
		var pretty any
		if err := json.Unmarshal(data, &pretty); err != nil {
			return "", fmt.Errorf("%w: decode export data: %v", common.ErrInvalidInput, err)
		}
		b, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode export: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.dir, filename), b, 0o644); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}
		s.logger.Info("export.written", "file", filename, "format", "json", "bytes", len(b))
		return filename, nil

	case "csv":
		columns, rows, err := tabulate(data)
		if err != nil {
			return "", err
		}
		filename := fmt.Sprintf("%s_%s.csv", name, stamp)
		f, err := os.Create(filepath.Join(s.dir, filename))
		if err != nil {
			return "", fmt.Errorf("create export: %w", err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(columns); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("write row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("flush csv: %w", err)
		}
		s.logger.Info("export.written", "file", filename, "format", "csv", "rows", len(rows))
		return filename, nil

	case "xlsx":
		columns, rows, err := tabulate(data)
		if err != nil {
			return "", err
		}
		filename := fmt.Sprintf("%s_%s.xlsx", name, stamp)
		f := excelize.NewFile()
		const sheet = "Export"
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return "", fmt.Errorf("new sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", fmt.Errorf("drop default sheet: %w", err)
		}
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, col)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				_ = f.SetCellValue(sheet, cell, v)
			}
		}
		if err := f.SaveAs(filepath.Join(s.dir, filename)); err != nil {
			return "", fmt.Errorf("save workbook: %w", err)
		}
		s.logger.Info("export.written", "file", filename, "format", "xlsx", "rows", len(rows))
		return filename, nil

	default:
		return "", fmt.Errorf("%w: unsupported export format %q", common.ErrInvalidInput, format)
	}
}

// tabulate flattens an array of objects into a column list (sorted for
// determinism, since JSON objects carry no order) and stringified rows.
func tabulate(data json.RawMessage) ([]string, [][]string, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: tabular export needs an array of objects: %v", common.ErrInvalidInput, err)
	}

	seen := map[string]struct{}{}
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
